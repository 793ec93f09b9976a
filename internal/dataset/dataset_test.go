package dataset

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"speech-coach-go/internal/actionable"
	"speech-coach-go/internal/aggregator"
	"speech-coach-go/internal/logger"
	"speech-coach-go/internal/types"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, r := range rows {
		addr, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, addr, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "rehearsals.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestLoadDetectsColumns(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Rehearsal ID", "Recording URL", "Transcript", "Outline", "Script", "Duration (s)"},
		{"r-1", "", "Um, hello everyone.", "- Greet", "", "12.5"},
		{"", "https://cdn.example/talk.mp4", "", "", "Hello.", ""},
		{"r-3", "", "", "- Nothing to analyze", "", ""},
		{"r-4", "", `[{"text": "So, welcome.", "start": 0, "end": 2}]`, "", "", ""},
	})

	recs, err := Load(path, logger.Discard().Component("dataset"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 rehearsals, got %+v", recs)
	}
	if recs[0].ID != "r-1" || recs[0].Outline != "- Greet" || recs[0].DurationSec != 12.5 {
		t.Fatalf("unexpected first row %+v", recs[0])
	}
	if recs[1].ID != "2" || recs[1].RecordingURL != "https://cdn.example/talk.mp4" || recs[1].Script != "Hello." {
		t.Fatalf("unexpected second row %+v", recs[1])
	}

	tr, err := recs[2].ParseTranscript()
	if err != nil {
		t.Fatalf("parse transcript: %v", err)
	}
	if !tr.HasTiming() || tr.Text() != "So, welcome." {
		t.Fatalf("unexpected transcript %q", tr.Text())
	}
	if tr, _ := recs[0].ParseTranscript(); tr.HasTiming() || tr.WordCount() != 3 {
		t.Fatalf("expected an untimed transcript, got %q", tr.Text())
	}
}

func TestLoadErrors(t *testing.T) {
	log := logger.Discard().Component("dataset")
	if _, err := Load(filepath.Join(t.TempDir(), "none.xlsx"), log); err == nil {
		t.Fatal("expected a missing file to fail")
	}
	if _, err := Load(writeWorkbook(t, [][]any{{"Transcript"}}), log); err == nil {
		t.Fatal("expected a header-only sheet to fail")
	}
	if _, err := Load(writeWorkbook(t, [][]any{{"Name", "Notes"}, {"a", "b"}}), log); err == nil {
		t.Fatal("expected a sheet without transcript or recording columns to fail")
	}
}

func TestWriteReport(t *testing.T) {
	res := types.AnalysisResult{
		SpeechRateWPM: 142.5,
		FillerWords:   types.FillerReport{"um": 3, "like": 1},
		ContentAnalysis: &types.OutlineAnalysis{
			Pros: []types.Pro{},
			Cons: []types.Con{{OutlinePoint: "Explain roadmap", Timestamp: "missing"}},
		},
		Errors: map[string]string{types.FeatureScriptAnalysis: "malformed_output: bad json"},
	}
	rows := []ReportRow{
		{Rehearsal: Rehearsal{ID: "r-1"}, Result: &res},
		{Rehearsal: Rehearsal{ID: "r-2"}, Error: "transcription error: timeout"},
	}
	ins := aggregator.Aggregate([]types.AnalysisResult{res})
	path := filepath.Join(t.TempDir(), "report.xlsx")

	if err := WriteReport(path, rows, ins, actionable.Generate(ins)); err != nil {
		t.Fatalf("write report: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(analysesSheet)
	if err != nil {
		t.Fatalf("read analyses: %v", err)
	}
	if len(got) != 3 || got[1][0] != "r-1" || got[1][2] != "4" || got[1][3] != "um (3), like (1)" {
		t.Fatalf("unexpected analyses rows %q", got)
	}
	if !strings.Contains(got[1][9], "script_analysis") || got[2][9] != "transcription error: timeout" {
		t.Fatalf("unexpected error cells %q / %q", got[1][9], got[2][9])
	}

	insight, err := f.GetRows(insightSheet)
	if err != nil {
		t.Fatalf("read insight: %v", err)
	}
	if insight[0][0] != "Rehearsals" || insight[0][1] != "1" || !strings.Contains(insight[5][1], "Explain roadmap") {
		t.Fatalf("unexpected insight rows %q", insight)
	}
}
