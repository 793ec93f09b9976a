package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"speech-coach-go/internal/logger"
)

func offlineEnv(t *testing.T) {
	t.Helper()
	t.Setenv("USE_MOCK_LLM", "true")
	t.Setenv("USE_MOCK_TRANSCRIBE", "true")
	t.Setenv("FILLER_RPS", "0")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("TIMESTAMP_FORMAT", "mm:ss")
	t.Setenv("SPEECH_RATE_SOURCE", "segments")
	t.Setenv("CONFIG_FILE", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(logger.Discard())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeTranscriptFile(t *testing.T) {
	offlineEnv(t)
	dir := t.TempDir()
	trPath := filepath.Join(dir, "talk.yaml")
	outlinePath := filepath.Join(dir, "outline.md")
	if err := os.WriteFile(trPath, []byte("- text: Um, hello everyone.\n  start: 0\n  end: 3\n- text: Uh, let's begin.\n  start: 3\n  end: 6\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(outlinePath, []byte("- Explain roadmap\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "analyze", "--transcript", trPath, "--outline", outlinePath)
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got["speech_rate_wpm"].(float64) != 60 {
		t.Fatalf("unexpected rate %v", got["speech_rate_wpm"])
	}
	if _, ok := got["content_analysis"]; !ok {
		t.Fatalf("expected content_analysis in %s", out)
	}
	if _, ok := got["script_analysis"]; ok {
		t.Fatalf("script_analysis must be absent in %s", out)
	}
}

func TestAnalyzeNeedsOneSource(t *testing.T) {
	offlineEnv(t)
	if _, err := run(t, "analyze"); err == nil {
		t.Fatal("expected an error without --transcript or --recording")
	}
	if _, err := run(t, "analyze", "--transcript", "a.txt", "--recording", "https://x"); err == nil {
		t.Fatal("expected an error with both sources")
	}
}

func TestBatch(t *testing.T) {
	offlineEnv(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "rehearsals.xlsx")
	out := filepath.Join(dir, "report.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"ID", "Transcript", "Recording URL", "Script"},
		{"r-1", "Um, hello. You know, welcome.", "", "Hello and welcome."},
		{"r-2", "", "https://cdn.example/r2.mp4", ""},
	}
	for i, r := range rows {
		addr, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, addr, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Close()

	msg, err := run(t, "batch", "--in", in, "--out", out)
	if err != nil {
		t.Fatalf("batch: %v\n%s", err, msg)
	}
	if !strings.Contains(msg, "2 rehearsals") {
		t.Fatalf("unexpected output %q", msg)
	}

	report, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer report.Close()
	got, err := report.GetRows("Analyses")
	if err != nil || len(got) != 3 {
		t.Fatalf("expected header and two rows, got %q %v", got, err)
	}
}
