package dataset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"speech-coach-go/internal/actionable"
	"speech-coach-go/internal/aggregator"
	"speech-coach-go/internal/types"
)

const (
	analysesSheet = "Analyses"
	insightSheet  = "Insight"
)

// ReportRow pairs a rehearsal with its analysis. Error is set when the row
// could not be analyzed at all.
type ReportRow struct {
	Rehearsal Rehearsal
	Result    *types.AnalysisResult
	Error     string
}

var analysesHeader = []any{
	"ID", "Speech rate (wpm)", "Fillers", "Top fillers", "Pros", "Cons",
	"Omissions", "Additions", "Paraphrases", "Errors", "Result JSON",
}

// WriteReport writes one row per rehearsal, then the batch insight and its
// action cards on a second sheet.
func WriteReport(path string, rows []ReportRow, ins aggregator.Insight, cards []actionable.ActionCard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), analysesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(analysesSheet, "A1", &analysesHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		addr, _ := excelize.CoordinatesToCellName(1, i+2)
		values := analysisRow(r)
		if err := f.SetSheetRow(analysesSheet, addr, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(insightSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	coverage := any("n/a")
	if ins.OutlineCoverage >= 0 {
		coverage = ins.OutlineCoverage
	}
	summary := [][]any{
		{"Rehearsals", ins.Rehearsals},
		{"Average wpm", ins.AverageWPM},
		{"Fillers per rehearsal", ins.FillersPerTalk},
		{"Top fillers", strings.Join(ins.TopFillers, ", ")},
		{"Outline coverage", coverage},
		{"Uncovered points", strings.Join(ins.UncoveredPoints, "; ")},
		{"Script deviations", ins.ScriptDeviations},
		{"Failed analyses", ins.FailedAnalyses},
		{},
		{"Insight", "Action", "Impact"},
	}
	for _, c := range cards {
		summary = append(summary, []any{c.Insight, c.Action, c.Impact})
	}
	for i, values := range summary {
		addr, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(insightSheet, addr, &values); err != nil {
			return fmt.Errorf("write insight: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func analysisRow(r ReportRow) []any {
	if r.Result == nil {
		return []any{r.Rehearsal.ID, "", "", "", "", "", "", "", "", r.Error, ""}
	}
	res := r.Result

	total := 0
	names := make([]string, 0, len(res.FillerWords))
	for phrase, n := range res.FillerWords {
		total += n
		names = append(names, phrase)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := res.FillerWords[names[i]], res.FillerWords[names[j]]
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})
	top := make([]string, 0, 3)
	for i := 0; i < len(names) && i < 3; i++ {
		top = append(top, fmt.Sprintf("%s (%d)", names[i], res.FillerWords[names[i]]))
	}

	pros, cons := "", ""
	if ca := res.ContentAnalysis; ca != nil {
		pros, cons = fmt.Sprint(len(ca.Pros)), fmt.Sprint(len(ca.Cons))
	}
	om, add, para := "", "", ""
	if sa := res.ScriptAnalysis; sa != nil {
		om, add, para = fmt.Sprint(len(sa.Omissions)), fmt.Sprint(len(sa.Additions)), fmt.Sprint(len(sa.Paraphrases))
	}

	errs := make([]string, 0, len(res.Errors))
	for feature, msg := range res.Errors {
		errs = append(errs, feature+": "+msg)
	}
	sort.Strings(errs)
	if r.Error != "" {
		errs = append(errs, r.Error)
	}

	raw, _ := json.Marshal(res)
	return []any{
		r.Rehearsal.ID, res.SpeechRateWPM, total, strings.Join(top, ", "),
		pros, cons, om, add, para, strings.Join(errs, "\n"), string(raw),
	}
}
