package aggregator

import (
	"math"
	"sort"

	"speech-coach-go/internal/types"
)

// Insight summarizes many rehearsals of one speaker or one batch.
type Insight struct {
	Rehearsals       int            `json:"rehearsals"`
	AverageWPM       float64        `json:"average_wpm"`
	FillerTotals     map[string]int `json:"filler_totals"`
	TopFillers       []string       `json:"top_fillers"`
	FillersPerTalk   float64        `json:"fillers_per_rehearsal"`
	OutlineCoverage  float64        `json:"outline_coverage"`
	UncoveredPoints  []string       `json:"uncovered_points"`
	ScriptDeviations int            `json:"script_deviations"`
	FailedAnalyses   int            `json:"failed_analyses"`
}

// Aggregate folds results into one Insight. Rehearsals with a zero rate are
// left out of the average; OutlineCoverage is -1 when no outline was analyzed.
func Aggregate(results []types.AnalysisResult) Insight {
	ins := Insight{
		Rehearsals:      len(results),
		FillerTotals:    map[string]int{},
		TopFillers:      []string{},
		OutlineCoverage: -1,
		UncoveredPoints: []string{},
	}

	var wpmSum float64
	var wpmN, fillers, pros, cons int
	seen := map[string]bool{}
	for _, r := range results {
		if r.SpeechRateWPM > 0 {
			wpmSum += r.SpeechRateWPM
			wpmN++
		}
		for phrase, n := range r.FillerWords {
			ins.FillerTotals[phrase] += n
			fillers += n
		}
		if ca := r.ContentAnalysis; ca != nil {
			pros += len(ca.Pros)
			cons += len(ca.Cons)
			for _, c := range ca.Cons {
				if c.OutlinePoint != "" && !seen[c.OutlinePoint] {
					seen[c.OutlinePoint] = true
					ins.UncoveredPoints = append(ins.UncoveredPoints, c.OutlinePoint)
				}
			}
		}
		ins.ScriptDeviations += r.ScriptAnalysis.Count()
		if len(r.Errors) > 0 {
			ins.FailedAnalyses++
		}
	}

	if wpmN > 0 {
		ins.AverageWPM = round2(wpmSum / float64(wpmN))
	}
	if len(results) > 0 {
		ins.FillersPerTalk = round2(float64(fillers) / float64(len(results)))
	}
	if pros+cons > 0 {
		ins.OutlineCoverage = round2(float64(pros) / float64(pros+cons))
	}

	type pc struct {
		p string
		c int
	}
	var arr []pc
	for k, v := range ins.FillerTotals {
		arr = append(arr, pc{k, v})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].c != arr[j].c {
			return arr[i].c > arr[j].c
		}
		return arr[i].p < arr[j].p
	})
	for i := 0; i < len(arr) && i < 3; i++ {
		ins.TopFillers = append(ins.TopFillers, arr[i].p)
	}
	return ins
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
