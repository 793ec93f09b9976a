package actionable

import (
	"strings"
	"testing"

	"speech-coach-go/internal/aggregator"
	"speech-coach-go/internal/types"
)

func TestGenerateFromSingleResult(t *testing.T) {
	res := types.AnalysisResult{
		SpeechRateWPM: 182.5,
		FillerWords:   types.FillerReport{"um": 6, "like": 2},
		ContentAnalysis: &types.OutlineAnalysis{
			Pros: []types.Pro{{OutlinePoint: "Intro"}},
			Cons: []types.Con{{OutlinePoint: "Explain roadmap", Timestamp: "missing"}},
		},
	}

	cards := Generate(aggregator.Aggregate([]types.AnalysisResult{res}))
	if len(cards) != 3 {
		t.Fatalf("expected pacing, filler and outline cards, got %+v", cards)
	}
	if !strings.Contains(cards[0].Insight, "fast") {
		t.Fatalf("unexpected pacing card %+v", cards[0])
	}
	if !strings.Contains(cards[1].Action, `"um"`) {
		t.Fatalf("unexpected filler card %+v", cards[1])
	}
	if !strings.Contains(cards[2].Insight, "Explain roadmap") {
		t.Fatalf("unexpected outline card %+v", cards[2])
	}
}

func TestGenerateSlowAndScript(t *testing.T) {
	ins := aggregator.Insight{AverageWPM: 95, OutlineCoverage: -1, ScriptDeviations: 2}
	cards := Generate(ins)
	if len(cards) != 2 || !strings.Contains(cards[0].Insight, "slowly") || !strings.Contains(cards[1].Insight, "2 departures") {
		t.Fatalf("unexpected cards %+v", cards)
	}
}

func TestGenerateNothingToSay(t *testing.T) {
	cards := Generate(aggregator.Insight{AverageWPM: 140, OutlineCoverage: 1})
	if len(cards) != 1 || !strings.HasPrefix(cards[0].Insight, "No strong") {
		t.Fatalf("unexpected cards %+v", cards)
	}
}
