package actionable

import (
	"fmt"
	"strings"

	"speech-coach-go/internal/aggregator"
)

// Comfortable presentation pace in words per minute.
const (
	MinWPM = 120
	MaxWPM = 160
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Generate turns an insight into delivery advice, most pressing first. For a
// single rehearsal pass aggregator.Aggregate a one element slice.
func Generate(ins aggregator.Insight) []ActionCard {
	var cards []ActionCard

	switch {
	case ins.AverageWPM > MaxWPM:
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Speaking fast (%.0f wpm)", ins.AverageWPM),
			Action:  "Pause after each key point and slow down to 120-160 wpm",
			Impact:  "Audience keeps up with the argument",
		})
	case ins.AverageWPM > 0 && ins.AverageWPM < MinWPM:
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Speaking slowly (%.0f wpm)", ins.AverageWPM),
			Action:  "Rehearse transitions until they flow; aim for 120-160 wpm",
			Impact:  "Keeps energy and attention up",
		})
	}

	if len(ins.TopFillers) > 0 && ins.FillersPerTalk >= 3 {
		top := ins.TopFillers[0]
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Frequent fillers (%.1f per rehearsal), mostly %q", ins.FillersPerTalk, top),
			Action:  fmt.Sprintf("Replace %q with a silent pause; record a short drill focused on it", top),
			Impact:  "Sounds more confident and prepared",
		})
	}

	if ins.OutlineCoverage >= 0 && len(ins.UncoveredPoints) > 0 {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("Outline coverage %.0f%%; weak or missing: %s", ins.OutlineCoverage*100, strings.Join(ins.UncoveredPoints, "; ")),
			Action:  "Add a sentence for each missing point and rehearse that section",
			Impact:  "Delivers the full message that was planned",
		})
	}

	if ins.ScriptDeviations > 0 {
		cards = append(cards, ActionCard{
			Insight: fmt.Sprintf("%d departures from the script", ins.ScriptDeviations),
			Action:  "Review the omissions first, then decide which additions to keep",
			Impact:  "Closer match between plan and delivery",
		})
	}

	if len(cards) == 0 {
		return []ActionCard{{
			Insight: "No strong delivery issue detected",
			Action:  "Keep rehearsing and collect more recordings",
			Impact:  "Low immediate intervention",
		}}
	}
	return cards
}
