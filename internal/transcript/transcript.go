// Package transcript holds the normalized, validated form of a speech
// transcript that every analysis step reads from.
package transcript

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"speech-coach-go/internal/types"
)

// InputError rejects a transcript that cannot be analyzed at all.
type InputError struct {
	Index  int
	Reason string
}

func (e *InputError) Error() string {
	if e.Index < 0 {
		return "invalid transcript: " + e.Reason
	}
	return fmt.Sprintf("invalid transcript: segment %d: %s", e.Index, e.Reason)
}

// Transcript is immutable once built. Segments is empty for transcripts that
// arrived as plain text.
type Transcript struct {
	segments []types.Segment
	text     string
}

// New validates segments and builds a timed transcript.
func New(segments []types.Segment) (Transcript, error) {
	out := make([]types.Segment, 0, len(segments))
	prevStart := math.Inf(-1)
	for i, s := range segments {
		if !finite(s.Start) || !finite(s.End) {
			return Transcript{}, &InputError{Index: i, Reason: "non-finite offset"}
		}
		if s.Start < 0 || s.End < 0 {
			return Transcript{}, &InputError{Index: i, Reason: "negative offset"}
		}
		if s.Start > s.End {
			return Transcript{}, &InputError{Index: i, Reason: fmt.Sprintf("start %.3f after end %.3f", s.Start, s.End)}
		}
		if s.Start < prevStart {
			return Transcript{}, &InputError{Index: i, Reason: "segments out of order"}
		}
		prevStart = s.Start
		s.Text = strings.TrimSpace(s.Text)
		out = append(out, s)
	}

	texts := make([]string, 0, len(out))
	for _, s := range out {
		if s.Text != "" {
			texts = append(texts, s.Text)
		}
	}
	return Transcript{segments: out, text: strings.Join(texts, " ")}, nil
}

// FromText wraps a transcript that has no per-segment timing.
func FromText(text string) Transcript {
	return Transcript{text: strings.Join(strings.Fields(text), " ")}
}

// Segments returns a copy of the ordered segments.
func (t Transcript) Segments() []types.Segment {
	return append([]types.Segment(nil), t.segments...)
}

func (t Transcript) Text() string { return t.text }

func (t Transcript) HasTiming() bool { return len(t.segments) > 0 }

func (t Transcript) Empty() bool { return t.text == "" }

// WordCount counts whitespace delimited tokens across the transcript.
func (t Transcript) WordCount() int {
	return len(strings.Fields(t.text))
}

// Span is first start to last end in seconds, zero without timing.
func (t Transcript) Span() float64 {
	if len(t.segments) == 0 {
		return 0
	}
	return t.segments[len(t.segments)-1].End - t.segments[0].Start
}

// Pairs renders the timed transcript as ordered [start_seconds, text] pairs.
func (t Transcript) Pairs() [][2]any {
	out := make([][2]any, 0, len(t.segments))
	for _, s := range t.segments {
		if s.Text == "" {
			continue
		}
		out = append(out, [2]any{math.Round(s.Start*100) / 100, s.Text})
	}
	return out
}

// PromptText is the transcript as embedded in model prompts: a JSON list of
// [start_seconds, text] pairs when timing is known, plain text otherwise.
func (t Transcript) PromptText() string {
	if !t.HasTiming() {
		return t.text
	}
	b, err := json.MarshalIndent(t.Pairs(), "", "  ")
	if err != nil {
		return t.text
	}
	return string(b)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
