// Package reconciler compares what a speaker planned (an outline or a full
// script) with what they delivered, using one model call per artifact.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"speech-coach-go/internal/jsonrepair"
	"speech-coach-go/internal/llm"
	"speech-coach-go/internal/timestamp"
	"speech-coach-go/internal/transcript"
	"speech-coach-go/internal/types"
)

type Reconciler struct {
	model llm.Model
	style timestamp.Style
	log   *logrus.Entry
}

func New(model llm.Model, style timestamp.Style, log *logrus.Entry) *Reconciler {
	if style == "" {
		style = timestamp.MMSS
	}
	return &Reconciler{model: model, style: style, log: log}
}

// Outline classifies every outline point as covered (pro) or missing/weak
// (con). A failed call or an answer that cannot be decoded is returned as an
// error; there is no partial result.
func (r *Reconciler) Outline(ctx context.Context, outline string, tr transcript.Transcript) (*types.OutlineAnalysis, error) {
	raw, err := r.model.Complete(ctx, BuildOutlinePrompt(outline, tr, r.style))
	if err != nil {
		return nil, fmt.Errorf("outline reconciliation: %w", err)
	}

	var wire struct {
		Pros []struct {
			OutlinePoint      loose `json:"outline_point"`
			Timestamp         loose `json:"timestamp"`
			TranscriptExcerpt loose `json:"transcript_excerpt"`
			Suggestion        loose `json:"suggestion"`
		} `json:"pros"`
		Cons []struct {
			OutlinePoint loose `json:"outline_point"`
			Timestamp    loose `json:"timestamp"`
			Issue        loose `json:"issue"`
			Suggestion   loose `json:"suggestion"`
		} `json:"cons"`
	}
	if err := jsonrepair.Decode(raw, &wire); err != nil {
		return nil, fmt.Errorf("outline reconciliation: %w", err)
	}

	out := &types.OutlineAnalysis{
		Pros: make([]types.Pro, 0, len(wire.Pros)),
		Cons: make([]types.Con, 0, len(wire.Cons)),
	}
	for _, p := range wire.Pros {
		out.Pros = append(out.Pros, types.Pro{
			OutlinePoint:      strings.TrimSpace(p.OutlinePoint.text),
			Timestamp:         timestamp.Normalize(p.Timestamp.text, r.style),
			TranscriptExcerpt: p.TranscriptExcerpt.text,
			Suggestion:        p.Suggestion.text,
		})
	}
	for _, c := range wire.Cons {
		out.Cons = append(out.Cons, types.Con{
			OutlinePoint: strings.TrimSpace(c.OutlinePoint.text),
			Timestamp:    timestamp.Normalize(c.Timestamp.text, r.style),
			Issue:        c.Issue.text,
			Suggestion:   c.Suggestion.text,
		})
	}

	r.log.WithFields(logrus.Fields{"pros": len(out.Pros), "cons": len(out.Cons)}).Debug("outline reconciled")
	return out, nil
}

type wireDiff struct {
	ScriptExcerpt     loose `json:"script_excerpt"`
	TranscriptExcerpt loose `json:"transcript_excerpt"`
	Timestamp         loose `json:"timestamp"`
	Note              loose `json:"note"`
}

// Script diffs the planned script against the delivery. Each record carries
// the kind of the array it was found in.
func (r *Reconciler) Script(ctx context.Context, script string, tr transcript.Transcript) (*types.ScriptAnalysis, error) {
	raw, err := r.model.Complete(ctx, BuildScriptPrompt(script, tr, r.style))
	if err != nil {
		return nil, fmt.Errorf("script reconciliation: %w", err)
	}

	var wire struct {
		Omissions   []wireDiff `json:"omissions"`
		Additions   []wireDiff `json:"additions"`
		Paraphrases []wireDiff `json:"paraphrases"`
	}
	if err := jsonrepair.Decode(raw, &wire); err != nil {
		return nil, fmt.Errorf("script reconciliation: %w", err)
	}

	out := &types.ScriptAnalysis{
		Omissions:   r.diffs(types.Omission, wire.Omissions),
		Additions:   r.diffs(types.Addition, wire.Additions),
		Paraphrases: r.diffs(types.Paraphrase, wire.Paraphrases),
	}

	r.log.WithFields(logrus.Fields{
		"omissions":   len(out.Omissions),
		"additions":   len(out.Additions),
		"paraphrases": len(out.Paraphrases),
	}).Debug("script reconciled")
	return out, nil
}

func (r *Reconciler) diffs(kind types.DiffKind, in []wireDiff) []types.ScriptDiff {
	out := make([]types.ScriptDiff, 0, len(in))
	for _, d := range in {
		out = append(out, types.ScriptDiff{
			Kind:              kind,
			ScriptExcerpt:     d.ScriptExcerpt.ptr(),
			TranscriptExcerpt: d.TranscriptExcerpt.ptr(),
			Timestamp:         timestamp.Normalize(d.Timestamp.text, r.style),
			Note:              d.Note.text,
		})
	}
	return out
}

// loose is a string field as a model writes it: usually a string, sometimes
// null, a bare number or a list.
type loose struct {
	text  string
	valid bool
}

func (l *loose) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*l = loose{}
	case string:
		*l = loose{text: t, valid: true}
	case float64:
		*l = loose{text: strconv.FormatFloat(t, 'f', -1, 64), valid: true}
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
		*l = loose{text: strings.Join(parts, ", "), valid: true}
	default:
		*l = loose{text: fmt.Sprint(t), valid: true}
	}
	return nil
}

// ptr keeps the null/non-null distinction of excerpt fields.
func (l loose) ptr() *string {
	if !l.valid {
		return nil
	}
	s := l.text
	return &s
}
