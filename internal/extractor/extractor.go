// Package extractor finds filler words by asking a language model about each
// sentence of a transcript, so that context decides what counts as filler.
package extractor

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"speech-coach-go/internal/jsonrepair"
	"speech-coach-go/internal/llm"
	"speech-coach-go/internal/types"
)

// Policy schedules the per-chunk model calls. Concurrency 1 runs chunks one
// after another. RequestsPerSecond 0 disables throttling.
type Policy struct {
	Concurrency       int
	RequestsPerSecond float64
	Burst             int
}

func DefaultPolicy() Policy {
	return Policy{Concurrency: 1, RequestsPerSecond: 2, Burst: 1}
}

type Extractor struct {
	model   llm.Model
	policy  Policy
	limiter *rate.Limiter
	log     *logrus.Entry
}

// New shares one limiter across every extraction made with the returned
// Extractor, so concurrent requests draw from the same budget.
func New(model llm.Model, policy Policy, log *logrus.Entry) *Extractor {
	if policy.Concurrency < 1 {
		policy.Concurrency = 1
	}
	e := &Extractor{model: model, policy: policy, log: log}
	if policy.RequestsPerSecond > 0 {
		burst := policy.Burst
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(policy.RequestsPerSecond), burst)
	}
	return e
}

// Extract returns the filler phrases of text in chunk order, case as the model
// returned them. A chunk whose call fails or whose answer cannot be decoded
// contributes nothing. If ctx ends early the phrases of the chunks that did
// finish are returned along with ctx.Err().
func (e *Extractor) Extract(ctx context.Context, text string) ([]string, error) {
	chunks := SplitSentences(text)
	e.log.WithField("chunks", len(chunks)).Debug("extracting filler words")

	results := make([][]string, len(chunks))
	var g errgroup.Group
	g.SetLimit(e.policy.Concurrency)
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			break
		}
		i, chunk := i, chunk
		g.Go(func() error {
			results[i] = e.extractChunk(ctx, i, chunk)
			return nil
		})
	}
	_ = g.Wait()

	phrases := []string{}
	for _, r := range results {
		phrases = append(phrases, r...)
	}
	if err := ctx.Err(); err != nil {
		return phrases, err
	}
	return phrases, nil
}

func (e *Extractor) extractChunk(ctx context.Context, index int, chunk string) []string {
	log := e.log.WithField("chunk", index)

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			log.WithField("error", err.Error()).Debug("chunk abandoned before its turn")
			return nil
		}
	}

	raw, err := e.model.Complete(ctx, BuildFillerPrompt(chunk))
	if err != nil {
		log.WithFields(logrus.Fields{
			"error":        err.Error(),
			"rate_limited": llm.RateLimited(err),
		}).Warn("filler chunk skipped: model call failed")
		return nil
	}

	phrases, err := ParseFillerResponse(raw)
	if err != nil {
		log.WithField("error", err.Error()).Warn("filler chunk skipped: malformed model output")
		return nil
	}
	return phrases
}

// ParseFillerResponse reads the model answer for one chunk. Besides the
// requested array of {"filler_phrases": [...]} objects it tolerates a single
// such object, a bare string array and {"word": ...} entries.
func ParseFillerResponse(raw string) ([]string, error) {
	var v any
	if err := jsonrepair.Decode(raw, &v); err != nil {
		return nil, err
	}

	var out []string
	collect := func(x any) {
		switch t := x.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
		}
	}
	fromObject := func(m map[string]any) {
		collect(m["filler_phrases"])
		collect(m["word"])
	}

	switch t := v.(type) {
	case []any:
		for _, item := range t {
			switch e := item.(type) {
			case map[string]any:
				fromObject(e)
			case string:
				collect(e)
			}
		}
	case map[string]any:
		fromObject(t)
	default:
		return nil, &jsonrepair.MalformedOutputError{Raw: raw, Err: errors.New("expected a JSON array or object")}
	}
	return out, nil
}

// Count folds phrases into a report keyed by the lowercased phrase.
func Count(phrases []string) types.FillerReport {
	report := types.FillerReport{}
	for _, p := range phrases {
		key := strings.ToLower(strings.TrimSpace(p))
		if key == "" {
			continue
		}
		report[key]++
	}
	return report
}
