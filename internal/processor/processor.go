// Package processor runs every analysis of one rehearsal and merges the
// results. Sub-analyses are independent: one failing leaves the others intact
// and is reported under its feature key.
package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"speech-coach-go/internal/extractor"
	"speech-coach-go/internal/jsonrepair"
	"speech-coach-go/internal/llm"
	"speech-coach-go/internal/reconciler"
	"speech-coach-go/internal/speechrate"
	"speech-coach-go/internal/transcript"
	"speech-coach-go/internal/transcription"
	"speech-coach-go/internal/types"
)

// Error kinds recorded in AnalysisResult.Errors.
const (
	KindModelCall       = "model_call"
	KindMalformedOutput = "malformed_output"
	KindCancelled       = "cancelled"
	KindOther           = "error"
)

// DurationProber measures a local recording.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

type Request struct {
	Transcript transcript.Transcript
	Outline    string
	Script     string
	// DurationHint is the recording length in seconds, 0 when unknown.
	DurationHint float64
}

type Options struct {
	Extractor   *extractor.Extractor
	Reconciler  *reconciler.Reconciler
	Transcriber transcription.Transcriber
	Prober      DurationProber
	RateSource  speechrate.Source
	Log         *logrus.Entry
}

type Processor struct {
	extractor   *extractor.Extractor
	reconciler  *reconciler.Reconciler
	transcriber transcription.Transcriber
	prober      DurationProber
	rateSource  speechrate.Source
	log         *logrus.Entry
}

func New(opts Options) *Processor {
	if opts.RateSource == "" {
		opts.RateSource = speechrate.FromSegmentTiming
	}
	return &Processor{
		extractor:   opts.Extractor,
		reconciler:  opts.Reconciler,
		transcriber: opts.Transcriber,
		prober:      opts.Prober,
		rateSource:  opts.RateSource,
		log:         opts.Log,
	}
}

// Analyze computes the speech rate and filler report and, when an outline or
// script is given, reconciles it against the transcript. The error is non-nil
// only when ctx ends before the analyses finish.
func (p *Processor) Analyze(ctx context.Context, req Request) (types.AnalysisResult, error) {
	log := p.log.WithField("analysis_id", uuid.NewString())
	start := time.Now()

	res := types.AnalysisResult{
		SpeechRateWPM: speechrate.Estimate(req.Transcript, p.rateSource, req.DurationHint),
		FillerWords:   types.FillerReport{},
	}
	log.WithFields(logrus.Fields{
		"words":           req.Transcript.WordCount(),
		"speech_rate_wpm": res.SpeechRateWPM,
		"outline":         strings.TrimSpace(req.Outline) != "",
		"script":          strings.TrimSpace(req.Script) != "",
	}).Info("analysis started")

	// each goroutine owns one field of res or one error slot
	var fillerErr, outlineErr, scriptErr error
	var g errgroup.Group
	g.Go(func() error {
		phrases, err := p.extractor.Extract(ctx, req.Transcript.Text())
		res.FillerWords = extractor.Count(phrases)
		fillerErr = err
		return nil
	})
	if strings.TrimSpace(req.Outline) != "" {
		g.Go(func() error {
			res.ContentAnalysis, outlineErr = p.reconciler.Outline(ctx, req.Outline, req.Transcript)
			return nil
		})
	}
	if strings.TrimSpace(req.Script) != "" {
		g.Go(func() error {
			res.ScriptAnalysis, scriptErr = p.reconciler.Script(ctx, req.Script, req.Transcript)
			return nil
		})
	}
	_ = g.Wait()

	for feature, err := range map[string]error{
		types.FeatureFillerWords:     fillerErr,
		types.FeatureContentAnalysis: outlineErr,
		types.FeatureScriptAnalysis:  scriptErr,
	} {
		if err == nil {
			continue
		}
		if res.Errors == nil {
			res.Errors = map[string]string{}
		}
		kind := Classify(ctx, err)
		res.Errors[feature] = kind + ": " + err.Error()
		log.WithFields(logrus.Fields{"feature": feature, "kind": kind, "error": err.Error()}).Warn("sub-analysis failed")
	}

	log = log.WithField("duration_ms", time.Since(start).Milliseconds())
	if err := ctx.Err(); err != nil {
		log.WithField("error", err.Error()).Warn("analysis cancelled")
		return res, fmt.Errorf("analysis cancelled: %w", err)
	}
	log.WithField("failed_features", len(res.Errors)).Info("analysis finished")
	return res, nil
}

// Classify names the kind of a sub-analysis failure.
func Classify(ctx context.Context, err error) string {
	var malformed *jsonrepair.MalformedOutputError
	var callErr *llm.CallError
	switch {
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return KindCancelled
	case errors.As(err, &malformed):
		return KindMalformedOutput
	case errors.As(err, &callErr):
		return KindModelCall
	case errors.Is(err, context.Canceled):
		return KindCancelled
	}
	return KindOther
}
