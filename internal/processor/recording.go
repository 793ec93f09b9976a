package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"speech-coach-go/internal/types"
)

// RecordingResult is returned by /process.
type RecordingResult struct {
	RecordingURL string                `json:"recording_url"`
	Transcript   string                `json:"transcript"`
	Segments     []types.Segment       `json:"segments,omitempty"`
	DurationSec  float64               `json:"duration_sec,omitempty"`
	Analysis     *types.AnalysisResult `json:"analysis,omitempty"`
	DurationMs   int64                 `json:"duration_ms"`
	Error        string                `json:"error,omitempty"`
}

// ProcessRecording transcribes a recording and analyzes the transcript. When
// durationHint is 0 and the recording is a local file, its length is probed.
func (p *Processor) ProcessRecording(ctx context.Context, recordingURL, outline, script string, durationHint float64) (RecordingResult, error) {
	log := p.log.WithField("recording_url", recordingURL)
	start := time.Now()
	res := RecordingResult{RecordingURL: recordingURL}

	if p.transcriber == nil {
		err := errors.New("no transcriber configured")
		res.Error = err.Error()
		return res, err
	}

	if durationHint <= 0 && p.prober != nil && isLocal(recordingURL) {
		d, err := p.prober.Duration(ctx, strings.TrimPrefix(recordingURL, "file://"))
		if err != nil {
			log.WithField("error", err.Error()).Warn("could not probe recording duration")
		} else {
			durationHint = d
		}
	}
	res.DurationSec = durationHint

	tr, err := p.transcriber.Transcribe(ctx, recordingURL)
	if err != nil {
		res.Error = fmt.Sprintf("transcription error: %v", err)
		res.DurationMs = time.Since(start).Milliseconds()
		return res, err
	}
	res.Transcript = tr.Text()
	res.Segments = tr.Segments()
	log.WithField("words", tr.WordCount()).Info("transcript ready")

	analysis, err := p.Analyze(ctx, Request{Transcript: tr, Outline: outline, Script: script, DurationHint: durationHint})
	res.Analysis = &analysis
	res.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	return res, nil
}

func isLocal(u string) bool {
	l := strings.ToLower(u)
	return !strings.HasPrefix(l, "http://") && !strings.HasPrefix(l, "https://")
}
