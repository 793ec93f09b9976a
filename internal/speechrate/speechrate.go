// Package speechrate computes words per minute. It never fails: an empty
// transcript or a non-positive duration yields 0.
package speechrate

import (
	"fmt"
	"math"
	"strings"

	"speech-coach-go/internal/transcript"
)

// Source selects which duration the rate is measured against.
type Source string

const (
	// FromSegmentTiming uses last segment end minus first segment start.
	FromSegmentTiming Source = "segments"
	// FromRecordingDuration uses an externally measured recording duration.
	FromRecordingDuration Source = "duration"
)

func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "segments":
		return FromSegmentTiming, nil
	case "duration":
		return FromRecordingDuration, nil
	}
	return "", fmt.Errorf("unknown speech rate source %q", s)
}

// FromSegments measures the rate over the segment span.
func FromSegments(tr transcript.Transcript) float64 {
	if !tr.HasTiming() {
		return 0
	}
	return FromWordCount(tr.WordCount(), tr.Span())
}

// FromWordCount is words / duration * 60 rounded to two decimals.
func FromWordCount(words int, durationSec float64) float64 {
	if words <= 0 || durationSec <= 0 || math.IsNaN(durationSec) || math.IsInf(durationSec, 0) {
		return 0
	}
	return math.Round(float64(words)/durationSec*60*100) / 100
}

// Estimate applies the configured source. Duration mode with no usable hint
// yields 0 rather than silently switching to segment timing.
func Estimate(tr transcript.Transcript, source Source, durationHint float64) float64 {
	if source == FromRecordingDuration {
		return FromWordCount(tr.WordCount(), durationHint)
	}
	return FromSegments(tr)
}
