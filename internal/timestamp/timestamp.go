// Package timestamp converts between second offsets and the display
// timestamps used in feedback records, and cleans up the timestamps a model
// writes back.
package timestamp

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

type Style string

const (
	MMSS   Style = "mm:ss"
	HHMMSS Style = "hh:mm:ss"
)

// Sentinels a model may use instead of a point in time.
const (
	Missing       = "missing"
	NotApplicable = "n/a"
)

// MaxSeconds is the largest offset a timestamp can express, 99:59:59.
const MaxSeconds = 99*3600 + 59*60 + 59

var (
	validRe = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)

	// First clock reading or standalone number inside free text.
	clockRe  = regexp.MustCompile(`(?:^|[^\d:.])(\d{1,2}(?::\d{2}){1,2}(?:\.\d+)?)(?:$|[^\d:])`)
	numberRe = regexp.MustCompile(`(?:^|[^\w.:])(\d+(?:\.\d+)?)s?(?:$|[^\w.:])`)
)

// ParseStyle accepts the configuration spellings of a style.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mm:ss", "mmss":
		return MMSS, nil
	case "hh:mm:ss", "hhmmss":
		return HHMMSS, nil
	}
	return "", fmt.Errorf("unknown timestamp format %q", s)
}

// Layout is the human readable pattern placed in prompts.
func (s Style) Layout() string {
	if s == HHMMSS {
		return "HH:MM:SS"
	}
	return "MM:SS"
}

// Valid reports whether ts is a single point in MM:SS or HH:MM:SS form.
func Valid(ts string) bool {
	return validRe.MatchString(ts)
}

// Format renders a second offset. Offsets clamp to [0, MaxSeconds]. MM:SS
// switches to HH:MM:SS once the minutes no longer fit in two digits.
func Format(seconds float64, style Style) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	if seconds > MaxSeconds {
		seconds = MaxSeconds
	}
	total := int(math.Floor(seconds))
	h, m, s := total/3600, (total/60)%60, total%60
	if style == HHMMSS || total/60 > 99 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", total/60, s)
}

// Parse reads SS, M:SS, MM:SS, H:MM:SS or plain numeric seconds. Offsets
// beyond MaxSeconds are rejected.
func Parse(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, errors.New("empty timestamp")
	}
	if !strings.Contains(text, ":") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(text, "s"), 64)
		if err != nil || v < 0 || v > MaxSeconds || math.IsNaN(v) {
			return 0, fmt.Errorf("invalid timestamp %q", text)
		}
		return v, nil
	}

	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", text)
	}
	total := 0.0
	for i, p := range parts {
		p = strings.TrimSpace(p)
		last := i == len(parts)-1
		var v float64
		var err error
		if last {
			v, err = strconv.ParseFloat(p, 64)
		} else {
			var n int
			n, err = strconv.Atoi(p)
			v = float64(n)
		}
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", text)
		}
		total = total*60 + v
	}
	if total > MaxSeconds {
		return 0, fmt.Errorf("timestamp %q out of range", text)
	}
	return total, nil
}

// Normalize rewrites a model supplied timestamp into style. Ranges and lists
// collapse to their first point. Sentinels come back lowercased, an empty
// value becomes "n/a", and anything unreadable is returned trimmed.
func Normalize(raw string, style Style) string {
	ts := strings.Trim(strings.TrimSpace(raw), "\"'`“”‘’[]()")
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return NotApplicable
	}
	switch lower := strings.ToLower(ts); lower {
	case Missing, NotApplicable, "na", "none", "null":
		if lower == Missing {
			return Missing
		}
		return NotApplicable
	}

	if secs, err := Parse(ts); err == nil {
		return Format(secs, style)
	}
	point := firstPoint(ts)
	if point == "" {
		return strings.TrimSpace(raw)
	}
	secs, err := Parse(point)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return Format(secs, style)
}

// firstPoint pulls the first clock reading out of ranges, lists and prose
// such as "around 2:15" or "00:45 and 01:10", falling back to the first
// standalone number.
func firstPoint(ts string) string {
	if m := clockRe.FindStringSubmatch(ts); m != nil {
		return m[1]
	}
	if m := numberRe.FindStringSubmatch(ts); m != nil {
		return m[1]
	}
	return ""
}
