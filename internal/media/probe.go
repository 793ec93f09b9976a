// Package media reads recording metadata with ffprobe.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// probeOutput holds the part of ffprobe's JSON we read.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Prober runs ffprobe. Binary defaults to "ffprobe" on PATH.
type Prober struct {
	Binary string
}

// Duration returns the length of the recording at path in seconds.
func (p Prober) Duration(ctx context.Context, path string) (float64, error) {
	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	// ffprobe -v quiet -print_format json -show_format <input_file>
	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, stderr.String())
	}
	return ParseDuration(out.Bytes())
}

// ParseDuration reads format.duration from ffprobe JSON output.
func ParseDuration(raw []byte) (float64, error) {
	var po probeOutput
	if err := json.Unmarshal(raw, &po); err != nil {
		return 0, fmt.Errorf("error unmarshalling ffprobe output: %w", err)
	}
	if po.Format.Duration == "" {
		return 0, fmt.Errorf("could not retrieve duration from ffprobe output")
	}
	d, err := strconv.ParseFloat(po.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing duration string %q: %w", po.Format.Duration, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %v", d)
	}
	return d, nil
}
