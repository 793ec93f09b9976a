// Package dataset reads rehearsal batches from spreadsheets and writes the
// analysis report back out.
package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"speech-coach-go/internal/transcript"
)

// Rehearsal is one spreadsheet row. Transcript holds either plain text or
// the segment JSON; RecordingURL is used when Transcript is empty.
type Rehearsal struct {
	ID           string  `json:"id"`
	RecordingURL string  `json:"recording_url,omitempty"`
	Transcript   string  `json:"transcript,omitempty"`
	Outline      string  `json:"outline,omitempty"`
	Script       string  `json:"script,omitempty"`
	DurationSec  float64 `json:"duration_sec,omitempty"`
}

// ParseTranscript decodes the Transcript cell.
func (r Rehearsal) ParseTranscript() (transcript.Transcript, error) {
	format := transcript.FormatText
	if t := strings.TrimSpace(r.Transcript); strings.HasPrefix(t, "[") || strings.HasPrefix(t, "{") {
		format = transcript.FormatJSON
	}
	return transcript.Load(strings.NewReader(r.Transcript), format)
}

type columns struct {
	id, recording, transcript, outline, script, duration int
}

// detectColumns maps header cells to fields by name.
func detectColumns(header []string) columns {
	c := columns{-1, -1, -1, -1, -1, -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "transcript") || l == "text":
			if c.transcript == -1 {
				c.transcript = i
			}
		case strings.Contains(l, "outline") || strings.Contains(l, "bullet"):
			if c.outline == -1 {
				c.outline = i
			}
		case strings.Contains(l, "script") || strings.Contains(l, "speech text"):
			if c.script == -1 {
				c.script = i
			}
		case strings.Contains(l, "duration") || strings.Contains(l, "length") || strings.Contains(l, "seconds"):
			if c.duration == -1 {
				c.duration = i
			}
		case strings.Contains(l, "video") || strings.Contains(l, "audio") || strings.Contains(l, "record") || strings.Contains(l, "url") || strings.Contains(l, "link"):
			if c.recording == -1 {
				c.recording = i
			}
		case l == "id" || strings.Contains(l, "rehearsal") || strings.HasSuffix(l, " id"):
			if c.id == -1 {
				c.id = i
			}
		}
	}
	return c
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Load reads the first sheet of path. Columns are found by header name; rows
// with neither a transcript nor a recording link are skipped.
func Load(path string, log *logrus.Entry) ([]Rehearsal, error) {
	log = log.WithField("path", path)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	cols := detectColumns(rows[0])
	log.WithFields(logrus.Fields{
		"transcriptIdx": cols.transcript,
		"recordingIdx":  cols.recording,
		"outlineIdx":    cols.outline,
		"scriptIdx":     cols.script,
		"durationIdx":   cols.duration,
	}).Info("detected column indices")
	if cols.transcript == -1 && cols.recording == -1 {
		return nil, fmt.Errorf("no transcript or recording column in header %v", rows[0])
	}

	var out []Rehearsal
	skipped := 0
	for i, r := range rows[1:] {
		rec := Rehearsal{
			ID:           cell(r, cols.id),
			RecordingURL: cell(r, cols.recording),
			Transcript:   cell(r, cols.transcript),
			Outline:      cell(r, cols.outline),
			Script:       cell(r, cols.script),
		}
		if rec.ID == "" {
			rec.ID = strconv.Itoa(i + 1)
		}
		if d := cell(r, cols.duration); d != "" {
			rec.DurationSec, _ = strconv.ParseFloat(d, 64)
		}
		if rec.Transcript == "" && rec.RecordingURL == "" {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	log.WithFields(logrus.Fields{"rehearsals": len(out), "skipped": skipped}).Info("dataset loaded")
	return out, nil
}
