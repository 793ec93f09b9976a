package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"speech-coach-go/internal/types"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// document is the object form accepted on disk and over HTTP. A bare segment
// array is accepted too.
type document struct {
	Text     string          `json:"text" yaml:"text"`
	Segments []types.Segment `json:"segments" yaml:"segments"`
}

// FromDocument prefers segments and falls back to text.
func FromDocument(text string, segments []types.Segment) (Transcript, error) {
	if len(segments) > 0 {
		return New(segments)
	}
	if strings.TrimSpace(text) == "" {
		return Transcript{}, &InputError{Index: -1, Reason: "no text or segments"}
	}
	return FromText(text), nil
}

// Load reads a transcript in the given format.
func Load(r io.Reader, format Format) (Transcript, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Transcript{}, fmt.Errorf("read transcript: %w", err)
	}

	switch format {
	case FormatText:
		return FromDocument(string(raw), nil)
	case FormatJSON:
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var segs []types.Segment
			if err := json.Unmarshal(trimmed, &segs); err != nil {
				return Transcript{}, &InputError{Index: -1, Reason: "decode segments: " + err.Error()}
			}
			return FromDocument("", segs)
		}
		var doc document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return Transcript{}, &InputError{Index: -1, Reason: "decode transcript: " + err.Error()}
		}
		return FromDocument(doc.Text, doc.Segments)
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return Transcript{}, &InputError{Index: -1, Reason: "decode yaml: " + err.Error()}
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			var segs []types.Segment
			if err := node.Content[0].Decode(&segs); err != nil {
				return Transcript{}, &InputError{Index: -1, Reason: "decode segments: " + err.Error()}
			}
			return FromDocument("", segs)
		}
		var doc document
		if err := node.Decode(&doc); err != nil {
			return Transcript{}, &InputError{Index: -1, Reason: "decode transcript: " + err.Error()}
		}
		return FromDocument(doc.Text, doc.Segments)
	}
	return Transcript{}, fmt.Errorf("unknown transcript format %q", format)
}

// LoadFile picks the format from the file extension; unknown extensions are
// read as plain text.
func LoadFile(path string) (Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	return Load(f, FormatFor(path))
}

func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatText
}
