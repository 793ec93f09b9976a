package transcript

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"speech-coach-go/internal/types"
)

func TestNewBuildsText(t *testing.T) {
	tr, err := New([]types.Segment{
		{Text: "  Hello everyone. ", Start: 0, End: 1.5},
		{Text: "", Start: 1.5, End: 2},
		{Text: "Um, welcome to the talk.", Start: 2, End: 4},
	})
	if err != nil {
		t.Fatalf("new returned error: %v", err)
	}
	if tr.Text() != "Hello everyone. Um, welcome to the talk." {
		t.Fatalf("unexpected text %q", tr.Text())
	}
	if tr.WordCount() != 7 {
		t.Fatalf("unexpected word count %d", tr.WordCount())
	}
	if tr.Span() != 4 {
		t.Fatalf("unexpected span %v", tr.Span())
	}
	if !tr.HasTiming() {
		t.Fatal("expected timing")
	}
	if got := len(tr.Pairs()); got != 2 {
		t.Fatalf("expected empty segments to be skipped in pairs, got %d", got)
	}
}

func TestNewRejectsBadTiming(t *testing.T) {
	cases := map[string][]types.Segment{
		"start after end": {{Text: "a", Start: 3, End: 2}},
		"negative":        {{Text: "a", Start: -1, End: 2}},
		"out of order":    {{Text: "a", Start: 5, End: 6}, {Text: "b", Start: 4, End: 7}},
		"nan":             {{Text: "a", Start: math.NaN(), End: 1}},
	}
	for name, segs := range cases {
		_, err := New(segs)
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("%s: expected InputError, got %v", name, err)
		}
	}
}

func TestNewAllowsEqualStarts(t *testing.T) {
	if _, err := New([]types.Segment{{Text: "a", Start: 1, End: 1}, {Text: "b", Start: 1, End: 2}}); err != nil {
		t.Fatalf("expected equal starts to be accepted: %v", err)
	}
}

func TestPromptText(t *testing.T) {
	plain := FromText("  so   we begin  ")
	if plain.PromptText() != "so we begin" {
		t.Fatalf("unexpected plain prompt text %q", plain.PromptText())
	}

	timed, err := New([]types.Segment{{Text: "Hi.", Start: 0.004, End: 1}, {Text: "Bye.", Start: 62.5, End: 63}})
	if err != nil {
		t.Fatalf("new returned error: %v", err)
	}
	got := timed.PromptText()
	if !strings.Contains(got, `"Hi."`) || !strings.Contains(got, "62.5") {
		t.Fatalf("unexpected timed prompt text %s", got)
	}
}

func TestLoadJSONVariants(t *testing.T) {
	arr := `[{"text":"one two","start":0,"end":1},{"text":"three","start":1,"end":2}]`
	tr, err := Load(strings.NewReader(arr), FormatJSON)
	if err != nil {
		t.Fatalf("load array returned error: %v", err)
	}
	if tr.WordCount() != 3 || !tr.HasTiming() {
		t.Fatalf("unexpected transcript %#v", tr)
	}

	obj := `{"text":"just text here"}`
	tr, err = Load(strings.NewReader(obj), FormatJSON)
	if err != nil {
		t.Fatalf("load object returned error: %v", err)
	}
	if tr.HasTiming() || tr.Text() != "just text here" {
		t.Fatalf("unexpected transcript %#v", tr)
	}

	_, err = Load(strings.NewReader(`{"segments":[{"text":"x","start":2,"end":1}]}`), FormatJSON)
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}

	_, err = Load(strings.NewReader(`{}`), FormatJSON)
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError for empty document, got %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	doc := "segments:\n  - text: Good morning.\n    start: 0\n    end: 1.2\n  - text: Let's start.\n    start: 1.2\n    end: 2.4\n"
	tr, err := Load(strings.NewReader(doc), FormatYAML)
	if err != nil {
		t.Fatalf("load yaml returned error: %v", err)
	}
	if tr.Text() != "Good morning. Let's start." {
		t.Fatalf("unexpected text %q", tr.Text())
	}

	seq := "- text: hi\n  start: 0\n  end: 1\n"
	tr, err = Load(strings.NewReader(seq), FormatYAML)
	if err != nil {
		t.Fatalf("load yaml sequence returned error: %v", err)
	}
	if len(tr.Segments()) != 1 {
		t.Fatalf("expected one segment, got %d", len(tr.Segments()))
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talk.txt")
	if err := os.WriteFile(path, []byte("Plain words only."), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	tr, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file returned error: %v", err)
	}
	if tr.WordCount() != 3 {
		t.Fatalf("unexpected word count %d", tr.WordCount())
	}
	if FormatFor("a.YML") != FormatYAML || FormatFor("a.json") != FormatJSON || FormatFor("a") != FormatText {
		t.Fatal("unexpected format detection")
	}
}
