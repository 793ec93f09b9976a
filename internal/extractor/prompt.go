package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)

// SplitSentences cuts text after sentence terminating punctuation. The
// punctuation stays with the sentence it ends; blank chunks are dropped.
func SplitSentences(text string) []string {
	var chunks []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			chunks = append(chunks, s)
		}
	}

	prev := 0
	for _, m := range sentenceEnd.FindAllStringIndex(text, -1) {
		punct := strings.TrimRightFunc(text[m[0]:m[1]], unicode.IsSpace)
		add(text[prev : m[0]+len(punct)])
		prev = m[1]
	}
	add(text[prev:])
	return chunks
}

// BuildFillerPrompt asks for the fillers of one chunk as a JSON array of
// objects holding a filler_phrases list.
func BuildFillerPrompt(chunk string) string {
	prompt := `You're given a portion of a spoken transcript. Identify only the **filler words and phrases** used in context (e.g. "um", "uh", "like", "you know", "I guess", "sort of").

A word is a filler only when it adds no meaning in this sentence. "like" in "it looks like rain" is NOT a filler; "like" in "it was, like, huge" is.

Return ONLY a JSON array of objects, each holding a "filler_phrases" list. List every occurrence, exactly as spoken:

[
  { "filler_phrases": ["um", "you know", "um"] }
]

If there are no fillers return [{ "filler_phrases": [] }].
DO NOT include commentary.
DO NOT wrap the JSON in backticks.

Transcript:
%s
`
	return fmt.Sprintf(prompt, chunk)
}
