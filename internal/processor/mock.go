package processor

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"speech-coach-go/internal/llm"
)

const mockOutlineReply = `{
  "pros": [
    {
      "outline_point": "Introduce the company's history",
      "timestamp": "00:04",
      "transcript_excerpt": "we founded our startup in 2010",
      "suggestion": "Add one anecdote for emotional impact."
    }
  ],
  "cons": [
    {
      "outline_point": "Explain the upcoming product roadmap",
      "timestamp": "missing",
      "issue": "This topic was not mentioned in the transcript.",
      "suggestion": "Add a section near the end to cover the roadmap."
    }
  ]
}`

const mockScriptReply = `{
  "omissions": [
    {
      "script_excerpt": "Today we'll discuss our company mission in depth.",
      "transcript_excerpt": null,
      "timestamp": "n/a",
      "note": "This line was not said during the delivery."
    }
  ],
  "additions": [
    {
      "script_excerpt": null,
      "transcript_excerpt": "thank you all for being here today",
      "timestamp": "00:00",
      "note": "The speaker added an opening greeting."
    }
  ],
  "paraphrases": []
}`

var mockFillerRe = regexp.MustCompile(`(?i)\b(um+|uh+|erm|you know|i mean)\b`)

// NewMockModel answers offline: fixed outline and script feedback, and
// filler prompts are answered by matching the usual hesitation sounds.
func NewMockModel() llm.Model {
	canned := &llm.Mock{
		Rules: []llm.Rule{
			{Match: "Content Outline:", Reply: mockOutlineReply},
			{Match: "Script:\n", Reply: mockScriptReply},
		},
		Default: `[{"filler_phrases": []}]`,
	}
	return llm.Func(func(ctx context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "filler_phrases") {
			return canned.Complete(ctx, prompt)
		}
		if err := ctx.Err(); err != nil {
			return "", &llm.CallError{Provider: "mock", Err: err}
		}
		chunk := prompt
		if i := strings.LastIndex(prompt, "Transcript:\n"); i >= 0 {
			chunk = prompt[i+len("Transcript:\n"):]
		}
		found := mockFillerRe.FindAllString(chunk, -1)
		if found == nil {
			found = []string{}
		}
		b, err := json.Marshal([]map[string][]string{{"filler_phrases": found}})
		if err != nil {
			return "", err
		}
		return string(b), nil
	})
}
