package llm

import (
	"context"
	"strings"
)

// Rule answers every prompt containing Match with Reply.
type Rule struct {
	Match string
	Reply string
}

// Mock is a deterministic offline model. The first matching rule wins;
// prompts no rule matches get Default.
type Mock struct {
	Rules   []Rule
	Default string
}

func (m *Mock) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &CallError{Provider: "mock", Err: err}
	}
	for _, r := range m.Rules {
		if strings.Contains(prompt, r.Match) {
			return r.Reply, nil
		}
	}
	return m.Default, nil
}
