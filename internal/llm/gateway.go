package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Gateway talks to an OpenAI compatible chat completions endpoint. URL is the
// full endpoint, not a base.
type Gateway struct {
	opts Options
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model: g.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: g.opts.System},
			{Role: "user", Content: prompt},
		},
		Temperature: g.opts.Temperature,
	}
	headers := map[string]string{"Authorization": "Bearer " + g.opts.APIKey}

	body, err := postJSON(ctx, g.opts, ProviderOpenAI, g.opts.URL, headers, req)
	if err != nil {
		return "", err
	}

	// Some gateways answer with the bare completion instead of a choices
	// envelope; hand that back untouched and let the caller's decoder cope.
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		return strings.TrimSpace(string(body)), nil
	}
	return parsed.Choices[0].Message.Content, nil
}
