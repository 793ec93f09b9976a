package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const defaultGeminiURL = "https://generativelanguage.googleapis.com"

// Gemini calls the generateContent REST endpoint. Output is requested as JSON
// since every prompt in this service asks for JSON.
type Gemini struct {
	opts Options
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature      float64 `json:"temperature"`
		ResponseMimeType string  `json:"responseMimeType"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	var req geminiRequest
	req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: g.opts.System}}}
	req.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}
	req.GenerationConfig.Temperature = g.opts.Temperature
	req.GenerationConfig.ResponseMimeType = "application/json"

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(g.opts.URL, "/"), g.opts.Model)
	headers := map[string]string{"x-goog-api-key": g.opts.APIKey}

	body, err := postJSON(ctx, g.opts, ProviderGemini, url, headers, req)
	if err != nil {
		return "", err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &CallError{Provider: ProviderGemini, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(parsed.Candidates) == 0 {
		return "", &CallError{Provider: ProviderGemini, Err: errors.New("no candidates in response")}
	}
	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
