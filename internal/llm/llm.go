// Package llm is the language-model capability the analysis steps depend on:
// a prompt goes in, a completion comes out. Callers get an interface so each
// request can carry its own client and tests can swap in fakes.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"speech-coach-go/internal/logger"
)

type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Model.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// CallError is a failed model call: transport error, timeout or non-2xx.
type CallError struct {
	Provider   string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s call failed (http %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s call failed: %v", e.Provider, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// RateLimited reports whether err is a 429 from the provider.
func RateLimited(err error) bool {
	var callErr *CallError
	return errors.As(err, &callErr) && callErr.StatusCode == http.StatusTooManyRequests
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	defaultSystemPrompt = "You are a helpful assistant that analyzes spoken transcripts."
)

type Options struct {
	Provider     string
	URL          string
	APIKey       string
	Model        string
	System       string
	Temperature  float64
	Timeout      time.Duration
	MaxRetryTime time.Duration
	HTTPClient   *http.Client
	Log          *logrus.Entry
}

// New builds the configured provider client.
func New(opts Options) (Model, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 25 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Log == nil {
		opts.Log = logger.New().Component("llm")
	}
	if opts.System == "" {
		opts.System = defaultSystemPrompt
	}

	switch strings.ToLower(opts.Provider) {
	case "", ProviderOpenAI:
		if opts.URL == "" || opts.APIKey == "" {
			return nil, errors.New("llm gateway not configured")
		}
		return &Gateway{opts: opts}, nil
	case ProviderGemini:
		if opts.APIKey == "" || opts.Model == "" {
			return nil, errors.New("gemini not configured")
		}
		if opts.URL == "" {
			opts.URL = defaultGeminiURL
		}
		return &Gemini{opts: opts}, nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
}
