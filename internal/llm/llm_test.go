package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"speech-coach-go/internal/logger"
)

func testOptions(url string) Options {
	return Options{
		Provider:     ProviderOpenAI,
		URL:          url,
		APIKey:       "test-key",
		Model:        "test-model",
		Timeout:      2 * time.Second,
		MaxRetryTime: 5 * time.Second,
		Log:          logger.Discard().Component("llm"),
	}
}

func TestGatewayComplete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %q", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 2 || req.Messages[1].Content != "hello" {
			t.Errorf("unexpected request %#v", req)
		}
		if req.Messages[0].Role != "system" {
			t.Errorf("expected system message first, got %q", req.Messages[0].Role)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[{\"filler_phrases\":[]}]"}}]}`))
	}))
	defer server.Close()

	model, err := New(testOptions(server.URL))
	if err != nil {
		t.Fatalf("new returned error: %v", err)
	}
	out, err := model.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("complete returned error: %v", err)
	}
	if out != `[{"filler_phrases":[]}]` {
		t.Fatalf("unexpected completion %q", out)
	}
}

func TestGatewayBareBodyFallback(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`  {"pros":[],"cons":[]}  `))
	}))
	defer server.Close()

	model, _ := New(testOptions(server.URL))
	out, err := model.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("complete returned error: %v", err)
	}
	if out != `{"pros":[],"cons":[]}` {
		t.Fatalf("unexpected completion %q", out)
	}
}

func TestGatewayClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	model, _ := New(testOptions(server.URL))
	_, err := model.Complete(context.Background(), "hi")

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected CallError, got %v", err)
	}
	if callErr.StatusCode != http.StatusUnauthorized || callErr.Retryable {
		t.Fatalf("unexpected call error %#v", callErr)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly one attempt, got %d", n)
	}
}

func TestGatewayRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "overloaded", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	model, _ := New(testOptions(server.URL))
	out, err := model.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("complete returned error: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected completion %q", out)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected two attempts, got %d", n)
	}
}

func TestGatewayTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	opts := testOptions(server.URL)
	opts.Timeout = 50 * time.Millisecond
	opts.MaxRetryTime = 0
	model, _ := New(opts)

	_, err := model.Complete(context.Background(), "hi")
	var callErr *CallError
	if !errors.As(err, &callErr) || !callErr.Retryable {
		t.Fatalf("expected retryable CallError, got %v", err)
	}
}

func TestGatewayCancelledContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model, _ := New(testOptions(server.URL))
	_, err := model.Complete(ctx, "hi")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGeminiComplete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.0-flash:generateContent" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("unexpected api key header %q", got)
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("unexpected mime type %q", req.GenerationConfig.ResponseMimeType)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"pros\":"},{"text":"[],\"cons\":[]}"}]}}]}`))
	}))
	defer server.Close()

	opts := testOptions(server.URL)
	opts.Provider = ProviderGemini
	opts.Model = "gemini-2.0-flash"
	model, err := New(opts)
	if err != nil {
		t.Fatalf("new returned error: %v", err)
	}
	out, err := model.Complete(context.Background(), "compare")
	if err != nil {
		t.Fatalf("complete returned error: %v", err)
	}
	if out != `{"pros":[],"cons":[]}` {
		t.Fatalf("unexpected completion %q", out)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{Provider: ProviderOpenAI}); err == nil {
		t.Fatal("expected missing gateway config to fail")
	}
	if _, err := New(Options{Provider: ProviderGemini, APIKey: "k"}); err == nil {
		t.Fatal("expected missing gemini model to fail")
	}
	if _, err := New(Options{Provider: "watson", URL: "x", APIKey: "k"}); err == nil {
		t.Fatal("expected unknown provider to fail")
	}
}

func TestMockRules(t *testing.T) {
	m := &Mock{
		Rules:   []Rule{{Match: "filler_phrases", Reply: "[]"}, {Match: "pros", Reply: "{}"}},
		Default: "nothing",
	}
	if out, _ := m.Complete(context.Background(), "list filler_phrases"); out != "[]" {
		t.Fatalf("unexpected reply %q", out)
	}
	if out, _ := m.Complete(context.Background(), "other"); out != "nothing" {
		t.Fatalf("unexpected default %q", out)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Complete(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestRateLimited(t *testing.T) {
	if !RateLimited(&CallError{StatusCode: http.StatusTooManyRequests}) {
		t.Fatal("expected 429 to be rate limited")
	}
	if RateLimited(&CallError{StatusCode: http.StatusBadGateway}) || RateLimited(errors.New("x")) {
		t.Fatal("unexpected rate limited result")
	}
}
