package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"
)

// postJSON sends payload with retry. 429 and 5xx are retried with exponential
// backoff until MaxRetryTime, other 4xx fail at once. Every attempt gets its
// own Timeout.
func postJSON(ctx context.Context, opts Options, provider, url string, headers map[string]string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", provider, err)
	}
	log := opts.Log.WithField("provider", provider)
	log.WithField("payload_len", len(data)).Debug("llm request")

	var body []byte
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return backoff.Permanent(&CallError{Provider: provider, Err: err})
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := opts.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(&CallError{Provider: provider, Err: ctx.Err()})
			}
			log.WithField("error", err.Error()).Warn("llm request failed")
			return &CallError{Provider: provider, Retryable: true, Err: err}
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return &CallError{Provider: provider, StatusCode: resp.StatusCode, Retryable: true, Err: err}
		}
		log.WithField("http_status", resp.StatusCode).Debug("llm raw:\n" + string(raw))

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			log.WithField("http_status", resp.StatusCode).Warn("llm retryable status")
			return &CallError{Provider: provider, StatusCode: resp.StatusCode, Retryable: true, Err: errors.New(snippet(raw))}
		case resp.StatusCode >= 400:
			return backoff.Permanent(&CallError{Provider: provider, StatusCode: resp.StatusCode, Err: errors.New(snippet(raw))})
		}
		body = raw
		return nil
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if opts.MaxRetryTime > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.MaxElapsedTime = opts.MaxRetryTime
		b = eb
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		var callErr *CallError
		if errors.As(err, &callErr) {
			return nil, callErr
		}
		return nil, &CallError{Provider: provider, Err: err}
	}
	return body, nil
}

func snippet(b []byte) string {
	const limit = 512
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
