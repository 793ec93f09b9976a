// Package transcription talks to the speech-to-text service: a recording is
// published, its status polled, and the finished transcript downloaded.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"speech-coach-go/internal/transcript"
)

// Transcriber turns a recording into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, recordingURL string) (transcript.Transcript, error)
}

type PublishSuccessResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		MediaId          string `json:"MediaId"`
		Status           string `json:"Status"`
		TranscriptionURL string `json:"TranscriptionURL"`
		WordsCount       int    `json:"WordsCount"`
	} `json:"Data"`
	Reason   string `json:"Reason,omitempty"`
	UniqueId string `json:"UniqueId,omitempty"`
}

type StatusResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		RecordingURL         string `json:"RecordingURL"`
		Status               string `json:"Status"`
		TranscriptionTextURL string `json:"TranscriptionTextURL"`
		WordsCount           int    `json:"WordsCount"`
	} `json:"Data"`
	Reason   string `json:"Reason,omitempty"`
	UniqueId string `json:"UniqueId,omitempty"`
}

type Client struct {
	Host         string
	HTTP         *http.Client
	PollInterval time.Duration
	MaxPolls     int
	Log          *logrus.Entry
}

func NewClient(host string, log *logrus.Entry) *Client {
	return &Client{
		Host:         strings.TrimRight(host, "/"),
		HTTP:         &http.Client{Timeout: 12 * time.Second},
		PollInterval: 1500 * time.Millisecond,
		MaxPolls:     40,
		Log:          log,
	}
}

// Transcribe publishes the recording and waits for its transcript. The
// service answers with the segment JSON when it has timing, plain text
// otherwise.
func (c *Client) Transcribe(ctx context.Context, recordingURL string) (transcript.Transcript, error) {
	if c.Host == "" {
		return transcript.Transcript{}, errors.New("TRANSCRIBE_URL not set")
	}
	log := c.Log.WithField("recording_url", recordingURL)

	mediaID, existingURL, err := c.publish(ctx, recordingURL)
	if err != nil {
		return transcript.Transcript{}, err
	}
	finalURL := existingURL
	if finalURL == "" {
		log.WithField("media_id", mediaID).Info("transcription queued")
		if finalURL, err = c.poll(ctx, mediaID); err != nil {
			return transcript.Transcript{}, err
		}
	}
	log.WithField("final_url", finalURL).Info("download final transcript")

	body, err := c.download(ctx, finalURL)
	if err != nil {
		return transcript.Transcript{}, err
	}
	format := transcript.FormatText
	if t := bytes.TrimSpace(body); len(t) > 0 && (t[0] == '[' || t[0] == '{') {
		format = transcript.FormatJSON
	}
	return transcript.Load(bytes.NewReader(body), format)
}

func (c *Client) publish(ctx context.Context, recordingURL string) (string, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	_ = w.WriteField("recordingLink", recordingURL)
	_ = w.WriteField("segments", "true")
	_ = w.Close()
	form, contentType := b.Bytes(), w.FormDataContentType()

	newReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+"/transcribe", bytes.NewReader(form))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	}
	var resp PublishSuccessResponse
	if err := c.doJSON(ctx, newReq, &resp); err != nil {
		return "", "", err
	}
	if resp.Code != 200 {
		return "", "", fmt.Errorf("transcribe publish error: code=%d reason=%s", resp.Code, resp.Reason)
	}
	if resp.Data.TranscriptionURL != "" && strings.EqualFold(resp.Data.Status, "success") {
		return "", resp.Data.TranscriptionURL, nil
	}
	if resp.Data.MediaId == "" {
		return "", "", errors.New("transcribe publish returned no media id")
	}
	return resp.Data.MediaId, "", nil
}

func (c *Client) poll(ctx context.Context, mediaID string) (string, error) {
	u, err := url.Parse(c.Host + "/getstatus")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("mediaId", mediaID)
	u.RawQuery = q.Encode()
	newReq := func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	}

	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()
	for i := 0; i < c.MaxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		var s StatusResponse
		if err := c.doJSON(ctx, newReq, &s); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.Log.WithField("media_id", mediaID).WithField("error", err.Error()).Debug("status check failed")
			continue
		}
		switch s.Data.Status {
		case "Success":
			return s.Data.TranscriptionTextURL, nil
		case "Queued", "Processing":
			continue
		case "Failed":
			return "", fmt.Errorf("transcription failed: %s", s.Reason)
		}
	}
	return "", fmt.Errorf("transcription timeout")
}

func (c *Client) download(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download failed: %s", string(b))
	}
	return b, nil
}

func (c *Client) doJSON(ctx context.Context, newReq func() (*http.Request, error), target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 12 * time.Second
	var lastErr error
	op := func() error {
		req, err := newReq()
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", string(body))
			return lastErr
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("empty body")
			return lastErr
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return lastErr
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			return err
		}
		return lastErr
	}
	return nil
}
