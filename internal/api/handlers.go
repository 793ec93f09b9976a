// Package api exposes the analysis over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"speech-coach-go/internal/actionable"
	"speech-coach-go/internal/aggregator"
	"speech-coach-go/internal/dataset"
	"speech-coach-go/internal/logger"
	"speech-coach-go/internal/processor"
	"speech-coach-go/internal/transcript"
	"speech-coach-go/internal/types"
)

const maxBody = 5 << 20

var validate = validator.New()

// AnalyzeRequest is the body of POST /analyze. Either Transcript or Segments
// must be set; Segments win when both are.
type AnalyzeRequest struct {
	Transcript  string          `json:"transcript" validate:"required_without=Segments"`
	Segments    []types.Segment `json:"segments" validate:"required_without=Transcript"`
	Outline     string          `json:"outline" validate:"max=20000"`
	Script      string          `json:"script" validate:"max=100000"`
	DurationSec float64         `json:"duration_sec" validate:"gte=0"`
}

// ProcessRequest is the body of POST /process.
type ProcessRequest struct {
	RecordingURL string  `json:"recording_url" validate:"required"`
	Outline      string  `json:"outline" validate:"max=20000"`
	Script       string  `json:"script" validate:"max=100000"`
	DurationSec  float64 `json:"duration_sec" validate:"gte=0"`
	TimeoutSec   int     `json:"timeout_sec" validate:"gte=0,lte=120"`
}

type AnalyzeResponse struct {
	types.AnalysisResult
	Actions []actionable.ActionCard `json:"actions"`
}

type Handler struct {
	Processor   *processor.Processor
	Log         *logger.Logger
	DatasetPath string
	// DefaultTimeout bounds one analysis when the request does not set one.
	DefaultTimeout time.Duration
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("POST /analyze", h.analyze)
	mux.HandleFunc("POST /process", h.process)
	mux.HandleFunc("GET /demo", h.demo)
	return mux
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.Log.WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	reqLog := h.Log.WithRequest(r).WithField("handler", "analyze")
	reqLog.Info("analyze request received")

	var req AnalyzeRequest
	if msg, ok := decode(w, r, &req); !ok {
		reqLog.WithField("reason", msg).Warn("invalid request")
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var tr transcript.Transcript
	var err error
	if len(req.Segments) > 0 {
		tr, err = transcript.New(req.Segments)
	} else {
		tr = transcript.FromText(req.Transcript)
	}
	if err != nil {
		reqLog.WithError(err).Warn("invalid transcript")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r.Context(), 0)
	defer cancel()

	start := time.Now()
	res, err := h.Processor.Analyze(ctx, processor.Request{
		Transcript:   tr,
		Outline:      req.Outline,
		Script:       req.Script,
		DurationHint: req.DurationSec,
	})
	reqLog = reqLog.WithField("duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		reqLog.WithError(err).Warn("analysis did not finish")
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	reqLog.WithField("failed_features", len(res.Errors)).Info("analysis finished")

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		AnalysisResult: res,
		Actions:        actionable.Generate(aggregator.Aggregate([]types.AnalysisResult{res})),
	})
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	reqLog := h.Log.WithRequest(r).WithField("handler", "process")
	reqLog.Info("process request received")

	var req ProcessRequest
	if msg, ok := decode(w, r, &req); !ok {
		reqLog.WithField("reason", msg).Warn("invalid request")
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	reqLog = reqLog.WithField("recording_url", req.RecordingURL).WithField("timeout_sec", req.TimeoutSec)

	ctx, cancel := h.withTimeout(r.Context(), time.Duration(req.TimeoutSec)*time.Second)
	defer cancel()

	start := time.Now()
	res, err := h.Processor.ProcessRecording(ctx, req.RecordingURL, req.Outline, req.Script, req.DurationSec)
	reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).Info("processor finished")
	status := http.StatusOK
	if err != nil {
		reqLog.WithError(err).Warn("processor returned error")
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}

type demoItem struct {
	ID        string                     `json:"id"`
	Result    *types.AnalysisResult      `json:"result,omitempty"`
	Recording *processor.RecordingResult `json:"recording,omitempty"`
	Error     string                     `json:"error,omitempty"`
}

// demo analyzes the first rows of the configured dataset.
func (h *Handler) demo(w http.ResponseWriter, r *http.Request) {
	reqLog := h.Log.WithRequest(r).WithField("handler", "demo")
	reqLog.Info("demo invoked")

	limit := 5
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := dataset.Load(h.DatasetPath, h.Log.Component("dataset"))
	if err != nil {
		reqLog.WithError(err).Error("dataset load error")
		writeError(w, http.StatusInternalServerError, "dataset load error")
		return
	}
	if len(records) < limit {
		limit = len(records)
	}

	out := make([]demoItem, 0, limit)
	for _, rec := range records[:limit] {
		if r.Context().Err() != nil {
			reqLog.Warn("demo abandoned by client")
			return
		}
		reqLog.WithField("demo_rehearsal", rec.ID).Info("processing demo rehearsal")
		item := demoItem{ID: rec.ID}

		ctx, cancel := h.withTimeout(r.Context(), 0)
		if strings.TrimSpace(rec.Transcript) != "" {
			tr, err := rec.ParseTranscript()
			if err != nil {
				item.Error = err.Error()
			} else {
				res, err := h.Processor.Analyze(ctx, processor.Request{Transcript: tr, Outline: rec.Outline, Script: rec.Script, DurationHint: rec.DurationSec})
				item.Result = &res
				if err != nil {
					item.Error = err.Error()
				}
			}
		} else {
			res, err := h.Processor.ProcessRecording(ctx, rec.RecordingURL, rec.Outline, rec.Script, rec.DurationSec)
			item.Recording = &res
			if err != nil {
				item.Error = err.Error()
			}
		}
		cancel()
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = h.DefaultTimeout
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// decode reads and validates a JSON body, returning a client facing message
// when it is unusable.
func decode(w http.ResponseWriter, r *http.Request, v any) (string, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Sprintf("invalid request body: %v", err), false
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return "validation failed: " + strings.Join(formatValidationErrors(verrs), "; "), false
		}
		return fmt.Sprintf("validation failed: %v", err), false
	}
	return "", true
}

func formatValidationErrors(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		element := fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		if e.Param() != "" {
			element = fmt.Sprintf("%s (value: %s)", element, e.Param())
		}
		out = append(out, element)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": msg})
}
