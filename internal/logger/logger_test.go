package logger

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestRequestIDReusesHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/healthz", nil)
	r.Header.Set(RequestIDHeader, "abc-123")

	if got := RequestID(r); got != "abc-123" {
		t.Fatalf("expected header request id, got %q", got)
	}
}

func TestRequestIDIsStable(t *testing.T) {
	r := httptest.NewRequest("GET", "/healthz", nil)

	first := RequestID(r)
	if first == "" {
		t.Fatal("expected a generated request id")
	}
	if second := RequestID(r); second != first {
		t.Fatalf("expected stable request id, got %q then %q", first, second)
	}
}

func TestWithRequestFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/analyze", nil)
	entry := Discard().WithRequest(r)

	for _, key := range []string{"req_id", "method", "path", "remote_ip", "user_agent"} {
		if _, ok := entry.Data[key]; !ok {
			t.Fatalf("missing field %q in %#v", key, entry.Data)
		}
	}
	if entry.Data["path"] != "/analyze" {
		t.Fatalf("unexpected path field %v", entry.Data["path"])
	}
}

func TestWithErrorNil(t *testing.T) {
	l := Discard()
	if entry := l.WithError(nil); entry != l.Entry {
		t.Fatal("expected the base entry for a nil error")
	}
	entry := l.WithError(errors.New("boom"))
	if entry.Data["error"] != "boom" {
		t.Fatalf("unexpected error field %v", entry.Data["error"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"WARN":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"":      logrus.InfoLevel,
		"loud":  logrus.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
