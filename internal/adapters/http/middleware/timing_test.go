package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// captureLogs routes the default slog logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// TestTiming_LogsRequestWithID verifies a request is logged with a request ID header.
func TestTiming_LogsRequestWithID(t *testing.T) {
	logs := captureLogs(t)
	handler := Timing(time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/door?date=2025-12-01&kid=1", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
	id := rr.Header().Get(RequestIDHeader)
	if len(id) != 36 {
		t.Errorf("request id = %q, want a UUID", id)
	}
	out := logs.String()
	if !strings.Contains(out, "msg=request") || !strings.Contains(out, "status=404") || !strings.Contains(out, id) {
		t.Errorf("log output = %q", out)
	}
}

// TestTiming_SlowRequestWarns verifies requests over the threshold log at WARN.
func TestTiming_SlowRequestWarns(t *testing.T) {
	logs := captureLogs(t)
	handler := Timing(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/admin", nil))

	if out := logs.String(); !strings.Contains(out, "level=WARN") || !strings.Contains(out, "slow_request") {
		t.Errorf("log output = %q", out)
	}
}

// TestTiming_SkipsStatic verifies static assets are neither logged nor tagged.
func TestTiming_SkipsStatic(t *testing.T) {
	logs := captureLogs(t)
	handler := Timing(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/static/style.css", nil))

	if logs.Len() != 0 {
		t.Errorf("unexpected log output: %q", logs.String())
	}
	if rr.Header().Get(RequestIDHeader) != "" {
		t.Error("static responses should not carry a request id")
	}
}

// TestSlowRequestThreshold verifies the env override.
func TestSlowRequestThreshold(t *testing.T) {
	t.Setenv("ADVENT_SLOW_REQUEST_MS", "")
	if got := SlowRequestThreshold(); got != DefaultSlowRequestMs*time.Millisecond {
		t.Errorf("default = %v", got)
	}
	t.Setenv("ADVENT_SLOW_REQUEST_MS", "750")
	if got := SlowRequestThreshold(); got != 750*time.Millisecond {
		t.Errorf("threshold = %v, want 750ms", got)
	}
}
