package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var seen string
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/items/chores", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	id := rec.Header().Get(RequestIDHeader)
	if id == "" || id != seen {
		t.Fatalf("request id header = %q, context = %q", id, seen)
	}
	out := buf.String()
	if !strings.Contains(out, "request_id="+id) || !strings.Contains(out, "status=418") {
		t.Errorf("log line missing fields: %s", out)
	}
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("4xx should log at warn: %s", out)
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	handler := RequestLogger(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want %q", got, "abc-123")
	}
}
