package trace

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pocketwatcher/internal/log"
)

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("generated id = %q", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header = %q, context = %q", rr.Header().Get(HeaderRequestID), seen)
	}
}

func TestRequestIDReusesIncoming(t *testing.T) {
	tests := []struct {
		incoming string
		reused   bool
	}{
		{"abc-123_XYZ", true},
		{"", false},
		{"has space", false},
		{"<script>", false},
		{strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, tt.incoming)
		h.ServeHTTP(httptest.NewRecorder(), req)

		if (seen == tt.incoming) != tt.reused {
			t.Errorf("incoming %q: got id %q, reused want %v", tt.incoming, seen, tt.reused)
		}
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestMiddlewareLogsAndCounts(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: "json", Component: log.ComponentHTTP, Output: &buf})

	m := NewMiddleware(func(*http.Request) string { return "203.0.113.5" }, log.NewStructuredLogger(logger))
	h := log.Middleware(logger)(RequestID(log.RequestIDMiddleware(RequestIDFrom)(m.Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.WriteHeader(http.StatusInternalServerError)
		})))))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/expenses?x=1", nil))

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log output is not one JSON line: %v\n%s", err, buf.String())
	}
	if entry["msg"] != "HTTP request completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry[log.FieldStatusCode] != float64(http.StatusNotFound) {
		t.Errorf("status_code = %v, want first status written", entry[log.FieldStatusCode])
	}
	if entry[log.FieldClientIP] != "203.0.113.5" {
		t.Errorf("client_ip = %v", entry[log.FieldClientIP])
	}
	if entry[log.FieldRequestID] != rr.Header().Get(HeaderRequestID) {
		t.Errorf("request_id = %v, header = %s", entry[log.FieldRequestID], rr.Header().Get(HeaderRequestID))
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN for 4xx", entry["level"])
	}

	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Errorf("TotalRequests = %d", got)
	}
}
