package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finwell/internal/log"
	"finwell/internal/metrics"
)

func newTraced(t *testing.T, buf *bytes.Buffer, m *metrics.Metrics, h http.Handler) http.Handler {
	t.Helper()
	logger := log.New(log.Config{Format: "json", Writer: buf})
	mw := NewMiddleware(logger, m, func(r *http.Request) string { return "10.1.1.1" })
	return mw.Middleware(h)
}

func TestMiddlewareRequestID(t *testing.T) {
	var seen string
	var buf bytes.Buffer
	h := newTraced(t, &buf, nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"caller supplied", "abc-123", true},
		{"rejects whitespace", "bad id", false},
		{"rejects oversized", strings.Repeat("x", maxRequestID+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if seen == "" {
				t.Fatal("request id missing from context")
			}
			if rr.Header().Get(RequestIDHeader) != seen {
				t.Errorf("response header %q != context id %q", rr.Header().Get(RequestIDHeader), seen)
			}
			if tt.keep != (seen == tt.incoming) {
				t.Errorf("id = %q, incoming %q, keep %v", seen, tt.incoming, tt.keep)
			}
		})
	}
}

func TestMiddlewareRecordsRouteAndStatus(t *testing.T) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /budgets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	var buf bytes.Buffer
	h := newTraced(t, &buf, m, mux)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/budgets/7", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := scrape.Body.String()

	for _, want := range []string{
		`finwell_http_requests_total{method="GET",route="GET /budgets/{id}",status="404"} 1`,
		`finwell_http_requests_total{method="GET",route="unmatched",status="404"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"WARN"`) || !strings.Contains(logs, `"request_id"`) {
		t.Errorf("completion log should be WARN with request id: %s", logs)
	}
}
