package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ggoodman/feedback-mcp/feedback"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRPC("initialize", "ok")
	m.ObserveToolCall("x", true)
	m.ObserveRendered(feedback.Counts{Critical: 1})
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("middleware should pass through, got %d", rec.Code)
	}
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRPC("tools/call", "ok")
	m.ObserveRPC("tools/call", "ok")
	m.ObserveToolCall("process_meeting_feedback", true)
	m.ObserveRendered(feedback.Counts{Critical: 2, NiceToHave: 1})

	if got := testutil.ToFloat64(m.rpcRequestsTotal.WithLabelValues("tools/call", "ok")); got != 2 {
		t.Fatalf("rpc counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.toolCallsTotal.WithLabelValues("process_meeting_feedback", "tool_error")); got != 1 {
		t.Fatalf("tool counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.itemsRenderedTotal.WithLabelValues("critical")); got != 2 {
		t.Fatalf("critical items = %v, want 2", got)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})
	r.Handle("/metrics", m.Handler())

	for _, path := range []string{"/health", "/health", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/health", "200")); got != 2 {
		t.Fatalf("health counter = %v, want 2", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "feedback_mcp_http_requests_total") {
		t.Fatalf("exposition missing http counter:\n%s", rec.Body.String())
	}
}
