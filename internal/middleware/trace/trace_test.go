package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finpulse/internal/log"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestMiddlewareGeneratesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf})

	m := NewMiddleware(func(*http.Request) string { return "203.0.113.1" })
	var seen string
	h := log.Middleware(logger)(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).InfoContext(r.Context(), "inside")
		seen = w.Header().Get(HeaderRequestID)
		w.WriteHeader(http.StatusCreated)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/transactions", nil))

	id := rec.Header().Get(HeaderRequestID)
	if !strings.HasPrefix(id, "req_") || seen != id {
		t.Fatalf("request id = %q, seen in handler %q", id, seen)
	}
	out := buf.String()
	if !strings.Contains(out, "request_id="+id) {
		t.Errorf("handler log missing request id: %s", out)
	}
	if !strings.Contains(out, "status_code=201") || !strings.Contains(out, "client_ip=203.0.113.1") {
		t.Errorf("completion log missing fields: %s", out)
	}
}

func TestMiddlewareReusesChiRequestID(t *testing.T) {
	m := NewMiddleware(nil)
	h := chimw.RequestID(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set("X-Request-Id", "abc-123")
	h.ServeHTTP(rec, r)

	if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestMetrics(t *testing.T) {
	m := NewMiddleware(nil)
	statuses := []int{http.StatusOK, http.StatusInternalServerError, http.StatusNotFound}
	for _, status := range statuses {
		status := status
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", got.TotalRequests)
	}
	if got.ServerErrors != 1 {
		t.Errorf("ServerErrors = %d, want 1", got.ServerErrors)
	}
	if got.AverageResponseTime > got.SlowestResponseTime {
		t.Errorf("average %d above slowest %d", got.AverageResponseTime, got.SlowestResponseTime)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
