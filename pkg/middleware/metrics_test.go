package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestRouter(m *Metrics) *chi.Mux {
	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return r
}

func TestPrometheusHandler_RecordsRouteAndStatus(t *testing.T) {
	m := Prometheus(WithRegistry(prometheus.NewRegistry()))
	r := newTestRouter(m)

	for _, path := range []string{"/api/products/1", "/api/products/2", "/api/products/missing", "/boom", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	tests := []struct {
		route, status string
		want          float64
	}{
		{"/api/products/{id}", "200", 2},
		{"/api/products/{id}", "404", 1},
		{"/boom", "500", 1},
		{"unmatched", "404", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.requestsTotal.WithLabelValues(tt.route, "GET", tt.status))
		if got != tt.want {
			t.Errorf("requests_total{%s,%s} = %v, want %v", tt.route, tt.status, got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(m.requestDuration); n != 3 {
		t.Errorf("request_duration series = %d, want 3", n)
	}
}

func TestPrometheus_Recorders(t *testing.T) {
	m := Prometheus(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))

	m.RecordAction("ADD_TO_CART")
	m.RecordAction("ADD_TO_CART")
	m.RecordAction("MARK_READ")
	m.RecordEvicted(3)
	m.RecordEvicted(0)
	m.SessionCreated()
	m.SessionCreated()
	m.SessionEnded()
	m.RecordOrder("express")
	m.RecordWebSocketError("write")

	if got := testutil.ToFloat64(m.actionsTotal.WithLabelValues("ADD_TO_CART")); got != 2 {
		t.Errorf("actions_total{ADD_TO_CART} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.evictedTotal); got != 3 {
		t.Errorf("notifications_evicted_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.activeSessions); got != 1 {
		t.Errorf("active_sessions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ordersTotal.WithLabelValues("express")); got != 1 {
		t.Errorf("orders_total{express} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.wsErrors.WithLabelValues("write")); got != 1 {
		t.Errorf("websocket_errors_total{write} = %v, want 1", got)
	}
}

func TestPrometheus_SeparateRegistries(t *testing.T) {
	// Registering twice on distinct registries must not panic.
	Prometheus(WithRegistry(prometheus.NewRegistry()))
	Prometheus(WithRegistry(prometheus.NewRegistry()))
}

func TestRoutePattern_NoChi(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if got := RoutePattern(req); got != "unmatched" {
		t.Errorf("RoutePattern() = %q, want unmatched", got)
	}
}
