package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "chrono").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "chrono",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the storefront's Prometheus collectors.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	actionsTotal    *prometheus.CounterVec
	activeSessions  prometheus.Gauge
	evictedTotal    prometheus.Counter
	ordersTotal     *prometheus.CounterVec
	wsErrors        *prometheus.CounterVec
}

// Prometheus registers the storefront metrics and returns them. Each call
// registers a fresh set, so give each one its own registry.
//
// Metrics collected:
//   - chrono_http_requests_total: requests by route, method and status
//   - chrono_http_request_duration_seconds: request latency by route
//   - chrono_store_actions_total: dispatched store actions by type
//   - chrono_active_sessions: live sessions in the registry
//   - chrono_notifications_evicted_total: feed entries dropped by the cap
//   - chrono_orders_total: placed orders by shipping method
//   - chrono_websocket_errors_total: live feed errors by kind
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total HTTP requests by route, method and status",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),

		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   "store",
			Name:        "actions_total",
			Help:        "Total store actions dispatched by type",
			ConstLabels: config.ConstLabels,
		}, []string{"action"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "active_sessions",
			Help:        "Number of live storefront sessions",
			ConstLabels: config.ConstLabels,
		}),

		evictedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "notifications_evicted_total",
			Help:        "Notifications dropped from full feeds",
			ConstLabels: config.ConstLabels,
		}),

		ordersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "orders_total",
			Help:        "Orders placed by shipping method",
			ConstLabels: config.ConstLabels,
		}, []string{"shipping"}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "websocket_errors_total",
			Help:        "Live feed WebSocket errors by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

// Handler records request count and latency for next.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := RoutePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}

// RoutePattern returns the matched chi pattern, or "unmatched". It is only
// complete once routing has finished.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// RecordAction counts one dispatched store action.
func (m *Metrics) RecordAction(action string) {
	m.actionsTotal.WithLabelValues(action).Inc()
}

// RecordEvicted counts notifications dropped from a feed.
func (m *Metrics) RecordEvicted(n int) {
	if n > 0 {
		m.evictedTotal.Add(float64(n))
	}
}

// SessionCreated increments the live session gauge.
func (m *Metrics) SessionCreated() {
	m.activeSessions.Inc()
}

// SessionEnded decrements the live session gauge.
func (m *Metrics) SessionEnded() {
	m.activeSessions.Dec()
}

// RecordOrder counts a placed order.
func (m *Metrics) RecordOrder(shipping string) {
	m.ordersTotal.WithLabelValues(shipping).Inc()
}

// RecordWebSocketError counts a live feed error.
func (m *Metrics) RecordWebSocketError(kind string) {
	m.wsErrors.WithLabelValues(kind).Inc()
}
