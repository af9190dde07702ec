package middleware

import (
	"fmt"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for the storefront.
const defaultTracerName = "chrono"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "chrono").
	TracerName string

	// TracerProvider overrides the global provider when set.
	TracerProvider trace.TracerProvider

	// SessionID extracts the session id for the span, if any.
	SessionID func(r *http.Request) string

	// Filter determines which requests to trace.
	// If nil, all requests are traced.
	Filter func(r *http.Request) bool
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithSessionID sets the session id extractor.
func WithSessionID(fn func(r *http.Request) string) OTelOption {
	return func(c *OTelConfig) {
		c.SessionID = fn
	}
}

// WithRequestFilter sets a filter for traced requests.
func WithRequestFilter(filter func(r *http.Request) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// OpenTelemetry traces every request. The span name is finalized after
// routing so it carries the chi route pattern.
func OpenTelemetry(opts ...OTelOption) func(http.Handler) http.Handler {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(config.TracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.Filter != nil && !config.Filter(r) {
				next.ServeHTTP(w, r)
				return
			}

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			}
			if config.SessionID != nil {
				if id := config.SessionID(r); id != "" {
					attrs = append(attrs, attribute.String("chrono.session_id", id))
				}
			}

			ctx, span := tracer.Start(r.Context(), fmt.Sprintf("chrono %s", r.Method),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			r = r.WithContext(ctx)
			next.ServeHTTP(ww, r)

			route := RoutePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			span.SetName(fmt.Sprintf("chrono %s %s", r.Method, route))
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.status_code", status),
			)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			} else {
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}

// SpanFromRequest returns the request's current span. It is a no-op span
// outside the middleware.
func SpanFromRequest(r *http.Request) trace.Span {
	return trace.SpanFromContext(r.Context())
}
