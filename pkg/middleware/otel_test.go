package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func tracedRouter(t *testing.T, opts ...OTelOption) (*chi.Mux, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := chi.NewRouter()
	r.Use(OpenTelemetry(append([]OTelOption{WithTracerProvider(tp)}, opts...)...))
	r.Get("/api/cart/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !SpanFromRequest(r).SpanContext().IsValid() {
			t.Error("expected a valid span in the request context")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})
	return r, sr
}

func attr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOpenTelemetry_SpanNameAndAttributes(t *testing.T) {
	r, sr := tracedRouter(t, WithSessionID(func(*http.Request) string { return "sess-1" }))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cart/30", nil))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "chrono GET /api/cart/{id}" {
		t.Errorf("span name = %q", span.Name())
	}
	if v, ok := attr(span, "http.route"); !ok || v.AsString() != "/api/cart/{id}" {
		t.Errorf("http.route = %v", v)
	}
	if v, ok := attr(span, "http.status_code"); !ok || v.AsInt64() != 204 {
		t.Errorf("http.status_code = %v", v)
	}
	if v, ok := attr(span, "chrono.session_id"); !ok || v.AsString() != "sess-1" {
		t.Errorf("chrono.session_id = %v", v)
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", span.Status().Code)
	}
}

func TestOpenTelemetry_ServerErrorMarksSpan(t *testing.T) {
	r, sr := tracedRouter(t)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status().Code)
	}
	if _, ok := attr(spans[0], "chrono.session_id"); ok {
		t.Error("session id should be absent without an extractor")
	}
}

func TestOpenTelemetry_FilterSkipsTracing(t *testing.T) {
	r, sr := tracedRouter(t, WithRequestFilter(func(r *http.Request) bool {
		return r.URL.Path != "/healthz"
	}))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if n := len(sr.Ended()); n != 0 {
		t.Errorf("expected no spans, got %d", n)
	}
}

func TestSpanFromRequest_NoSpan(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if SpanFromRequest(req).SpanContext().IsValid() {
		t.Error("expected an invalid span context outside the middleware")
	}
}

func TestOpenTelemetry_TracerName(t *testing.T) {
	r, sr := tracedRouter(t, WithTracerName("storefront"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/cart/30", nil))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := spans[0].InstrumentationScope().Name; got != "storefront" {
		t.Errorf("tracer name = %q, want storefront", got)
	}
}
