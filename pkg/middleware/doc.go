// Package middleware provides the HTTP middleware the storefront API runs
// behind: Prometheus metrics, OpenTelemetry tracing and slog request logs.
//
// All three are plain func(http.Handler) http.Handler values and mount on a
// chi router:
//
//	m := middleware.Prometheus(middleware.WithRegistry(reg))
//	r := chi.NewRouter()
//	r.Use(middleware.RequestLogger(logger))
//	r.Use(middleware.OpenTelemetry(middleware.WithSessionID(readCookie)))
//	r.Use(m.Handler)
//
// # Prometheus Metrics
//
// Route labels use the chi route pattern, so /api/cart/{id} is one series no
// matter how many products pass through it. Besides HTTP traffic, Metrics
// counts store actions, live sessions and notifications evicted from feeds;
// the server records those from store subscriptions and registry hooks.
//
// Expose the registry with promhttp:
//
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # OpenTelemetry Middleware
//
// The tracer uses the global tracer provider. Configure it in main before
// starting the server:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
// Spans are named "chrono <METHOD> <route>". Responses with a 5xx status mark
// the span as an error.
package middleware
