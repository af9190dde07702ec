package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/chrono/internal/errors"
	"github.com/vango-dev/chrono/pkg/assets"
	"github.com/vango-dev/chrono/pkg/catalog"
	"github.com/vango-dev/chrono/pkg/checkout"
	"github.com/vango-dev/chrono/pkg/middleware"
	"github.com/vango-dev/chrono/pkg/session"
	"github.com/vango-dev/chrono/pkg/uistore"
)

// Options wires the server's collaborators. Zero values get defaults.
type Options struct {
	// Catalog is the product list. Default: the embedded catalog.
	Catalog *catalog.Catalog

	// Session configures the registry. Default: session.DefaultConfig().
	Session *session.Config

	// Images publishes catalog image paths. Default: paths unchanged.
	Images assets.Resolver

	// Pricing is the checkout fee schedule. Default: checkout.DefaultPricing().
	Pricing *checkout.Pricing

	// NewOrderID overrides order id generation.
	NewOrderID func() string

	// Registry receives the metrics and backs /metrics. Default: a new registry.
	Registry *prometheus.Registry

	// Metrics customizes the collectors. The registry is always Registry.
	Metrics []middleware.MetricsOption

	// TracerProvider overrides the global OpenTelemetry provider.
	TracerProvider trace.TracerProvider

	// TracerName names the request tracer. Default: "chrono".
	TracerName string

	Logger *slog.Logger
}

// Server is the storefront HTTP server.
type Server struct {
	config   Config
	catalog  *catalog.Catalog
	images   assets.Resolver
	sessions *session.Registry
	checkout *checkout.Service
	metrics  *middleware.Metrics
	registry *prometheus.Registry
	upgrader websocket.Upgrader
	router   chi.Router
	logger   *slog.Logger

	httpServer *http.Server

	closeOnce sync.Once
	closing   chan struct{}
	feeds     sync.WaitGroup
	live      feedHub
}

// New creates a Server.
func New(config Config, opts Options) *Server {
	config.applyDefaults()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if opts.Images == nil {
		opts.Images = assets.Passthrough("")
	}
	pricing := checkout.DefaultPricing()
	if opts.Pricing != nil {
		pricing = *opts.Pricing
	}

	s := &Server{
		config:   config,
		catalog:  cat,
		images:   opts.Images,
		checkout: checkout.NewService(pricing),
		metrics:  middleware.Prometheus(metricsOptions(opts.Metrics, reg)...),
		registry: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     config.CheckOrigin,
		},
		logger:  logger.With("component", "server"),
		closing: make(chan struct{}),
	}
	if opts.NewOrderID != nil {
		s.checkout.NewOrderID = opts.NewOrderID
	}

	sessCfg := session.DefaultConfig()
	if opts.Session != nil {
		sessCfg = *opts.Session
	}
	if sessCfg.Logger == nil {
		sessCfg.Logger = logger
	}
	sessCfg.Hooks = s.instrument(sessCfg.Hooks)
	s.sessions = session.NewRegistry(sessCfg)

	s.router = s.routes(opts.TracerProvider, opts.TracerName)
	return s
}

// metricsOptions appends the registry last so it cannot be overridden.
func metricsOptions(opts []middleware.MetricsOption, reg prometheus.Registerer) []middleware.MetricsOption {
	out := make([]middleware.MetricsOption, 0, len(opts)+1)
	out = append(out, opts...)
	return append(out, middleware.WithRegistry(reg))
}

// instrument chains metrics onto the registry hooks.
func (s *Server) instrument(h session.Hooks) session.Hooks {
	observe := func(sess *session.Session) {
		s.metrics.SessionCreated()
		sess.Store.Subscribe(func(c uistore.Change) {
			s.metrics.RecordAction(string(c.Action.Type()))
			s.metrics.RecordEvicted(c.Evicted)
		})
	}
	return session.Hooks{
		OnCreate: func(sess *session.Session) {
			observe(sess)
			if h.OnCreate != nil {
				h.OnCreate(sess)
			}
		},
		OnResume: func(sess *session.Session) {
			observe(sess)
			if h.OnResume != nil {
				h.OnResume(sess)
			}
		},
		OnEvict: func(sess *session.Session, reason session.EvictReason) {
			s.metrics.SessionEnded()
			if h.OnEvict != nil {
				h.OnEvict(sess, reason)
			}
		},
	}
}

func (s *Server) routes(tp trace.TracerProvider, tracerName string) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(s.logger))
	otelOpts := []middleware.OTelOption{
		middleware.WithSessionID(sessionIDFromCookie),
		middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}),
	}
	if tp != nil {
		otelOpts = append(otelOpts, middleware.WithTracerProvider(tp))
	}
	if tracerName != "" {
		otelOpts = append(otelOpts, middleware.WithTracerName(tracerName))
	}
	r.Use(middleware.OpenTelemetry(otelOpts...))
	r.Use(s.metrics.Handler)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.withSession(s.handleState))

		r.Route("/cart", func(r chi.Router) {
			r.Post("/", s.withSession(s.handleAddToCart))
			r.Delete("/", s.withSession(s.handleClearCart))
			r.Patch("/{id}", s.withSession(s.handleUpdateQuantity))
			r.Delete("/{id}", s.withSession(s.handleRemoveFromCart))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/read/{channel}", s.withSession(s.handleMarkRead))
			r.Delete("/{id}", s.withSession(s.handleDismiss))
			r.Post("/{id}/action", s.withSession(s.handleTriggerAction))
		})

		r.Route("/preview", func(r chi.Router) {
			r.Post("/", s.withSession(s.handleOpenPreview))
			r.Delete("/", s.withSession(s.handleClosePreview))
			r.Get("/link", s.withSession(s.handlePreviewLink))
		})

		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)

		r.Post("/checkout/quote", s.withSession(s.handleQuote))
		r.Post("/checkout", s.withSession(s.handleCheckout))

		r.Get("/events", s.withSession(s.handleEvents))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.Newf(errors.CategoryProtocol, "no route for %s %s", r.Method, r.URL.Path), http.StatusNotFound)
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session registry.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

// Catalog returns the product catalog.
func (s *Server) Catalog() *catalog.Catalog {
	return s.catalog
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return errors.New("E160").WithDetail("cannot listen on " + s.config.Address).Wrap(err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String(), "products", s.catalog.Len())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return errors.New("E160").Wrap(err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops the HTTP server, closes live feeds and drops all sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	var err error
	if s.httpServer != nil {
		if err = s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
		}
	}
	s.closeOnce.Do(func() { close(s.closing) })
	s.feeds.Wait()
	s.sessions.Close()

	s.logger.Info("server shutdown complete")
	return err
}
