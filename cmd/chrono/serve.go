package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/chrono/internal/config"
	"github.com/vango-dev/chrono/pkg/assets"
	"github.com/vango-dev/chrono/pkg/server"
	"github.com/vango-dev/chrono/pkg/session"
	"github.com/vango-dev/chrono/pkg/uistore"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		port        int
		host        string
		catalogFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the storefront server",
		Long: `Start the storefront HTTP server.

Settings come from chrono.json; flags override them. Sessions are
kept in memory and snapshotted on eviction so a returning browser
resumes its cart within the resume window.

Examples:
  chrono serve
  chrono serve --port=3000
  chrono serve --catalog=./catalog.yaml
  chrono serve --config=/etc/chrono/chrono.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if catalogFile != "" {
				cfg.Catalog.Source = config.SourceFile
				cfg.Catalog.Path = catalogFile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from chrono.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from chrono.json)")
	cmd.Flags().StringVar(&catalogFile, "catalog", "", "Load the catalog from this YAML file")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := catalogSource(cfg)
	if err != nil {
		return err
	}
	cat, err := src.Load(ctx)
	if err != nil {
		return err
	}

	images, err := imageResolver(cfg)
	if err != nil {
		return err
	}

	snapshots := session.NewMemoryStore()
	defer snapshots.Close()

	sessCfg := session.DefaultConfig()
	sessCfg.IdleTimeout = cfg.IdleTimeout()
	sessCfg.MaxSessions = cfg.Session.MaxSessions
	sessCfg.ResumeWindow = cfg.ResumeWindow()
	sessCfg.Snapshots = snapshots
	sessCfg.StoreOptions = []uistore.Option{uistore.WithNotificationLimit(cfg.NotificationLimit())}
	sessCfg.Logger = logger

	pricing := cfg.Pricing()
	srvCfg := server.DefaultConfig()
	srvCfg.Address = cfg.Address()
	srvCfg.SecureCookies = cfg.Server.SecureCookies
	srvCfg.ShutdownTimeout = cfg.ShutdownTimeout()

	srv := server.New(srvCfg, server.Options{
		Catalog:    cat,
		Images:     images,
		Session:    &sessCfg,
		Pricing:    &pricing,
		Metrics:    cfg.MetricsOptions(),
		TracerName: cfg.Telemetry.TracerName,
		Logger:     logger,
	})

	printBanner()
	fmt.Println()
	success("Loaded %d products from %s", cat.Len(), cfg.Catalog.Source)
	info("Listening on %s", cfg.URL())
	info("Metrics at %s/metrics", cfg.URL())
	fmt.Println()

	return srv.Run(ctx)
}

// imageResolver builds the image resolver from the assets section.
func imageResolver(cfg *config.Config) (assets.Resolver, error) {
	if cfg.Assets.Manifest == "" {
		return assets.Passthrough(cfg.Assets.Prefix), nil
	}
	m, err := assets.LoadManifest(cfg.ManifestPath())
	if err != nil {
		return nil, err
	}
	return assets.NewResolver(m, cfg.Assets.Prefix), nil
}
