package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/chrono/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗┬ ┬┬─┐┌─┐┌┐┌┌─┐
  ║  ├─┤├┬┘│ │││││ │
  ╚═╝┴ ┴┴└─└─┘┘└┘└─┘
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "chrono",
		Short: "Luxury watch storefront server",
		Long: `Chrono serves the watch storefront API.

Each browser session gets its own UI store holding the cart,
the notification feed and the product preview. Features include:

  • Cart and notification actions over a JSON API
  • Live state and toast feed over WebSocket
  • Catalog from the built-in list, a YAML file or S3
  • Prometheus metrics and OpenTelemetry tracing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to chrono.json (default ./chrono.json if present)")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		catalogCmd(&configPath),
		versionCmd(),
	)
	return rootCmd
}

// printBanner prints the Chrono ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
