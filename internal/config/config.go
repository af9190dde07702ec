package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/chrono/internal/errors"
	"github.com/vango-dev/chrono/pkg/checkout"
	"github.com/vango-dev/chrono/pkg/middleware"
	"github.com/vango-dev/chrono/pkg/uistore"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "chrono.json"

	// DefaultPort is the default HTTP port.
	DefaultPort = 8080

	// DefaultHost is the default bind host.
	DefaultHost = "localhost"

	DefaultIdleTimeout     = "30m"
	DefaultResumeWindow    = "10m"
	DefaultShutdownTimeout = "10s"
	DefaultMaxSessions     = 10000

	// DefaultNamespace prefixes metric names and names the tracer.
	DefaultNamespace = "chrono"
)

// Catalog sources.
const (
	SourceBuiltin = "builtin"
	SourceFile    = "file"
	SourceS3      = "s3"
)

// Config represents the complete chrono.json configuration.
type Config struct {
	Server    ServerConfig    `json:"server,omitempty"`
	Catalog   CatalogConfig   `json:"catalog,omitempty"`
	Assets    AssetsConfig    `json:"assets,omitempty"`
	Session   SessionConfig   `json:"session,omitempty"`
	Store     StoreConfig     `json:"store,omitempty"`
	Checkout  CheckoutConfig  `json:"checkout,omitempty"`
	Log       LogConfig       `json:"log,omitempty"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// SecureCookies marks the session cookie Secure. Enable behind HTTPS.
	SecureCookies bool `json:"secureCookies,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g. "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`
}

// CatalogConfig selects where products are loaded from.
type CatalogConfig struct {
	// Source is builtin, file or s3.
	Source string `json:"source,omitempty"`

	// Path is the YAML file for the file source.
	Path string `json:"path,omitempty"`

	// Bucket, Key, Region and Endpoint locate the object for the s3 source.
	Bucket   string `json:"bucket,omitempty"`
	Key      string `json:"key,omitempty"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// AssetsConfig controls how product image paths are published.
type AssetsConfig struct {
	// Prefix is joined to every image path, e.g. a CDN origin.
	Prefix string `json:"prefix,omitempty"`

	// Manifest is a YAML or JSON file mapping image paths to fingerprinted names.
	Manifest string `json:"manifest,omitempty"`
}

// SessionConfig contains session registry settings.
type SessionConfig struct {
	IdleTimeout  string `json:"idleTimeout,omitempty"`
	MaxSessions  int    `json:"maxSessions,omitempty"`
	ResumeWindow string `json:"resumeWindow,omitempty"`
}

// StoreConfig contains per-session store settings.
type StoreConfig struct {
	// NotificationLimit caps the feed. Nil means the default; zero or
	// negative means unbounded.
	NotificationLimit *int `json:"notificationLimit,omitempty"`
}

// CheckoutConfig contains the fee schedule. Nil fees take the defaults.
type CheckoutConfig struct {
	StandardFee *float64 `json:"standardFee,omitempty"`
	ExpressFee  *float64 `json:"expressFee,omitempty"`
	TaxRate     float64  `json:"taxRate,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// TelemetryConfig contains metrics and tracing settings.
type TelemetryConfig struct {
	// Namespace prefixes every metric name (default: "chrono").
	Namespace string `json:"namespace,omitempty"`

	// ConstLabels are added to every metric, e.g. {"region": "eu"}.
	ConstLabels map[string]string `json:"constLabels,omitempty"`

	// Buckets are the request duration histogram bounds in seconds.
	// Empty means the Prometheus defaults.
	Buckets []float64 `json:"buckets,omitempty"`

	// TracerName names the OpenTelemetry tracer (default: "chrono").
	TracerName string `json:"tracerName,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for chrono.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Catalog.Source == "" {
		c.Catalog.Source = SourceBuiltin
	}
	if c.Catalog.Source == SourceS3 && c.Catalog.Key == "" {
		c.Catalog.Key = "catalog.yaml"
	}

	if c.Session.IdleTimeout == "" {
		c.Session.IdleTimeout = DefaultIdleTimeout
	}
	if c.Session.MaxSessions == 0 {
		c.Session.MaxSessions = DefaultMaxSessions
	}
	if c.Session.ResumeWindow == "" {
		c.Session.ResumeWindow = DefaultResumeWindow
	}

	if c.Store.NotificationLimit == nil {
		n := uistore.DefaultNotificationLimit
		c.Store.NotificationLimit = &n
	}

	def := checkout.DefaultPricing()
	if c.Checkout.StandardFee == nil {
		c.Checkout.StandardFee = &def.StandardFee
	}
	if c.Checkout.ExpressFee == nil {
		c.Checkout.ExpressFee = &def.ExpressFee
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Telemetry.Namespace == "" {
		c.Telemetry.Namespace = DefaultNamespace
	}
	if c.Telemetry.TracerName == "" {
		c.Telemetry.TracerName = DefaultNamespace
	}
}

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("E121").
			WithDetail(fmt.Sprintf("Port %d is outside 1-65535", c.Server.Port))
	}

	for _, f := range []struct{ name, value string }{
		{"server.shutdownTimeout", c.Server.ShutdownTimeout},
		{"session.idleTimeout", c.Session.IdleTimeout},
		{"session.resumeWindow", c.Session.ResumeWindow},
	} {
		if d, err := time.ParseDuration(f.value); err != nil || d < 0 {
			return errors.New("E122").
				WithDetail(fmt.Sprintf("%s = %q", f.name, f.value)).
				WithSuggestion(`Use a Go duration such as "30s" or "15m"`)
		}
	}

	switch c.Catalog.Source {
	case SourceBuiltin:
	case SourceFile:
		if c.Catalog.Path == "" {
			return errors.New("E123").WithDetail("catalog.path is required for the file source")
		}
	case SourceS3:
		if c.Catalog.Bucket == "" {
			return errors.New("E123").WithDetail("catalog.bucket is required for the s3 source")
		}
	default:
		return errors.New("E123").
			WithDetail(fmt.Sprintf("Unknown catalog source %q", c.Catalog.Source)).
			WithSuggestion("Use builtin, file or s3")
	}

	if c.Session.MaxSessions < 0 {
		return errors.New("E120").WithDetail("session.maxSessions must not be negative")
	}

	if *c.Checkout.StandardFee < 0 || *c.Checkout.ExpressFee < 0 || c.Checkout.TaxRate < 0 || c.Checkout.TaxRate >= 1 {
		return errors.New("E124").
			WithDetail("Fees must be non-negative and taxRate in [0, 1)")
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return errors.New("E120").WithDetail(fmt.Sprintf("Unknown log format %q", c.Log.Format))
	}

	return c.Telemetry.validate()
}

func (t TelemetryConfig) validate() error {
	if !metricName.MatchString(t.Namespace) {
		return errors.New("E120").
			WithDetail(fmt.Sprintf("telemetry.namespace %q is not a valid metric name", t.Namespace)).
			WithSuggestion("Use letters, digits and underscores")
	}
	for name := range t.ConstLabels {
		if !metricName.MatchString(name) || strings.HasPrefix(name, "__") {
			return errors.New("E120").
				WithDetail(fmt.Sprintf("telemetry.constLabels has invalid label name %q", name))
		}
	}
	for i := 1; i < len(t.Buckets); i++ {
		if t.Buckets[i] <= t.Buckets[i-1] {
			return errors.New("E120").
				WithDetail("telemetry.buckets must be strictly increasing")
		}
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the base URL of the server.
func (c *Config) URL() string {
	scheme := "http"
	if c.Server.SecureCookies {
		scheme = "https"
	}
	return scheme + "://" + c.Address()
}

// CatalogPath returns the catalog file path, resolved against the config
// file's directory when relative.
func (c *Config) CatalogPath() string {
	if c.Catalog.Path == "" || filepath.IsAbs(c.Catalog.Path) {
		return c.Catalog.Path
	}
	return filepath.Join(c.Dir(), c.Catalog.Path)
}

// ManifestPath returns the image manifest path, resolved like CatalogPath.
func (c *Config) ManifestPath() string {
	if c.Assets.Manifest == "" || filepath.IsAbs(c.Assets.Manifest) {
		return c.Assets.Manifest
	}
	return filepath.Join(c.Dir(), c.Assets.Manifest)
}

// IdleTimeout returns the parsed session idle timeout.
func (c *Config) IdleTimeout() time.Duration {
	return parseDurationOr(c.Session.IdleTimeout, 30*time.Minute)
}

// ResumeWindow returns the parsed session resume window.
func (c *Config) ResumeWindow() time.Duration {
	return parseDurationOr(c.Session.ResumeWindow, 10*time.Minute)
}

// ShutdownTimeout returns the parsed graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	return parseDurationOr(c.Server.ShutdownTimeout, 10*time.Second)
}

// NotificationLimit returns the feed cap.
func (c *Config) NotificationLimit() int {
	if c.Store.NotificationLimit == nil {
		return uistore.DefaultNotificationLimit
	}
	return *c.Store.NotificationLimit
}

// Pricing returns the checkout fee schedule.
func (c *Config) Pricing() checkout.Pricing {
	p := checkout.DefaultPricing()
	if c.Checkout.StandardFee != nil {
		p.StandardFee = *c.Checkout.StandardFee
	}
	if c.Checkout.ExpressFee != nil {
		p.ExpressFee = *c.Checkout.ExpressFee
	}
	p.TaxRate = c.Checkout.TaxRate
	return p
}

// MetricsOptions returns the metric settings of the telemetry section.
func (c *Config) MetricsOptions() []middleware.MetricsOption {
	opts := []middleware.MetricsOption{middleware.WithNamespace(c.Telemetry.Namespace)}
	if len(c.Telemetry.ConstLabels) > 0 {
		opts = append(opts, middleware.WithConstLabels(c.Telemetry.ConstLabels))
	}
	if len(c.Telemetry.Buckets) > 0 {
		opts = append(opts, middleware.WithBuckets(append([]float64(nil), c.Telemetry.Buckets...)))
	}
	return opts
}

// NewLogger builds the slog logger described by the log section.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.New("E120").
			WithDetail(fmt.Sprintf("Unknown log level %q", s)).
			WithSuggestion("Use debug, info, warn or error")
	}
	return level, nil
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
