package server

import (
	"net/http"
	"net/url"
	"time"
)

// CookieName is the session cookie.
const CookieName = "chrono_session"

// Config holds configuration for the HTTP server.
type Config struct {
	// Address is the address to listen on (e.g., ":8080" or "localhost:3000").
	// Default: ":8080".
	Address string

	// ReadHeaderTimeout, ReadTimeout and IdleTimeout are passed to http.Server.
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	IdleTimeout       time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// SecureCookies marks the session cookie Secure.
	SecureCookies bool

	// CookieMaxAge is the session cookie lifetime. Default: 30 days.
	CookieMaxAge time.Duration

	// MaxBodyBytes limits JSON request bodies. Default: 64KB.
	MaxBodyBytes int64

	// CheckOrigin validates WebSocket origins.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// WriteWait is the deadline for one WebSocket write. Default: 10 seconds.
	WriteWait time.Duration

	// PingPeriod is the interval between WebSocket pings. Default: 30 seconds.
	PingPeriod time.Duration

	// EventBuffer is the per-connection toast queue size. Default: 16.
	EventBuffer int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Address:           ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ShutdownTimeout:   10 * time.Second,
		CookieMaxAge:      30 * 24 * time.Hour,
		MaxBodyBytes:      64 * 1024,
		CheckOrigin:       SameOriginCheck,
		WriteWait:         10 * time.Second,
		PingPeriod:        30 * time.Second,
		EventBuffer:       16,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.CookieMaxAge == 0 {
		c.CookieMaxAge = d.CookieMaxAge
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = d.CheckOrigin
	}
	if c.WriteWait == 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PingPeriod == 0 {
		c.PingPeriod = d.PingPeriod
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = d.EventBuffer
	}
}

// SameOriginCheck accepts WebSocket requests whose Origin host matches the
// request host, or that carry no Origin at all.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return false
	}
	return originURL.Host == r.Host
}
