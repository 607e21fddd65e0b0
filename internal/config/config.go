// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// UpstreamBaseURL locates the proxy API gateway fronting the
	// WordPress-ecosystem plugins.
	UpstreamBaseURL string `koanf:"upstream_base_url"`

	// UpstreamTimeoutMS bounds a single upstream request.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// SessionToken is the static token presented to the upstream, if any.
	SessionToken string `koanf:"session_token"`

	// CacheTTLMS is the default freshness window for cached entries.
	CacheTTLMS int `koanf:"cache_ttl_ms"`

	// DangerZonePollMS sets the danger-zone polling interval.
	DangerZonePollMS int `koanf:"danger_zone_poll_ms"`

	// RefreshQueueSize bounds the cache refresh job queue.
	RefreshQueueSize int `koanf:"refresh_queue_size"`

	// RefreshWorkerCount sets the number of refresh workers.
	RefreshWorkerCount int `koanf:"refresh_worker_count"`

	// TopProductsLimit caps the product revenue ranking length.
	TopProductsLimit int `koanf:"top_products_limit"`

	// MinConversionRate is the fallback conversion threshold for events
	// that do not carry their own.
	MinConversionRate float64 `koanf:"min_conversion_rate"`

	// InstrumentStock is the on-hand instrument set count used by the
	// inventory shortfall rule.
	InstrumentStock int `koanf:"instrument_stock"`

	// RealtimeURL points at the push service websocket endpoint.
	// Realtime invalidation is disabled when empty.
	RealtimeURL string `koanf:"realtime_url"`

	// DedupeSize bounds the enrollment idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9090",
		UpstreamBaseURL:    "http://localhost:8787",
		UpstreamTimeoutMS:  10_000,
		CacheTTLMS:         30_000,
		DangerZonePollMS:   60_000,
		RefreshQueueSize:   1024,
		RefreshWorkerCount: 4,
		TopProductsLimit:   10,
		MinConversionRate:  30,
		InstrumentStock:    10,
		DedupeSize:         50_000,
	}
}
