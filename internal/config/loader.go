package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if DASHD_CONFIG is set
//  3. env (prefix DASHD_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("DASHD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: DASHD_ADDR, DASHD_CACHE_TTL_MS, ...
	// Map env keys like DASHD_CACHE_TTL_MS -> cache_ttl_ms (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("DASHD_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "dashd_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Basic validation
	switch {
	case cfg.Addr == "":
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.UpstreamBaseURL == "":
		return nil, fmt.Errorf("%w: upstream_base_url must not be empty", ErrInvalidConfig)
	case cfg.CacheTTLMS <= 0:
		return nil, fmt.Errorf("%w: cache_ttl_ms must be positive", ErrInvalidConfig)
	case cfg.DangerZonePollMS <= 0:
		return nil, fmt.Errorf("%w: danger_zone_poll_ms must be positive", ErrInvalidConfig)
	case cfg.RefreshQueueSize <= 0:
		return nil, fmt.Errorf("%w: refresh_queue_size must be positive", ErrInvalidConfig)
	case cfg.RefreshWorkerCount <= 0:
		return nil, fmt.Errorf("%w: refresh_worker_count must be positive", ErrInvalidConfig)
	case cfg.TopProductsLimit <= 0:
		return nil, fmt.Errorf("%w: top_products_limit must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
