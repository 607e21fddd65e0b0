package cache

import (
	"time"

	"github.com/jdarling/eventdash/pkg/logger"
)

// StoreOption applies a configuration option to the InMemoryStore.
type StoreOption func(*InMemoryStore)

// WithTTL sets the freshness window for cached entries.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *InMemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *InMemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// PollerOption applies a configuration option to the Poller.
type PollerOption func(*Poller)

// WithPollerLogger sets a custom logger for the poller.
func WithPollerLogger(l logger.Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}
