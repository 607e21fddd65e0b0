// Package cache provides the keyed query cache backing every upstream read.
//
// Each distinct resource+parameter combination is cached independently with
// a freshness window. Entries are invalidated by TTL expiry, by an explicit
// call after a mutation, or by a realtime push event; invalidating one entry
// never touches another. Refreshes may race (poll vs. push); last write
// wins, and readers always see whichever snapshot is freshest.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jdarling/eventdash/pkg/metrics"
)

// Key identifies one cached resource+parameter combination.
type Key string

// NewKey builds a Key from a resource name and its canonicalized parameters.
func NewKey(resource string, params ...string) Key {
	if len(params) == 0 {
		return Key(resource)
	}
	return Key(resource + "|" + strings.Join(params, "|"))
}

// FetchFunc loads a fresh value for a key from the upstream.
type FetchFunc func(ctx context.Context) (any, error)

// Store is the keyed query cache contract.
type Store interface {
	// Fetch returns the cached value when fresh, otherwise loads one via fn
	// and caches it. Concurrent fetchers of one key collapse to a single
	// upstream call. A failed load keeps any previous value in place and
	// returns the error.
	Fetch(ctx context.Context, key Key, fn FetchFunc) (any, error)

	// Peek returns the cached value regardless of freshness.
	Peek(ctx context.Context, key Key) (any, bool)

	// Set stores a value for key, stamping it fresh now.
	Set(ctx context.Context, key Key, value any)

	// Invalidate discards the entry for key. Reason labels metrics:
	// manual, mutation, realtime.
	Invalidate(ctx context.Context, key Key, reason string)

	// Len returns the number of live entries.
	Len(ctx context.Context) int
}

// entry holds one cached value with its freshness stamp. The per-entry mutex
// collapses concurrent fetches for the same key.
type entry struct {
	mu        sync.Mutex
	value     any
	fetchedAt time.Time
	populated bool
}

// InMemoryStore implements Store with a map guarded by a RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	ttl     time.Duration
	now     func() time.Time
}

// Default store configuration constants.
const defaultTTL = 30 * time.Second

// NewInMemoryStore creates a store with configuration options.
func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{
		entries: make(map[Key]*entry),
		ttl:     defaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) getOrCreate(key Key) *entry {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e
	}
	e = &entry{}
	s.entries[key] = e
	metrics.UpdateCacheEntries(len(s.entries))
	return e
}

// Fetch implements Store.
func (s *InMemoryStore) Fetch(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	e := s.getOrCreate(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.populated && s.now().Sub(e.fetchedAt) < s.ttl {
		metrics.RecordCacheHit()
		return e.value, nil
	}
	metrics.RecordCacheMiss()

	value, err := fn(ctx)
	if err != nil {
		// Keep any previous value; the next reader retries.
		return nil, err
	}
	e.value = value
	e.fetchedAt = s.now()
	e.populated = true
	return value, nil
}

// Peek implements Store.
func (s *InMemoryStore) Peek(_ context.Context, key Key) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.populated {
		return nil, false
	}
	return e.value, true
}

// Set implements Store.
func (s *InMemoryStore) Set(_ context.Context, key Key, value any) {
	e := s.getOrCreate(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = value
	e.fetchedAt = s.now()
	e.populated = true
}

// Invalidate implements Store.
func (s *InMemoryStore) Invalidate(_ context.Context, key Key, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	metrics.RecordCacheInvalidation(reason)
	metrics.UpdateCacheEntries(len(s.entries))
}

// Len implements Store.
func (s *InMemoryStore) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
