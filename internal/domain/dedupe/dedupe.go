// Package dedupe defines the interface for idempotency tracking.
//
// Enrollment mutations are fire-and-once: a client submits an idempotency
// key with each enrollment, and a key that was already seen must not reach
// the upstream a second time.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen submission keys to ensure at-most-once forwarding.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key from the seen set, allowing a retry. Use this
	// when a submission was recorded but failed to reach the upstream.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a bounded map plus a FIFO ring of
// insertion order. When the bound is reached, the oldest key is evicted.
// A non-positive maxSize disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // FIFO ring, len == maxSize when bounded
	head    int      // next eviction slot
	maxSize int
	size    atomic.Int64
}

const defaultMaxSize = 50000

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.order = make([]string, d.maxSize)
	}
	return d
}

// SeenAndRecord atomically checks if key was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	if d.maxSize > 0 {
		if evicted := d.order[d.head]; evicted != "" {
			if _, ok := d.seen[evicted]; ok {
				delete(d.seen, evicted)
				d.size.Add(-1)
			}
		}
		d.order[d.head] = key
		d.head = (d.head + 1) % d.maxSize
	}
	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

// Unrecord removes a key so a failed submission can be retried. The ring
// slot is left in place; eviction of a removed key is a no-op.
func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; !ok {
		return
	}
	delete(d.seen, key)
	d.size.Add(-1)
}

// Size returns the number of tracked keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
