package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jdarling/eventdash/pkg/logger"
	"github.com/jdarling/eventdash/pkg/metrics"
)

// Job is one refresh unit of work: reload the value behind Key.
type Job struct {
	Key Key
	Run func(ctx context.Context) error
}

// Enqueuer pushes refresh jobs for asynchronous execution. Returns false on
// backpressure, in which case the tick is dropped and the next one retries.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) bool
}

// watch tracks one polled key.
type watch struct {
	count int
	stop  chan struct{}
}

// Poller re-fetches watched keys on an interval. Polling is refcounted per
// key: the ticker starts with the first watcher and stops with the last.
type Poller struct {
	mu       sync.Mutex
	enqueuer Enqueuer
	watches  map[Key]*watch
	logger   logger.Logger
	closed   bool
}

// NewPoller creates a poller that feeds refresh jobs to enqueuer.
func NewPoller(enqueuer Enqueuer, opts ...PollerOption) *Poller {
	p := &Poller{
		enqueuer: enqueuer,
		watches:  make(map[Key]*watch),
		logger:   logger.Get().Named("poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Watch subscribes key to periodic refresh. The returned release function
// drops the subscription and is safe to call once; polling for key stops
// when the last watcher releases.
func (p *Poller) Watch(key Key, interval time.Duration, refresh func(ctx context.Context) error) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	w, ok := p.watches[key]
	if !ok {
		w = &watch{stop: make(chan struct{})}
		p.watches[key] = w
		go p.run(key, interval, refresh, w.stop)
	}
	w.count++
	p.updateWatcherGauge()

	var once sync.Once
	release := func() {
		once.Do(func() { p.unwatch(key) })
	}
	return release, nil
}

func (p *Poller) unwatch(key Key) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.watches[key]
	if !ok {
		return
	}
	w.count--
	if w.count <= 0 {
		close(w.stop)
		delete(p.watches, key)
	}
	p.updateWatcherGauge()
}

// Close stops all polling. Outstanding release functions become no-ops.
func (p *Poller) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for key, w := range p.watches {
		close(w.stop)
		delete(p.watches, key)
	}
	p.updateWatcherGauge()
}

// updateWatcherGauge must be called with p.mu held.
func (p *Poller) updateWatcherGauge() {
	total := 0
	for _, w := range p.watches {
		total += w.count
	}
	metrics.UpdateCacheWatchers(total)
}

func (p *Poller) run(key Key, interval time.Duration, refresh func(ctx context.Context) error, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			metrics.RecordPollTick()
			ctx := context.Background()
			if !p.enqueuer.Enqueue(ctx, Job{Key: key, Run: refresh}) {
				metrics.RecordRefreshDrop()
				p.logger.Warn(ctx, "refresh queue full; dropping poll tick",
					logger.String("key", string(key)))
			}
		}
	}
}
