// Package worker runs the refresh workers that drain the job queue.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jdarling/eventdash/internal/adapters/mq/queue"
	"github.com/jdarling/eventdash/pkg/logger"
	"github.com/jdarling/eventdash/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 4
	poolShutdownTimeout = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = queue.Job

// Dequeuer defines how workers receive jobs.
type Dequeuer interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes refresh jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// RefreshWorker implements Worker, executing each job's Run function.
type RefreshWorker struct {
	queue Dequeuer
	name  string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewRefreshWorker creates a new worker with configuration options.
func NewRefreshWorker(q Dequeuer, opts ...Option) *RefreshWorker {
	w := &RefreshWorker{
		queue:    q,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *RefreshWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				// Queue closed; nothing more to drain.
				return
			}
			w.process(ctx, job)
		}
	}
}

func (w *RefreshWorker) process(ctx context.Context, job Job) {
	start := time.Now()
	err := job.Run(ctx)
	metrics.RecordRefreshJobDuration(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordRefreshError()
		w.logger.Error(ctx, "refresh job failed",
			logger.String("key", string(job.Key)), logger.Error(err))
	}
}

// Shutdown gracefully stops the worker.
func (w *RefreshWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker %s shutdown: %w", w.name, ctx.Err())
	}
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*RefreshWorker
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates count workers draining q.
func NewPool(q Dequeuer, count int, opts ...Option) *Pool {
	if count <= 0 {
		count = defaultWorkerCount
	}
	p := &Pool{logger: logger.Get().Named("workerpool")}
	for i := 0; i < count; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers = append(p.workers, NewRefreshWorker(q, workerOpts...))
	}
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *RefreshWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	p.logger.Info(ctx, "refresh workers started", logger.Int("count", len(p.workers)))
}

// Shutdown stops every worker, waiting up to poolShutdownTimeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			return err
		}
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}
