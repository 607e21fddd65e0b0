// Package app wires the gateway, cache, refresh pipeline, realtime
// invalidation, and aggregation functions into the service that backs the
// HTTP API.
package app

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jdarling/eventdash/internal/adapters/mq/queue"
	"github.com/jdarling/eventdash/internal/adapters/mq/worker"
	"github.com/jdarling/eventdash/internal/cache"
	"github.com/jdarling/eventdash/internal/domain/alerting"
	"github.com/jdarling/eventdash/internal/domain/analytics"
	"github.com/jdarling/eventdash/internal/domain/compliance"
	"github.com/jdarling/eventdash/internal/domain/dedupe"
	"github.com/jdarling/eventdash/internal/domain/model"
	"github.com/jdarling/eventdash/internal/domain/roster"
	"github.com/jdarling/eventdash/internal/realtime"
	"github.com/jdarling/eventdash/pkg/logger"
	"github.com/jdarling/eventdash/pkg/metrics"
)

// Upstream is what the service needs from the gateway client.
type Upstream interface {
	Orders(ctx context.Context, params url.Values) ([]model.Order, error)
	Products(ctx context.Context) ([]model.Event, error)
	Subscribers(ctx context.Context) ([]model.Attendee, error)
	LearnDashUsers(ctx context.Context) ([]model.Attendee, error)
	DangerZone(ctx context.Context) ([]model.DangerZoneEntry, error)
	EventRoster(ctx context.Context, eventID int) ([]model.Attendee, error)
	InstrumentSummary(ctx context.Context, eventID int) (model.InstrumentSummary, error)
	CEUCompliance(ctx context.Context, state, profession string) ([]model.Practitioner, error)
	Health(ctx context.Context) error
	Enroll(ctx context.Context, eventID int, p model.Participant) error
	BulkEnroll(ctx context.Context, eventID int, ps []model.Participant) error
	UpdateTags(ctx context.Context, subscriberID int, tags []string) error
}

// Cache key construction. One key per resource+parameter combination.
func keyOrders() cache.Key      { return cache.NewKey("orders") }
func keyProducts() cache.Key    { return cache.NewKey("products") }
func keySubscribers() cache.Key { return cache.NewKey("subscribers") }
func keyLearnDash() cache.Key   { return cache.NewKey("learndash_users") }
func keyDangerZone() cache.Key  { return cache.NewKey("danger_zone") }
func keyRoster(id int) cache.Key {
	return cache.NewKey("roster", strconv.Itoa(id))
}
func keyInstruments(id int) cache.Key {
	return cache.NewKey("instruments", strconv.Itoa(id))
}
func keyCompliance(state, profession string) cache.Key {
	return cache.NewKey("compliance", state, profession)
}

// rosterTopic names the push channel carrying enrollment events for an event.
func rosterTopic(eventID int) string {
	return fmt.Sprintf("event-roster-%d", eventID)
}

// studentEnrolledEvent is the push event type that invalidates a roster.
const studentEnrolledEvent = "student-enrolled"

// Default service configuration constants.
const (
	defaultQueueSize    = 1024
	defaultWorkerCount  = 4
	defaultDedupeSize   = 50000
	defaultPollInterval = 60 * time.Second
	defaultCacheTTL     = 30 * time.Second
)

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.Mutex

	// Core components
	upstream Upstream
	store    cache.Store
	poller   *cache.Poller
	queue    queue.Queue
	pool     *worker.Pool
	push     realtime.Subscriber
	deduper  dedupe.Deduper

	// Configuration
	cacheTTL     time.Duration
	pollInterval time.Duration
	queueSize    int
	workerCount  int
	dedupeSize   int
	topLimit     int
	rules        alerting.Rules

	// State
	started         bool
	releaseDanger   func()
	rosterSubs      map[int]func()
	shutdownWorkers context.CancelFunc
	logger          logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithUpstream sets the gateway client.
func WithUpstream(u Upstream) Option {
	return func(s *Service) {
		s.upstream = u
	}
}

// WithRealtime sets the push subscriber. Realtime invalidation is disabled
// when unset.
func WithRealtime(sub realtime.Subscriber) Option {
	return func(s *Service) {
		s.push = sub
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCacheTTL sets the cache freshness window.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithPollInterval sets the danger-zone polling interval.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithQueueSize bounds the refresh job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithDedupeSize bounds the enrollment idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithTopProductsLimit sets the default product ranking length.
func WithTopProductsLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.topLimit = limit
		}
	}
}

// WithAlertRules sets the danger-zone alert thresholds.
func WithAlertRules(rules alerting.Rules) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cacheTTL:     defaultCacheTTL,
		pollInterval: defaultPollInterval,
		queueSize:    defaultQueueSize,
		workerCount:  defaultWorkerCount,
		dedupeSize:   defaultDedupeSize,
		topLimit:     analytics.DefaultTopLimit,
		rosterSubs:   make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the cache, refresh pipeline, and realtime subscription,
// and registers the danger-zone poll watch.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.upstream == nil {
		return ErrMissingUpstream
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}

	s.store = cache.NewInMemoryStore(cache.WithTTL(s.cacheTTL))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.poller = cache.NewPoller(s.queue)

	workerCtx, cancel := context.WithCancel(context.Background())
	s.shutdownWorkers = cancel
	s.pool = worker.NewPool(s.queue, s.workerCount)
	s.pool.Start(workerCtx)

	release, err := s.poller.Watch(keyDangerZone(), s.pollInterval, s.refreshDangerZone)
	if err != nil {
		cancel()
		return fmt.Errorf("watch danger zone: %w", err)
	}
	s.releaseDanger = release

	if s.push != nil {
		if connector, ok := s.push.(interface {
			Connect(ctx context.Context) error
		}); ok {
			if err := connector.Connect(ctx); err != nil {
				// Degrade to poll/TTL-only freshness rather than failing
				// startup on a push service outage.
				s.logger.Warn(ctx, "realtime connect failed; push invalidation disabled",
					logger.Error(err))
				s.push = nil
			}
		}
	}

	s.started = true
	s.logger.Info(ctx, "dashboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("cacheTTL", s.cacheTTL.String()),
		logger.String("pollInterval", s.pollInterval.String()),
	)
	return nil
}

// Stop gracefully shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping dashboard service...")

	if s.releaseDanger != nil {
		s.releaseDanger()
	}
	s.poller.Close()

	for id, release := range s.rosterSubs {
		release()
		delete(s.rosterSubs, id)
	}
	if s.push != nil {
		if err := s.push.Close(); err != nil {
			s.logger.Warn(ctx, "realtime close failed", logger.Error(err))
		}
	}

	_ = s.queue.Close()
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	s.shutdownWorkers()

	s.started = false
	s.logger.Info(ctx, "dashboard service stopped")
}

// fetchAs loads a typed value through the cache.
func fetchAs[T any](ctx context.Context, store cache.Store, key cache.Key, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := store.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q", ErrUnexpectedType, key)
	}
	return typed, nil
}

func (s *Service) orders(ctx context.Context) ([]model.Order, error) {
	return fetchAs(ctx, s.store, keyOrders(), func(ctx context.Context) ([]model.Order, error) {
		return s.upstream.Orders(ctx, nil)
	})
}

func (s *Service) products(ctx context.Context) ([]model.Event, error) {
	return fetchAs(ctx, s.store, keyProducts(), s.upstream.Products)
}

// refreshDangerZone reloads the danger-zone snapshot unconditionally. It runs
// on the refresh worker pool, triggered by poll ticks.
func (s *Service) refreshDangerZone(ctx context.Context) error {
	entries, err := s.upstream.DangerZone(ctx)
	if err != nil {
		return fmt.Errorf("refresh danger zone: %w", err)
	}
	s.store.Set(ctx, keyDangerZone(), entries)
	return nil
}

// RevenueSeries returns the revenue-by-date series over cached orders.
func (s *Service) RevenueSeries(ctx context.Context) ([]analytics.RevenuePoint, error) {
	orders, err := s.orders(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.RevenueByDate(orders), nil
}

// TopProducts returns the top-N product revenue ranking. A non-positive
// limit falls back to the configured default.
func (s *Service) TopProducts(ctx context.Context, limit int) ([]analytics.ProductRevenue, error) {
	orders, err := s.orders(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.topLimit
	}
	return analytics.TopProducts(orders, limit), nil
}

// DangerZone returns the cached at-risk event snapshot. The entry is kept
// warm by the poll watch registered at Start.
func (s *Service) DangerZone(ctx context.Context) ([]model.DangerZoneEntry, error) {
	return fetchAs(ctx, s.store, keyDangerZone(), s.upstream.DangerZone)
}

// EventAlerts evaluates the alert rules for one event.
func (s *Service) EventAlerts(ctx context.Context, eventID int) ([]alerting.Alert, error) {
	events, err := s.products(ctx)
	if err != nil {
		return nil, err
	}
	var event *model.Event
	for i := range events {
		if events[i].ID == eventID {
			event = &events[i]
			break
		}
	}
	if event == nil {
		return nil, fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}

	summary, err := s.instruments(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return alerting.Evaluate(event, &summary, s.rules), nil
}

func (s *Service) instruments(ctx context.Context, eventID int) (model.InstrumentSummary, error) {
	return fetchAs(ctx, s.store, keyInstruments(eventID), func(ctx context.Context) (model.InstrumentSummary, error) {
		return s.upstream.InstrumentSummary(ctx, eventID)
	})
}

// EventRoster returns the decorated roster for one event: attendees
// left-joined with instrument purchase records. Reading a roster also
// subscribes it to push invalidation.
func (s *Service) EventRoster(ctx context.Context, eventID int) ([]roster.DecoratedAttendee, error) {
	attendees, err := fetchAs(ctx, s.store, keyRoster(eventID), func(ctx context.Context) ([]model.Attendee, error) {
		return s.upstream.EventRoster(ctx, eventID)
	})
	if err != nil {
		return nil, err
	}
	summary, err := s.instruments(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.watchRoster(eventID)
	return roster.MergePurchases(attendees, summary.Purchasers), nil
}

// InstrumentSummary returns the per-event instrument purchase rollup.
func (s *Service) InstrumentSummary(ctx context.Context, eventID int) (model.InstrumentSummary, error) {
	return s.instruments(ctx, eventID)
}

// ClassifiedPractitioner is one compliance report row with its derived class.
type ClassifiedPractitioner struct {
	model.Practitioner
	Status compliance.Status `json:"status"`
}

// ComplianceReport is the classified CEU compliance view.
type ComplianceReport struct {
	Summary       compliance.Summary       `json:"summary"`
	Practitioners []ClassifiedPractitioner `json:"practitioners"`
}

// Compliance returns the classified CEU compliance report, optionally
// filtered by license state and profession.
func (s *Service) Compliance(ctx context.Context, state, profession string) (ComplianceReport, error) {
	practitioners, err := fetchAs(ctx, s.store, keyCompliance(state, profession), func(ctx context.Context) ([]model.Practitioner, error) {
		return s.upstream.CEUCompliance(ctx, state, profession)
	})
	if err != nil {
		return ComplianceReport{}, err
	}

	rows := make([]ClassifiedPractitioner, 0, len(practitioners))
	for _, p := range practitioners {
		rows = append(rows, ClassifiedPractitioner{
			Practitioner: p,
			Status:       compliance.Classify(p.ComplianceStatus),
		})
	}
	return ComplianceReport{
		Summary:       compliance.Summarize(practitioners),
		Practitioners: rows,
	}, nil
}

// Attendees returns the cached CRM subscriber listing.
func (s *Service) Attendees(ctx context.Context) ([]model.Attendee, error) {
	return fetchAs(ctx, s.store, keySubscribers(), s.upstream.Subscribers)
}

// UpdateTags forwards a tag replacement for one subscriber under the same
// fire-and-once contract as enrollments, then invalidates the subscriber
// listing.
func (s *Service) UpdateTags(ctx context.Context, subscriberID int, idempotencyKey string, tags []string) error {
	if idempotencyKey != "" && s.deduper.SeenAndRecord(ctx, idempotencyKey) {
		metrics.RecordTagUpdateDuplicate()
		return fmt.Errorf("%w: %s", ErrDuplicateSubmission, idempotencyKey)
	}

	if err := s.upstream.UpdateTags(ctx, subscriberID, tags); err != nil {
		if idempotencyKey != "" {
			s.deduper.Unrecord(ctx, idempotencyKey)
		}
		return err
	}

	metrics.RecordTagUpdate()
	s.store.Invalidate(ctx, keySubscribers(), "mutation")
	return nil
}

// EligibleAttendees returns the certification-eligible LearnDash users.
func (s *Service) EligibleAttendees(ctx context.Context) ([]model.Attendee, error) {
	attendees, err := fetchAs(ctx, s.store, keyLearnDash(), s.upstream.LearnDashUsers)
	if err != nil {
		return nil, err
	}
	return compliance.EligibleAttendees(attendees), nil
}

// Enroll forwards one enrollment. A repeated idempotency key is rejected
// without reaching the upstream; a forwarding failure unrecords the key so
// the client may retry. Success invalidates the event's roster entry.
func (s *Service) Enroll(ctx context.Context, eventID int, idempotencyKey string, p model.Participant) error {
	if idempotencyKey != "" && s.deduper.SeenAndRecord(ctx, idempotencyKey) {
		metrics.RecordEnrollmentDuplicate()
		return fmt.Errorf("%w: %s", ErrDuplicateSubmission, idempotencyKey)
	}

	if err := s.upstream.Enroll(ctx, eventID, p); err != nil {
		if idempotencyKey != "" {
			s.deduper.Unrecord(ctx, idempotencyKey)
		}
		return err
	}

	metrics.RecordEnrollment()
	s.store.Invalidate(ctx, keyRoster(eventID), "mutation")
	return nil
}

// BulkEnroll forwards a batch enrollment under a single idempotency key.
func (s *Service) BulkEnroll(ctx context.Context, eventID int, idempotencyKey string, ps []model.Participant) error {
	if idempotencyKey != "" && s.deduper.SeenAndRecord(ctx, idempotencyKey) {
		metrics.RecordEnrollmentDuplicate()
		return fmt.Errorf("%w: %s", ErrDuplicateSubmission, idempotencyKey)
	}

	if err := s.upstream.BulkEnroll(ctx, eventID, ps); err != nil {
		if idempotencyKey != "" {
			s.deduper.Unrecord(ctx, idempotencyKey)
		}
		return err
	}

	metrics.RecordEnrollment()
	s.store.Invalidate(ctx, keyRoster(eventID), "mutation")
	return nil
}

// Health probes the upstream.
func (s *Service) Health(ctx context.Context) error {
	return s.upstream.Health(ctx)
}

// watchRoster subscribes an event's roster to push invalidation, once.
func (s *Service) watchRoster(eventID int) {
	if s.push == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rosterSubs[eventID]; ok {
		return
	}

	events, release, err := s.push.Subscribe(rosterTopic(eventID))
	if err != nil {
		s.logger.Warn(context.Background(), "roster push subscription failed",
			logger.Int("eventID", eventID), logger.Error(err))
		return
	}
	s.rosterSubs[eventID] = release

	go func() {
		for event := range events {
			if event.Event != studentEnrolledEvent {
				continue
			}
			s.store.Invalidate(context.Background(), keyRoster(eventID), "realtime")
		}
	}()
}
