// Package metrics provides Prometheus metrics for the dashboard aggregation service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Upstream gateway metrics
	gatewayRequests        *prometheus.CounterVec
	gatewayRequestDuration *prometheus.HistogramVec
	gatewayAuthRetries     prometheus.Counter
	gatewayErrors          *prometheus.CounterVec

	// Query cache metrics
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations *prometheus.CounterVec
	cacheEntries       prometheus.Gauge
	cacheWatchers      prometheus.Gauge

	// Refresh pipeline metrics
	refreshQueueDepth    prometheus.Gauge
	refreshQueueCapacity prometheus.Gauge
	refreshDrops         prometheus.Counter
	refreshJobDuration   prometheus.Histogram
	refreshErrors        prometheus.Counter
	pollTicks            prometheus.Counter

	// Realtime invalidation metrics
	realtimeEvents      *prometheus.CounterVec
	realtimeDisconnects prometheus.Counter

	// Mutation metrics
	enrollments          prometheus.Counter
	enrollmentDuplicates prometheus.Counter
	tagUpdates           prometheus.Counter
	tagUpdateDuplicates  prometheus.Counter

	// HTTP surface metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "eventdash",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.gatewayRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "gateway_requests_total",
		Help:      "Upstream gateway requests by resource and outcome.",
	}, []string{"resource", "outcome"})

	m.gatewayRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "gateway_request_duration_ms",
		Help:      "Upstream gateway request latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"resource"})

	m.gatewayAuthRetries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "gateway_auth_retries_total",
		Help:      "Requests replayed after a 401 auth refresh.",
	})

	m.gatewayErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "gateway_errors_total",
		Help:      "Upstream gateway failures by resource and class.",
	}, []string{"resource", "class"})

	m.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "cache_hits_total",
		Help:      "Query cache hits.",
	})

	m.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "cache_misses_total",
		Help:      "Query cache misses (expired or absent).",
	})

	m.cacheInvalidations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "cache_invalidations_total",
		Help:      "Targeted cache invalidations by reason.",
	}, []string{"reason"})

	m.cacheEntries = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "cache_entries",
		Help:      "Current number of cached entries.",
	})

	m.cacheWatchers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "cache_watchers",
		Help:      "Current number of active poll watchers.",
	})

	m.refreshQueueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "refresh_queue_depth",
		Help:      "Current depth of the refresh job queue.",
	})

	m.refreshQueueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "refresh_queue_capacity",
		Help:      "Configured capacity of the refresh job queue.",
	})

	m.refreshDrops = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "refresh_drops_total",
		Help:      "Refresh jobs dropped because the queue was full.",
	})

	m.refreshJobDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "refresh_job_duration_ms",
		Help:      "Refresh job execution latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.refreshErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "refresh_errors_total",
		Help:      "Refresh jobs that failed against the upstream.",
	})

	m.pollTicks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "poll_ticks_total",
		Help:      "Poll ticks fired across all watched keys.",
	})

	m.realtimeEvents = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "realtime_events_total",
		Help:      "Realtime invalidation events received by topic.",
	}, []string{"topic"})

	m.realtimeDisconnects = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "realtime_disconnects_total",
		Help:      "Realtime connection drops.",
	})

	m.enrollments = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "enrollments_total",
		Help:      "Enrollment mutations forwarded upstream.",
	})

	m.enrollmentDuplicates = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "enrollment_duplicates_total",
		Help:      "Enrollment submissions rejected as duplicates.",
	})

	m.tagUpdates = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "tag_updates_total",
		Help:      "Subscriber tag mutations forwarded upstream.",
	})

	m.tagUpdateDuplicates = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "tag_update_duplicates_total",
		Help:      "Tag submissions rejected as duplicates.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})

	return m
}

// Gateway metrics functions.

// RecordGatewayRequest records an upstream request outcome.
func RecordGatewayRequest(resource, outcome string) {
	globalManager.gatewayRequests.WithLabelValues(resource, outcome).Inc()
}

// RecordGatewayRequestDuration records upstream latency in milliseconds.
func RecordGatewayRequestDuration(resource string, latencyMs float64) {
	globalManager.gatewayRequestDuration.WithLabelValues(resource).Observe(latencyMs)
}

// RecordGatewayAuthRetry records a request replayed after an auth refresh.
func RecordGatewayAuthRetry() {
	globalManager.gatewayAuthRetries.Inc()
}

// RecordGatewayError records an upstream failure with a coarse class.
func RecordGatewayError(resource, class string) {
	globalManager.gatewayErrors.WithLabelValues(resource, class).Inc()
}

// Cache metrics functions.

// RecordCacheHit records a cache hit.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss records a cache miss.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// RecordCacheInvalidation records a targeted invalidation.
// Reason is one of: manual, mutation, realtime, ttl.
func RecordCacheInvalidation(reason string) {
	globalManager.cacheInvalidations.WithLabelValues(reason).Inc()
}

// UpdateCacheEntries sets the current entry count.
func UpdateCacheEntries(count int) { globalManager.cacheEntries.Set(float64(count)) }

// UpdateCacheWatchers sets the current watcher count.
func UpdateCacheWatchers(count int) { globalManager.cacheWatchers.Set(float64(count)) }

// Refresh pipeline metrics functions.

// UpdateRefreshQueueDepth sets the current queue depth.
func UpdateRefreshQueueDepth(depth int) { globalManager.refreshQueueDepth.Set(float64(depth)) }

// UpdateRefreshQueueCapacity sets the configured queue capacity.
func UpdateRefreshQueueCapacity(capacity int) {
	globalManager.refreshQueueCapacity.Set(float64(capacity))
}

// RecordRefreshDrop records a dropped refresh job.
func RecordRefreshDrop() { globalManager.refreshDrops.Inc() }

// RecordRefreshJobDuration records refresh execution latency in milliseconds.
func RecordRefreshJobDuration(latencyMs float64) {
	globalManager.refreshJobDuration.Observe(latencyMs)
}

// RecordRefreshError records a failed refresh job.
func RecordRefreshError() { globalManager.refreshErrors.Inc() }

// RecordPollTick records a poll tick.
func RecordPollTick() { globalManager.pollTicks.Inc() }

// Realtime metrics functions.

// RecordRealtimeEvent records a received invalidation event.
func RecordRealtimeEvent(topic string) {
	globalManager.realtimeEvents.WithLabelValues(topic).Inc()
}

// RecordRealtimeDisconnect records a dropped realtime connection.
func RecordRealtimeDisconnect() { globalManager.realtimeDisconnects.Inc() }

// Mutation metrics functions.

// RecordEnrollment records a forwarded enrollment mutation.
func RecordEnrollment() { globalManager.enrollments.Inc() }

// RecordEnrollmentDuplicate records a deduplicated enrollment submission.
func RecordEnrollmentDuplicate() { globalManager.enrollmentDuplicates.Inc() }

// RecordTagUpdate records a forwarded subscriber tag mutation.
func RecordTagUpdate() { globalManager.tagUpdates.Inc() }

// RecordTagUpdateDuplicate records a deduplicated tag submission.
func RecordTagUpdateDuplicate() { globalManager.tagUpdateDuplicates.Inc() }

// HTTP metrics functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records HTTP request latency in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, latencyMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(latencyMs)
}

// Handler returns an HTTP handler exposing the custom registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
