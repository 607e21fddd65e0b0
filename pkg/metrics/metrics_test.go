package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager", func() {
			manager := NewManager(WithPrometheusRegistry(registry), WithNamespace("test"))

			Convey("Then all metric families should be registered", func() {
				So(manager, ShouldNotBeNil)
				So(manager.gatewayRequests, ShouldNotBeNil)
				So(manager.cacheHits, ShouldNotBeNil)
				So(manager.refreshQueueDepth, ShouldNotBeNil)
				So(manager.httpRequests, ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording across all families", func() {
			RecordGatewayRequest("orders", "ok")
			RecordGatewayRequestDuration("orders", 12.5)
			RecordGatewayAuthRetry()
			RecordGatewayError("orders", "transport")
			RecordCacheHit()
			RecordCacheMiss()
			RecordCacheInvalidation("manual")
			UpdateCacheEntries(3)
			UpdateCacheWatchers(1)
			UpdateRefreshQueueDepth(2)
			UpdateRefreshQueueCapacity(100)
			RecordRefreshDrop()
			RecordRefreshJobDuration(4.2)
			RecordRefreshError()
			RecordPollTick()
			RecordRealtimeEvent("event-roster-1")
			RecordRealtimeDisconnect()
			RecordEnrollment()
			RecordEnrollmentDuplicate()
			RecordHTTPRequest("analytics_revenue", "GET", "200")
			RecordHTTPRequestDuration("analytics_revenue", "GET", "200", 1.0)

			Convey("Then the scrape endpoint should expose them", func() {
				rec := httptest.NewRecorder()
				req := httptest.NewRequest("GET", "/metrics", nil)
				Handler().ServeHTTP(rec, req)
				So(rec.Code, ShouldEqual, 200)
				So(rec.Body.String(), ShouldContainSubstring, "eventdash_cache_hits_total")
				So(rec.Body.String(), ShouldContainSubstring, "eventdash_gateway_requests_total")
			})
		})
	})
}
