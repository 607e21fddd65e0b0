package app

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/jdarling/eventdash/internal/domain/alerting"
	"github.com/jdarling/eventdash/internal/domain/model"
	"github.com/jdarling/eventdash/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

// fakeUpstream is an in-memory Upstream with call counters.
type fakeUpstream struct {
	mu sync.Mutex

	orders        []model.Order
	events        []model.Event
	subscribers   []model.Attendee
	learndash     []model.Attendee
	dangerZone    []model.DangerZoneEntry
	rosters       map[int][]model.Attendee
	instruments   map[int]model.InstrumentSummary
	practitioners []model.Practitioner

	enrollErr error
	tagsErr   error

	ordersCalls      int
	subscribersCalls int
	rosterCalls      int
	enrollCalls      int
	tagsCalls        int
}

func (f *fakeUpstream) Orders(_ context.Context, _ url.Values) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ordersCalls++
	return f.orders, nil
}

func (f *fakeUpstream) Products(_ context.Context) ([]model.Event, error) {
	return f.events, nil
}

func (f *fakeUpstream) Subscribers(_ context.Context) ([]model.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribersCalls++
	return f.subscribers, nil
}

func (f *fakeUpstream) LearnDashUsers(_ context.Context) ([]model.Attendee, error) {
	return f.learndash, nil
}

func (f *fakeUpstream) DangerZone(_ context.Context) ([]model.DangerZoneEntry, error) {
	return f.dangerZone, nil
}

func (f *fakeUpstream) EventRoster(_ context.Context, eventID int) ([]model.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rosterCalls++
	return f.rosters[eventID], nil
}

func (f *fakeUpstream) InstrumentSummary(_ context.Context, eventID int) (model.InstrumentSummary, error) {
	return f.instruments[eventID], nil
}

func (f *fakeUpstream) CEUCompliance(_ context.Context, _, _ string) ([]model.Practitioner, error) {
	return f.practitioners, nil
}

func (f *fakeUpstream) Health(_ context.Context) error { return nil }

func (f *fakeUpstream) Enroll(_ context.Context, _ int, _ model.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrollCalls++
	return f.enrollErr
}

func (f *fakeUpstream) BulkEnroll(_ context.Context, _ int, _ []model.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrollCalls++
	return f.enrollErr
}

func (f *fakeUpstream) UpdateTags(_ context.Context, _ int, _ []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagsCalls++
	return f.tagsErr
}

func startedService(t *testing.T, upstream *fakeUpstream, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{
		WithUpstream(upstream),
		WithPollInterval(time.Hour), // keep poll ticks out of unit tests
	}, opts...)
	svc := New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service with no upstream", t, func() {
		svc := New()

		Convey("When started", func() {
			err := svc.Start(context.Background())

			Convey("Then startup is refused", func() {
				So(err, ShouldEqual, ErrMissingUpstream)
			})
		})
	})

	Convey("Given a configured service", t, func() {
		svc := startedService(t, &fakeUpstream{})

		Convey("When started again", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
		})

		Convey("When stopped twice", func() {
			svc.Stop()
			So(svc.Stop, ShouldNotPanic)
		})
	})
}

func TestServiceAnalytics(t *testing.T) {
	Convey("Given cached orders", t, func() {
		upstream := &fakeUpstream{
			orders: []model.Order{
				{ID: 1, Total: "100.00", DateCreated: "2026-03-01T10:00:00", LineItems: []model.LineItem{
					{Name: "Essential Course", Total: "100.00"},
				}},
				{ID: 2, Total: "50.00", DateCreated: "2026-03-02T09:00:00", LineItems: []model.LineItem{
					{Name: "Tuning Fork Set", Total: "50.00"},
				}},
			},
		}
		svc := startedService(t, upstream)
		ctx := context.Background()

		Convey("When the revenue series is requested", func() {
			series, err := svc.RevenueSeries(ctx)

			Convey("Then one point per date is returned in order", func() {
				So(err, ShouldBeNil)
				So(series, ShouldHaveLength, 2)
				So(series[0].Date, ShouldEqual, "2026-03-01")
				So(series[0].Revenue, ShouldEqual, 100)
			})
		})

		Convey("When analytics views are requested twice", func() {
			_, err := svc.RevenueSeries(ctx)
			So(err, ShouldBeNil)
			_, err = svc.TopProducts(ctx, 5)
			So(err, ShouldBeNil)

			Convey("Then both served from one upstream fetch", func() {
				So(upstream.ordersCalls, ShouldEqual, 1)
			})
		})

		Convey("When the ranking limit is non-positive", func() {
			ranking, err := svc.TopProducts(ctx, 0)

			Convey("Then the configured default applies", func() {
				So(err, ShouldBeNil)
				So(len(ranking), ShouldBeLessThanOrEqualTo, 10)
			})
		})
	})
}

func TestServiceEventAlerts(t *testing.T) {
	Convey("Given an event with weak instrument sales", t, func() {
		upstream := &fakeUpstream{
			events: []model.Event{{ID: 7, Name: "Spring Training"}},
			instruments: map[int]model.InstrumentSummary{
				7: {TotalAttendees: 20, InstrumentPurchasers: 2},
			},
		}
		svc := startedService(t, upstream, WithAlertRules(alerting.Rules{
			ConversionThreshold: 30,
			InstrumentStock:     10,
		}))

		Convey("When alerts are evaluated", func() {
			alerts, err := svc.EventAlerts(context.Background(), 7)

			Convey("Then the low conversion and missing instructor rules fire", func() {
				So(err, ShouldBeNil)
				So(alerts, ShouldHaveLength, 2)
			})
		})

		Convey("When the event id is unknown", func() {
			_, err := svc.EventAlerts(context.Background(), 999)

			Convey("Then a not-found error is returned", func() {
				So(errors.Is(err, ErrEventNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestServiceRoster(t *testing.T) {
	Convey("Given a roster and purchase records", t, func() {
		upstream := &fakeUpstream{
			rosters: map[int][]model.Attendee{
				3: {
					{ID: 11, DisplayName: "Dana Reyes", Email: "dana@example.com"},
					{ID: 12, DisplayName: "Lee Okafor", Email: "lee@example.com"},
				},
			},
			instruments: map[int]model.InstrumentSummary{
				3: {Purchasers: []model.Purchaser{{UserID: 11, OrderID: "ord-88"}}},
			},
		}
		svc := startedService(t, upstream)

		Convey("When the decorated roster is requested", func() {
			merged, err := svc.EventRoster(context.Background(), 3)

			Convey("Then purchasers are decorated and the rest default", func() {
				So(err, ShouldBeNil)
				So(merged, ShouldHaveLength, 2)
				So(merged[0].PurchaseStatus, ShouldBeTrue)
				So(merged[0].OrderID, ShouldEqual, "ord-88")
				So(merged[1].PurchaseStatus, ShouldBeFalse)
			})
		})
	})
}

func TestServiceEnroll(t *testing.T) {
	Convey("Given a started service", t, func() {
		upstream := &fakeUpstream{
			rosters: map[int][]model.Attendee{5: {{ID: 1, Email: "a@example.com"}}},
			instruments: map[int]model.InstrumentSummary{
				5: {},
			},
		}
		svc := startedService(t, upstream)
		ctx := context.Background()
		participant := model.Participant{FirstName: "Ana", LastName: "Silva", Email: "ana@example.com"}

		Convey("When the same idempotency key is submitted twice", func() {
			So(svc.Enroll(ctx, 5, "key-1", participant), ShouldBeNil)
			err := svc.Enroll(ctx, 5, "key-1", participant)

			Convey("Then the duplicate never reaches the upstream", func() {
				So(errors.Is(err, ErrDuplicateSubmission), ShouldBeTrue)
				So(upstream.enrollCalls, ShouldEqual, 1)
			})
		})

		Convey("When a submission fails upstream", func() {
			upstream.enrollErr = errors.New("woo is down")
			So(svc.Enroll(ctx, 5, "key-2", participant), ShouldNotBeNil)

			Convey("Then the key is released for retry", func() {
				upstream.enrollErr = nil
				So(svc.Enroll(ctx, 5, "key-2", participant), ShouldBeNil)
			})
		})

		Convey("When an enrollment succeeds after a roster read", func() {
			_, err := svc.EventRoster(ctx, 5)
			So(err, ShouldBeNil)
			So(svc.Enroll(ctx, 5, "key-3", participant), ShouldBeNil)

			Convey("Then the next roster read refetches", func() {
				_, err := svc.EventRoster(ctx, 5)
				So(err, ShouldBeNil)
				So(upstream.rosterCalls, ShouldEqual, 2)
			})
		})

		Convey("When a bulk enrollment repeats a key", func() {
			batch := []model.Participant{participant}
			So(svc.BulkEnroll(ctx, 5, "bulk-1", batch), ShouldBeNil)
			err := svc.BulkEnroll(ctx, 5, "bulk-1", batch)

			Convey("Then it is rejected as a duplicate", func() {
				So(errors.Is(err, ErrDuplicateSubmission), ShouldBeTrue)
			})
		})
	})
}

func TestServiceSubscriberTags(t *testing.T) {
	Convey("Given a subscriber listing", t, func() {
		upstream := &fakeUpstream{
			subscribers: []model.Attendee{
				{ID: 21, DisplayName: "Mia Chen", Email: "mia@example.com", Tags: []model.Tag{{Title: "lead"}}},
				{ID: 22, DisplayName: "Raj Patel", Email: "raj@example.com"},
			},
		}
		svc := startedService(t, upstream)
		ctx := context.Background()

		Convey("When the listing is requested twice", func() {
			first, err := svc.Attendees(ctx)
			So(err, ShouldBeNil)
			_, err = svc.Attendees(ctx)
			So(err, ShouldBeNil)

			Convey("Then both reads share one upstream fetch", func() {
				So(first, ShouldHaveLength, 2)
				So(upstream.subscribersCalls, ShouldEqual, 1)
			})
		})

		Convey("When the same tag key is submitted twice", func() {
			So(svc.UpdateTags(ctx, 21, "tags-1", []string{"customer"}), ShouldBeNil)
			err := svc.UpdateTags(ctx, 21, "tags-1", []string{"customer"})

			Convey("Then the duplicate never reaches the upstream", func() {
				So(errors.Is(err, ErrDuplicateSubmission), ShouldBeTrue)
				So(upstream.tagsCalls, ShouldEqual, 1)
			})
		})

		Convey("When a tag update fails upstream", func() {
			upstream.tagsErr = errors.New("crm is down")
			So(svc.UpdateTags(ctx, 22, "tags-2", []string{"vip"}), ShouldNotBeNil)

			Convey("Then the key is released for retry", func() {
				upstream.tagsErr = nil
				So(svc.UpdateTags(ctx, 22, "tags-2", []string{"vip"}), ShouldBeNil)
			})
		})

		Convey("When a tag update succeeds after a listing read", func() {
			_, err := svc.Attendees(ctx)
			So(err, ShouldBeNil)
			So(svc.UpdateTags(ctx, 21, "tags-3", []string{"alumni"}), ShouldBeNil)

			Convey("Then the next listing read refetches", func() {
				_, err := svc.Attendees(ctx)
				So(err, ShouldBeNil)
				So(upstream.subscribersCalls, ShouldEqual, 2)
			})
		})
	})
}

func TestServiceCompliance(t *testing.T) {
	Convey("Given practitioners in mixed standing", t, func() {
		upstream := &fakeUpstream{
			practitioners: []model.Practitioner{
				{ID: 1, Name: "Dr. A", ComplianceStatus: "compliant"},
				{ID: 2, Name: "Dr. B", ComplianceStatus: "needs-renewal"},
				{ID: 3, Name: "Dr. C", ComplianceStatus: "lapsed"},
			},
			learndash: []model.Attendee{
				{ID: 1, Certification: "Eligible"},
				{ID: 2, Courses: []string{"Essential", "Advanced"}, Instruments: []string{"tuning fork"}},
				{ID: 3, Courses: []string{"Essential"}},
			},
		}
		svc := startedService(t, upstream)
		ctx := context.Background()

		Convey("When the compliance report is requested", func() {
			report, err := svc.Compliance(ctx, "CA", "")

			Convey("Then rows are classified and summarized", func() {
				So(err, ShouldBeNil)
				So(report.Practitioners, ShouldHaveLength, 3)
				So(string(report.Practitioners[2].Status), ShouldEqual, "non-compliant")
				So(report.Summary.Compliant, ShouldEqual, 1)
				So(report.Summary.NonCompliant, ShouldEqual, 1)
			})
		})

		Convey("When eligible attendees are requested", func() {
			eligible, err := svc.EligibleAttendees(ctx)

			Convey("Then only qualifying attendees remain", func() {
				So(err, ShouldBeNil)
				So(eligible, ShouldHaveLength, 2)
			})
		})
	})
}
