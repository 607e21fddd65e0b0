// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jdarling/eventdash/internal/app"
	"github.com/jdarling/eventdash/internal/domain/alerting"
	"github.com/jdarling/eventdash/internal/domain/analytics"
	"github.com/jdarling/eventdash/internal/domain/model"
	"github.com/jdarling/eventdash/internal/domain/roster"
	"github.com/jdarling/eventdash/internal/gateway"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RevenueSeries(ctx context.Context) ([]analytics.RevenuePoint, error)
	TopProducts(ctx context.Context, limit int) ([]analytics.ProductRevenue, error)
	DangerZone(ctx context.Context) ([]model.DangerZoneEntry, error)
	EventAlerts(ctx context.Context, eventID int) ([]alerting.Alert, error)
	EventRoster(ctx context.Context, eventID int) ([]roster.DecoratedAttendee, error)
	InstrumentSummary(ctx context.Context, eventID int) (model.InstrumentSummary, error)
	Compliance(ctx context.Context, state, profession string) (app.ComplianceReport, error)
	EligibleAttendees(ctx context.Context) ([]model.Attendee, error)
	Attendees(ctx context.Context) ([]model.Attendee, error)
	Enroll(ctx context.Context, eventID int, idempotencyKey string, p model.Participant) error
	BulkEnroll(ctx context.Context, eventID int, idempotencyKey string, ps []model.Participant) error
	UpdateTags(ctx context.Context, subscriberID int, idempotencyKey string, tags []string) error
	Health(ctx context.Context) error
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	healthHandler      *HealthHandler
	analyticsHandler   *AnalyticsHandler
	eventsHandler      *EventsHandler
	complianceHandler  *ComplianceHandler
	enrollHandler      *EnrollHandler
	subscribersHandler *SubscribersHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(deps),
		analyticsHandler:   NewAnalyticsHandler(deps),
		eventsHandler:      NewEventsHandler(deps),
		complianceHandler:  NewComplianceHandler(deps),
		enrollHandler:      NewEnrollHandler(deps),
		subscribersHandler: NewSubscribersHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /api/analytics/revenue", MetricsMiddleware(s.analyticsHandler.HandleRevenue, "analytics_revenue"))
	mux.HandleFunc("GET /api/analytics/products", MetricsMiddleware(s.analyticsHandler.HandleTopProducts, "analytics_products"))
	mux.HandleFunc("GET /api/events/danger-zone", MetricsMiddleware(s.eventsHandler.HandleDangerZone, "danger_zone"))
	mux.HandleFunc("GET /api/events/{id}/alerts", MetricsMiddleware(s.eventsHandler.HandleAlerts, "event_alerts"))
	mux.HandleFunc("GET /api/events/{id}/roster", MetricsMiddleware(s.eventsHandler.HandleRoster, "event_roster"))
	mux.HandleFunc("GET /api/events/{id}/instruments", MetricsMiddleware(s.eventsHandler.HandleInstruments, "event_instruments"))
	mux.HandleFunc("GET /api/attendees", MetricsMiddleware(s.subscribersHandler.HandleAttendees, "attendees"))
	mux.HandleFunc("GET /api/compliance", MetricsMiddleware(s.complianceHandler.HandleCompliance, "compliance"))
	mux.HandleFunc("GET /api/certification/eligible", MetricsMiddleware(s.complianceHandler.HandleEligible, "certification_eligible"))
	mux.HandleFunc("POST /api/events/{id}/enroll", MetricsMiddleware(s.enrollHandler.HandleEnroll, "enroll"))
	mux.HandleFunc("POST /api/events/{id}/enroll/bulk", MetricsMiddleware(s.enrollHandler.HandleBulkEnroll, "enroll_bulk"))
	mux.HandleFunc("POST /api/subscribers/{id}/tags", MetricsMiddleware(s.subscribersHandler.HandleUpdateTags, "subscriber_tags"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeViewError translates service errors onto the API status space: event
// lookups that miss are 404, upstream failures are 502, everything else 500.
func writeViewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, gateway.ErrAuth), errors.Is(err, gateway.ErrUpstream), errors.Is(err, gateway.ErrDecode):
		writeError(w, http.StatusBadGateway, "upstream_error", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
