package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jdarling/eventdash/internal/domain/alerting"
	"github.com/jdarling/eventdash/internal/domain/model"
	"github.com/jdarling/eventdash/internal/domain/roster"
)

// EventsDependencies defines the interface for per-event views.
type EventsDependencies interface {
	DangerZone(ctx context.Context) ([]model.DangerZoneEntry, error)
	EventAlerts(ctx context.Context, eventID int) ([]alerting.Alert, error)
	EventRoster(ctx context.Context, eventID int) ([]roster.DecoratedAttendee, error)
	InstrumentSummary(ctx context.Context, eventID int) (model.InstrumentSummary, error)
}

// EventsHandler handles event view requests.
type EventsHandler struct {
	deps EventsDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventsDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// eventID extracts and validates the {id} path segment.
func eventID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid event id %q", ErrBadRequest, r.PathValue("id"))
	}
	return id, nil
}

// HandleDangerZone handles GET /api/events/danger-zone requests.
func (h *EventsHandler) HandleDangerZone(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.DangerZone(r.Context())
	if err != nil {
		writeViewError(w, err)
		return
	}
	if entries == nil {
		entries = []model.DangerZoneEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleAlerts handles GET /api/events/{id}/alerts requests.
func (h *EventsHandler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	alerts, err := h.deps.EventAlerts(r.Context(), id)
	if err != nil {
		writeViewError(w, err)
		return
	}
	if alerts == nil {
		alerts = []alerting.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

// HandleRoster handles GET /api/events/{id}/roster requests.
func (h *EventsHandler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	merged, err := h.deps.EventRoster(r.Context(), id)
	if err != nil {
		writeViewError(w, err)
		return
	}
	if merged == nil {
		merged = []roster.DecoratedAttendee{}
	}
	writeJSON(w, http.StatusOK, merged)
}

// HandleInstruments handles GET /api/events/{id}/instruments requests.
func (h *EventsHandler) HandleInstruments(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	summary, err := h.deps.InstrumentSummary(r.Context(), id)
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
