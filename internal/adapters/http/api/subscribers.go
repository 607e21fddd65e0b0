package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jdarling/eventdash/internal/domain/model"
)

// SubscribersDependencies defines the interface for the CRM subscriber views.
type SubscribersDependencies interface {
	Attendees(ctx context.Context) ([]model.Attendee, error)
	UpdateTags(ctx context.Context, subscriberID int, idempotencyKey string, tags []string) error
}

// SubscribersHandler handles subscriber listing and tag mutations.
type SubscribersHandler struct {
	deps SubscribersDependencies
}

// NewSubscribersHandler creates a new subscribers handler.
func NewSubscribersHandler(deps SubscribersDependencies) *SubscribersHandler {
	return &SubscribersHandler{deps: deps}
}

// subscriberID extracts and validates the {id} path segment.
func subscriberID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid subscriber id %q", ErrBadRequest, r.PathValue("id"))
	}
	return id, nil
}

// updateTagsRequest mirrors the tag replacement submission schema. Tags must
// be present; an empty list clears the subscriber's tags.
type updateTagsRequest struct {
	Tags           []string `json:"tags"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
}

// HandleAttendees handles GET /api/attendees requests.
func (h *SubscribersHandler) HandleAttendees(w http.ResponseWriter, r *http.Request) {
	attendees, err := h.deps.Attendees(r.Context())
	if err != nil {
		writeViewError(w, err)
		return
	}
	if attendees == nil {
		attendees = []model.Attendee{}
	}
	writeJSON(w, http.StatusOK, attendees)
}

// HandleUpdateTags handles POST /api/subscribers/{id}/tags requests.
func (h *SubscribersHandler) HandleUpdateTags(w http.ResponseWriter, r *http.Request) {
	id, err := subscriberID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req updateTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: invalid JSON body", ErrBadRequest))
		return
	}
	if req.Tags == nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: missing tags", ErrBadRequest))
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = r.Header.Get(idempotencyHeader)
	}

	if err := h.deps.UpdateTags(r.Context(), id, key, req.Tags); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "updated", Count: len(req.Tags)})
}
