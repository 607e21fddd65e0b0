package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jdarling/eventdash/internal/app"
	"github.com/jdarling/eventdash/internal/domain/model"
)

// idempotencyHeader carries the client idempotency key when the body omits it.
const idempotencyHeader = "Idempotency-Key"

// EnrollDependencies defines the interface for enrollment mutations.
type EnrollDependencies interface {
	Enroll(ctx context.Context, eventID int, idempotencyKey string, p model.Participant) error
	BulkEnroll(ctx context.Context, eventID int, idempotencyKey string, ps []model.Participant) error
}

// EnrollHandler handles enrollment submissions.
type EnrollHandler struct {
	deps EnrollDependencies
}

// NewEnrollHandler creates a new enrollment handler.
func NewEnrollHandler(deps EnrollDependencies) *EnrollHandler {
	return &EnrollHandler{deps: deps}
}

// enrollRequest mirrors the enrollment submission schema.
type enrollRequest struct {
	model.Participant
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// bulkEnrollRequest mirrors the bulk enrollment submission schema.
type bulkEnrollRequest struct {
	Participants   []model.Participant `json:"participants"`
	IdempotencyKey string              `json:"idempotency_key,omitempty"`
}

func validateParticipant(p model.Participant) error {
	switch {
	case strings.TrimSpace(p.Email) == "":
		return fmt.Errorf("%w: missing email", ErrBadRequest)
	case strings.TrimSpace(p.FirstName) == "" && strings.TrimSpace(p.LastName) == "":
		return fmt.Errorf("%w: missing name", ErrBadRequest)
	}
	return nil
}

type ackResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// HandleEnroll handles POST /api/events/{id}/enroll requests.
func (h *EnrollHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: invalid JSON body", ErrBadRequest))
		return
	}
	if err := validateParticipant(req.Participant); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = r.Header.Get(idempotencyHeader)
	}

	if err := h.deps.Enroll(r.Context(), id, key, req.Participant); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "enrolled", Count: 1})
}

// HandleBulkEnroll handles POST /api/events/{id}/enroll/bulk requests.
func (h *EnrollHandler) HandleBulkEnroll(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req bulkEnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: invalid JSON body", ErrBadRequest))
		return
	}
	if len(req.Participants) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: empty participants", ErrBadRequest))
		return
	}
	for _, p := range req.Participants {
		if err := validateParticipant(p); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
	}
	key := req.IdempotencyKey
	if key == "" {
		key = r.Header.Get(idempotencyHeader)
	}

	if err := h.deps.BulkEnroll(r.Context(), id, key, req.Participants); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ackResponse{Status: "enrolled", Count: len(req.Participants)})
}

// writeMutationError maps duplicate submissions to 409 and defers the rest
// to the shared view translation.
func writeMutationError(w http.ResponseWriter, err error) {
	if errors.Is(err, app.ErrDuplicateSubmission) {
		writeError(w, http.StatusConflict, "duplicate", err)
		return
	}
	writeViewError(w, err)
}
