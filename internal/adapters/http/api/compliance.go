package api

import (
	"context"
	"net/http"

	"github.com/jdarling/eventdash/internal/app"
	"github.com/jdarling/eventdash/internal/domain/model"
)

// ComplianceDependencies defines the interface for CEU compliance views.
type ComplianceDependencies interface {
	Compliance(ctx context.Context, state, profession string) (app.ComplianceReport, error)
	EligibleAttendees(ctx context.Context) ([]model.Attendee, error)
}

// ComplianceHandler handles CEU compliance and certification requests.
type ComplianceHandler struct {
	deps ComplianceDependencies
}

// NewComplianceHandler creates a new compliance handler.
func NewComplianceHandler(deps ComplianceDependencies) *ComplianceHandler {
	return &ComplianceHandler{deps: deps}
}

// HandleCompliance handles GET /api/compliance?state=&profession= requests.
func (h *ComplianceHandler) HandleCompliance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.deps.Compliance(r.Context(), q.Get("state"), q.Get("profession"))
	if err != nil {
		writeViewError(w, err)
		return
	}
	if report.Practitioners == nil {
		report.Practitioners = []app.ClassifiedPractitioner{}
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleEligible handles GET /api/certification/eligible requests.
func (h *ComplianceHandler) HandleEligible(w http.ResponseWriter, r *http.Request) {
	eligible, err := h.deps.EligibleAttendees(r.Context())
	if err != nil {
		writeViewError(w, err)
		return
	}
	if eligible == nil {
		eligible = []model.Attendee{}
	}
	writeJSON(w, http.StatusOK, eligible)
}
