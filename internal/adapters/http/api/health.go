package api

import (
	"context"
	"net/http"
)

// HealthDependencies defines the upstream probe used by the health check.
type HealthDependencies interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps HealthDependencies
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

type healthResponse struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream"`
}

// HandleHealth handles GET /healthz requests. The service itself answering
// means it is up; the upstream probe result is reported but degrades the
// response rather than failing it.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Upstream: "ok"}
	if err := h.deps.Health(r.Context()); err != nil {
		resp.Upstream = "unreachable"
	}
	writeJSON(w, http.StatusOK, resp)
}
