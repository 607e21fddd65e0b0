package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jdarling/eventdash/internal/domain/analytics"
)

// maxProductsLimit bounds the limit query parameter.
const maxProductsLimit = 100

// AnalyticsDependencies defines the interface for revenue analytics views.
type AnalyticsDependencies interface {
	RevenueSeries(ctx context.Context) ([]analytics.RevenuePoint, error)
	TopProducts(ctx context.Context, limit int) ([]analytics.ProductRevenue, error)
}

// AnalyticsHandler handles revenue analytics requests.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// HandleRevenue handles GET /api/analytics/revenue requests.
func (h *AnalyticsHandler) HandleRevenue(w http.ResponseWriter, r *http.Request) {
	series, err := h.deps.RevenueSeries(r.Context())
	if err != nil {
		writeViewError(w, err)
		return
	}
	if series == nil {
		series = []analytics.RevenuePoint{}
	}
	writeJSON(w, http.StatusOK, series)
}

// HandleTopProducts handles GET /api/analytics/products?limit=N requests.
// A missing limit falls back to the service default.
func (h *AnalyticsHandler) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		if n > maxProductsLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded",
				fmt.Errorf("%w: limit above %d", ErrBadRequest, maxProductsLimit))
			return
		}
		limit = n
	}

	ranking, err := h.deps.TopProducts(r.Context(), limit)
	if err != nil {
		writeViewError(w, err)
		return
	}
	if ranking == nil {
		ranking = []analytics.ProductRevenue{}
	}
	writeJSON(w, http.StatusOK, ranking)
}
