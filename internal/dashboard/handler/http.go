package handler

import (
	"context"
	"net/http"

	"device-maintenance/backend/internal/dashboard"
	"device-maintenance/backend/internal/platform/httpjson"
)

// MetricsSource computes the dashboard counts.
type MetricsSource interface {
	Metrics(ctx context.Context) (*dashboard.Metrics, error)
}

// Handler serves GET /dashboard/metrics.
type Handler struct {
	metrics MetricsSource
}

// NewHandler returns a dashboard Handler.
func NewHandler(metrics MetricsSource) *Handler {
	return &Handler{metrics: metrics}
}

// Metrics handles GET /dashboard/metrics.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.metrics.Metrics(r.Context())
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, m)
}
