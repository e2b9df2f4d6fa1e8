package handler

import (
	"context"
	"net/http"

	"device-maintenance/backend/internal/audit/service"
	"device-maintenance/backend/internal/platform/httpjson"
)

// Lister pages through the audit trail.
type Lister interface {
	List(ctx context.Context, limit, offset int) (*service.Page, error)
}

// Handler serves GET /audit-logs.
type Handler struct {
	logs Lister
}

// NewHandler returns an audit Handler.
func NewHandler(logs Lister) *Handler {
	return &Handler{logs: logs}
}

// List handles GET /audit-logs?limit=&offset=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := httpjson.QueryInt(r, "limit", 0)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	offset, err := httpjson.QueryInt(r, "offset", 0)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	page, err := h.logs.List(r.Context(), limit, offset)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, page)
}
