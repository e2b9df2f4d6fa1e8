package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"device-maintenance/backend/internal/device/service"
	"device-maintenance/backend/internal/platform/httpjson"
)

// Catalog is the device listing service.
type Catalog interface {
	ListDevices(ctx context.Context, q service.Query) (*service.Page, error)
	GetDevice(ctx context.Context, id string) (*service.Detail, error)
}

// Handler serves the device catalog endpoints.
type Handler struct {
	catalog Catalog
}

// NewHandler returns a device Handler.
func NewHandler(catalog Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// List handles GET /devices?tab=&q=&page=&page_size=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := httpjson.QueryInt(r, "page", 1)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	size, err := httpjson.QueryInt(r, "page_size", 0)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	q := r.URL.Query()
	out, err := h.catalog.ListDevices(r.Context(), service.Query{
		Tab:      q.Get("tab"),
		Search:   q.Get("q"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, out)
}

// Get handles GET /devices/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.catalog.GetDevice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, d)
}
