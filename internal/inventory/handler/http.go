package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"device-maintenance/backend/internal/inventory/service"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/httpjson"
)

// Syncer runs inventory synchronization.
type Syncer interface {
	Run(ctx context.Context) (service.Result, error)
	Start(ctx context.Context) (service.Status, error)
	Status(ctx context.Context) (service.Status, error)
}

// Handler serves /sync endpoints.
type Handler struct {
	syncer Syncer
}

// NewHandler returns a sync Handler.
func NewHandler(syncer Syncer) *Handler {
	return &Handler{syncer: syncer}
}

// Sync handles POST /sync?mode=async|sync. The default waits for the run; async returns 202 with
// the status at start and 409 when a run is already in progress.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	async, err := asyncMode(r)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	if async {
		st, err := h.syncer.Start(r.Context())
		if err != nil {
			httpjson.Error(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusAccepted, st)
		return
	}
	res, err := h.syncer.Run(r.Context())
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

// Status handles GET /sync/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.syncer.Status(r.Context())
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, st)
}

// asyncMode reads mode=async|sync, or the older boolean async= parameter.
func asyncMode(r *http.Request) (bool, error) {
	q := r.URL.Query()
	switch strings.ToLower(q.Get("mode")) {
	case "async":
		return true, nil
	case "sync":
		return false, nil
	case "":
	default:
		return false, apperr.Validation("mode", "must be async or sync")
	}
	if v := q.Get("async"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, apperr.Validation("async", "must be true or false")
		}
		return b, nil
	}
	return false, nil
}
