package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"device-maintenance/backend/internal/platform/httpjson"
	"device-maintenance/backend/internal/user/service"
)

// Admin is the user administration service.
type Admin interface {
	List(ctx context.Context) ([]*service.View, error)
	UpdateAccess(ctx context.Context, username string, patch service.AccessPatch) (*service.View, error)
}

// Handler serves /users endpoints.
type Handler struct {
	users Admin
}

// NewHandler returns a users Handler.
func NewHandler(users Admin) *Handler {
	return &Handler{users: users}
}

// List handles GET /users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, users)
}

// UpdateAccess handles PATCH /users/{username}/access.
func (h *Handler) UpdateAccess(w http.ResponseWriter, r *http.Request) {
	var patch service.AccessPatch
	if err := httpjson.Decode(w, r, &patch); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	v, err := h.users.UpdateAccess(r.Context(), mux.Vars(r)["username"], patch)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, v)
}
