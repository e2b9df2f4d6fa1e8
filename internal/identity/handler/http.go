package handler

import (
	"context"
	"net/http"

	"device-maintenance/backend/internal/identity/service"
	"device-maintenance/backend/internal/platform/httpjson"
)

// Authenticator is the subset of the auth service the HTTP layer calls.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Me(ctx context.Context) (*service.Profile, error)
}

// Handler serves /auth endpoints.
type Handler struct {
	auth Authenticator
}

// NewHandler returns an auth Handler.
func NewHandler(auth Authenticator) *Handler {
	return &Handler{auth: auth}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, r, err)
		return
	}
	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.auth.Me(r.Context())
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, p)
}
