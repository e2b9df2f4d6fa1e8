package middleware

import (
	"context"
	"net/http"
	"strings"

	identitydomain "device-maintenance/backend/internal/identity/domain"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/httpjson"
)

const bearerPrefix = "bearer "

// TokenResolver turns a bearer token into the caller identity.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*identitydomain.Identity, error)
}

// Authenticate validates the Bearer token and stores the identity in the request context.
// Requests without a valid token are rejected with 401 before reaching the handler.
func Authenticate(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				httpjson.Error(w, r, apperr.ErrUnauthorized)
				return
			}
			id, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				httpjson.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// StaticIdentity runs every request as id. Used only when authentication is disabled.
func StaticIdentity(id *identitydomain.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// extractBearer returns the Bearer token from the Authorization header, or "" if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
