package middleware

import (
	"context"

	identitydomain "device-maintenance/backend/internal/identity/domain"
)

type contextKey struct{ name string }

var (
	identityKey  = contextKey{"identity"}
	requestIDKey = contextKey{"request_id"}
	clientIPKey  = contextKey{"client_ip"}
)

// WithIdentity returns a context carrying the authenticated identity.
// Services read it via IdentityFrom; nothing reads identity from process-wide state.
func WithIdentity(ctx context.Context, id *identitydomain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity from context and true if set; otherwise nil, false.
func IdentityFrom(ctx context.Context) (*identitydomain.Identity, bool) {
	v, ok := ctx.Value(identityKey).(*identitydomain.Identity)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// WithRequestID returns a context with the request id set.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns the request id from context and true if set; otherwise "", false.
func GetRequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey).(string)
	return v, ok
}

// WithClientIP returns a context with the client IP set.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFrom returns the client IP stored in ctx, or "unknown".
func ClientIPFrom(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
