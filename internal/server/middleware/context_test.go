package middleware

import (
	"context"
	"testing"

	identitydomain "device-maintenance/backend/internal/identity/domain"
	userdomain "device-maintenance/backend/internal/user/domain"
)

func TestWithIdentity_RoundTrip(t *testing.T) {
	id := &identitydomain.Identity{Username: "maria", Role: userdomain.RoleUser}
	got, ok := IdentityFrom(WithIdentity(context.Background(), id))
	if !ok {
		t.Fatal("IdentityFrom should return true")
	}
	if got != id {
		t.Errorf("identity = %+v, want %+v", got, id)
	}
}

func TestIdentityFrom_Missing(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Error("IdentityFrom should return false on empty context")
	}
	if _, ok := IdentityFrom(WithIdentity(context.Background(), nil)); ok {
		t.Error("IdentityFrom should return false for a nil identity")
	}
}

func TestRequestIDAndClientIP(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if v, ok := GetRequestID(ctx); !ok || v != "req-1" {
		t.Errorf("GetRequestID = %q, %v", v, ok)
	}
	if _, ok := GetRequestID(context.Background()); ok {
		t.Error("GetRequestID should return false when unset")
	}
	if got := ClientIPFrom(context.Background()); got != "unknown" {
		t.Errorf("ClientIPFrom = %q, want unknown", got)
	}
	if got := ClientIPFrom(WithClientIP(context.Background(), "10.0.0.7")); got != "10.0.0.7" {
		t.Errorf("ClientIPFrom = %q", got)
	}
}
