package rbac

import (
	"context"

	identitydomain "device-maintenance/backend/internal/identity/domain"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/server/middleware"
	userdomain "device-maintenance/backend/internal/user/domain"
)

// CapabilitiesOf resolves the capabilities of id. A nil identity has none.
func CapabilitiesOf(id *identitydomain.Identity) Capabilities {
	if id == nil {
		return Capabilities{}
	}
	return Resolve(id.Role, id.Overrides)
}

// RequireIdentity returns the caller identity from ctx or apperr.ErrUnauthorized.
// Used by read operations that need an authenticated caller but no capability.
func RequireIdentity(ctx context.Context) (*identitydomain.Identity, error) {
	id, ok := middleware.IdentityFrom(ctx)
	if !ok || id.Username == "" {
		return nil, apperr.ErrUnauthorized
	}
	return id, nil
}

// Require ensures the caller is authenticated and holds capability.
// Returns the identity on success; Unauthorized or Forbidden otherwise.
func Require(ctx context.Context, capability Capability) (*identitydomain.Identity, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if !CapabilitiesOf(id).Has(capability) {
		return nil, apperr.Forbidden(string(capability) + " permission required")
	}
	return id, nil
}

// RequireUserAdmin gates the user-administration surface: role admin or the manage_permissions
// capability. Both predicates are checked on every call.
func RequireUserAdmin(ctx context.Context) (*identitydomain.Identity, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	isAdmin := id.Role == userdomain.RoleAdmin
	canManage := CapabilitiesOf(id).ManagePermissions
	if !isAdmin && !canManage {
		return nil, apperr.Forbidden("admin role or manage_permissions required")
	}
	return id, nil
}

// RequireAdmin ensures the caller has the admin role (inventory sync and similar operator actions).
func RequireAdmin(ctx context.Context) (*identitydomain.Identity, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if id.Role != userdomain.RoleAdmin {
		return nil, apperr.Forbidden("admin role required")
	}
	return id, nil
}
