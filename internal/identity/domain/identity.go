// Package domain holds the authenticated caller identity that is passed explicitly through
// request contexts into every service call.
package domain

import (
	userdomain "device-maintenance/backend/internal/user/domain"
)

// Identity is the resolved caller: who they are and the stored state the permission model needs.
type Identity struct {
	Username    string
	DisplayName string
	Role        userdomain.Role
	Overrides   userdomain.Overrides
}

// FromUser builds an Identity from a stored user.
func FromUser(u *userdomain.User) *Identity {
	if u == nil {
		return nil
	}
	return &Identity{
		Username:    u.Username,
		DisplayName: u.Name(),
		Role:        u.Role,
		Overrides:   u.Overrides,
	}
}

// Name returns the display name, then the username, then "Sistema" for anonymous system actions.
func (i *Identity) Name() string {
	if i == nil {
		return "Sistema"
	}
	if i.DisplayName != "" {
		return i.DisplayName
	}
	if i.Username != "" {
		return i.Username
	}
	return "Sistema"
}
