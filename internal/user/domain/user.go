package domain

import (
	"errors"
	"strings"
	"time"
)

// Role is the coarse access level of a user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAuditor Role = "auditor"
	RoleUser    Role = "user"
)

// AdminUsername is the built-in account that can never lose the admin role.
const AdminUsername = "admin"

// ParseRole normalizes s into a Role. Unknown or empty values fall back to RoleUser.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleAuditor:
		return RoleAuditor
	default:
		return RoleUser
	}
}

// ValidRole reports whether s names one of the three roles exactly.
func ValidRole(s string) bool {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin, RoleAuditor, RoleUser:
		return true
	}
	return false
}

// Overrides are explicit per-user capability grants. A nil field means no override is stored
// and the role default applies.
type Overrides struct {
	AddNote           *bool
	AddMaintenance    *bool
	GenerateReport    *bool
	ManagePermissions *bool
}

// User is a local account with its stored role and overrides.
type User struct {
	ID           string
	Username     string
	DisplayName  string
	Email        string
	PasswordHash string
	Role         Role
	Overrides    Overrides
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if s := strings.TrimSpace(u.DisplayName); s != "" {
		return s
	}
	return u.Username
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return errors.New("username is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
