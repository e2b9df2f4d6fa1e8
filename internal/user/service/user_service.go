// Package service implements user administration: listing accounts and changing their role
// and permission overrides.
package service

import (
	"context"
	"strings"

	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/rbac"
	"device-maintenance/backend/internal/status"
	"device-maintenance/backend/internal/telemetry"
	telemetrydomain "device-maintenance/backend/internal/telemetry/domain"
	"device-maintenance/backend/internal/user/domain"
)

const eventSource = "users"

// Repo is the minimal user repository needed by the service.
type Repo interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

// OverridesView shows stored overrides; null means the role default applies.
type OverridesView struct {
	AddNote           *bool `json:"add_note"`
	AddMaintenance    *bool `json:"add_maintenance"`
	GenerateReport    *bool `json:"generate_report"`
	ManagePermissions *bool `json:"manage_permissions"`
}

// View is a user as returned to the administration surface.
type View struct {
	ID           string            `json:"id"`
	Username     string            `json:"username"`
	DisplayName  string            `json:"display_name"`
	Email        string            `json:"email,omitempty"`
	Role         domain.Role       `json:"role"`
	Overrides    OverridesView     `json:"overrides"`
	Capabilities rbac.Capabilities `json:"capabilities"`
}

// ViewOf builds the View of u.
func ViewOf(u *domain.User) *View {
	return &View{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.Name(),
		Email:       u.Email,
		Role:        u.Role,
		Overrides: OverridesView{
			AddNote:           u.Overrides.AddNote,
			AddMaintenance:    u.Overrides.AddMaintenance,
			GenerateReport:    u.Overrides.GenerateReport,
			ManagePermissions: u.Overrides.ManagePermissions,
		},
		Capabilities: rbac.Resolve(u.Role, u.Overrides),
	}
}

// AccessPatch changes a user's role and overrides. Nil fields are left unchanged.
// ResetPermissions replaces the overrides with the (new) role's defaults before the explicit
// fields are applied.
type AccessPatch struct {
	Role              *string `json:"role"`
	AddNote           *bool   `json:"add_note"`
	AddMaintenance    *bool   `json:"add_maintenance"`
	GenerateReport    *bool   `json:"generate_report"`
	ManagePermissions *bool   `json:"manage_permissions"`
	ResetPermissions  bool    `json:"reset_permissions"`
}

// Service implements user administration.
type Service struct {
	users  Repo
	events telemetry.EventEmitter
	clock  status.Clock
}

// NewService returns a user administration service. events may be nil.
func NewService(users Repo, events telemetry.EventEmitter, clock status.Clock) *Service {
	if clock == nil {
		clock = status.SystemClock
	}
	return &Service{users: users, events: events, clock: clock}
}

// List returns every user ordered by username. Requires admin role or manage_permissions.
func (s *Service) List(ctx context.Context) ([]*View, error) {
	if _, err := rbac.RequireUserAdmin(ctx); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	out := make([]*View, 0, len(users))
	for _, u := range users {
		out = append(out, ViewOf(u))
	}
	return out, nil
}

// UpdateAccess applies patch to username. Requires admin role or manage_permissions.
// The built-in admin account cannot lose the admin role.
func (s *Service) UpdateAccess(ctx context.Context, username string, patch AccessPatch) (*View, error) {
	caller, err := rbac.RequireUserAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if patch.Role != nil && !domain.ValidRole(*patch.Role) {
		return nil, apperr.Validation("role", "must be admin, auditor or user")
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	if u == nil {
		return nil, apperr.NotFound("user")
	}

	role := u.Role
	if patch.Role != nil {
		role = domain.ParseRole(*patch.Role)
	}
	if strings.EqualFold(u.Username, domain.AdminUsername) && role != domain.RoleAdmin {
		return nil, apperr.Validation("role", "the admin account cannot lose the admin role")
	}

	updated := *u
	updated.Role = role
	if patch.ResetPermissions {
		updated.Overrides = rbac.ResetOverrides(role)
	}
	setOverride(&updated.Overrides.AddNote, patch.AddNote)
	setOverride(&updated.Overrides.AddMaintenance, patch.AddMaintenance)
	setOverride(&updated.Overrides.GenerateReport, patch.GenerateReport)
	setOverride(&updated.Overrides.ManagePermissions, patch.ManagePermissions)
	updated.UpdatedAt = s.clock()

	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, apperr.Unavailable(err)
	}

	view := ViewOf(&updated)
	telemetry.EmitAsync(s.events, telemetrydomain.New(telemetrydomain.EventUserAccessUpdated, eventSource,
		caller.Username, "", map[string]any{
			"target":       updated.Username,
			"role":         updated.Role,
			"reset":        patch.ResetPermissions,
			"capabilities": view.Capabilities,
		}))
	return view, nil
}

func setOverride(dst **bool, v *bool) {
	if v == nil {
		return
	}
	b := *v
	*dst = &b
}
