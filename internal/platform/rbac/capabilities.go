// Package rbac is the single authority that maps a role and stored overrides to capabilities,
// and enforces them on mutating calls. No call site re-implements the role mapping.
package rbac

import (
	userdomain "device-maintenance/backend/internal/user/domain"
)

// Capability names one gated action.
type Capability string

const (
	AddNote           Capability = "add_note"
	AddMaintenance    Capability = "add_maintenance"
	GenerateReport    Capability = "generate_report"
	ManagePermissions Capability = "manage_permissions"
)

// AllCapabilities lists every capability in display order.
var AllCapabilities = []Capability{AddNote, AddMaintenance, GenerateReport, ManagePermissions}

// Capabilities is the resolved permission set of a user.
type Capabilities struct {
	AddNote           bool `json:"add_note"`
	AddMaintenance    bool `json:"add_maintenance"`
	GenerateReport    bool `json:"generate_report"`
	ManagePermissions bool `json:"manage_permissions"`
}

// Has reports whether c grants capability.
func (c Capabilities) Has(capability Capability) bool {
	switch capability {
	case AddNote:
		return c.AddNote
	case AddMaintenance:
		return c.AddMaintenance
	case GenerateReport:
		return c.GenerateReport
	case ManagePermissions:
		return c.ManagePermissions
	default:
		return false
	}
}

// RoleDefaults returns the capabilities a role grants when no override is stored.
func RoleDefaults(role userdomain.Role) Capabilities {
	switch role {
	case userdomain.RoleAdmin:
		return Capabilities{AddNote: true, AddMaintenance: true, GenerateReport: true, ManagePermissions: true}
	case userdomain.RoleAuditor:
		return Capabilities{GenerateReport: true}
	default:
		return Capabilities{}
	}
}

// Resolve returns the effective capabilities: stored overrides win over role defaults,
// except that admin always holds every capability.
func Resolve(role userdomain.Role, o userdomain.Overrides) Capabilities {
	c := RoleDefaults(role)
	if role == userdomain.RoleAdmin {
		return c
	}
	pick(&c.AddNote, o.AddNote)
	pick(&c.AddMaintenance, o.AddMaintenance)
	pick(&c.GenerateReport, o.GenerateReport)
	pick(&c.ManagePermissions, o.ManagePermissions)
	return c
}

func pick(dst *bool, override *bool) {
	if override != nil {
		*dst = *override
	}
}

// ResetOverrides returns explicit overrides equal to role's defaults. User administration offers
// this when a role changes; it is applied only when the caller asks for it.
func ResetOverrides(role userdomain.Role) userdomain.Overrides {
	d := RoleDefaults(role)
	return userdomain.Overrides{
		AddNote:           boolPtr(d.AddNote),
		AddMaintenance:    boolPtr(d.AddMaintenance),
		GenerateReport:    boolPtr(d.GenerateReport),
		ManagePermissions: boolPtr(d.ManagePermissions),
	}
}

func boolPtr(b bool) *bool { return &b }
