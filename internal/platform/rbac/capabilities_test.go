package rbac

import (
	"testing"

	userdomain "device-maintenance/backend/internal/user/domain"
)

func ptr(b bool) *bool { return &b }

func TestRoleDefaults(t *testing.T) {
	testCases := []struct {
		role userdomain.Role
		want Capabilities
	}{
		{userdomain.RoleAdmin, Capabilities{AddNote: true, AddMaintenance: true, GenerateReport: true, ManagePermissions: true}},
		{userdomain.RoleAuditor, Capabilities{GenerateReport: true}},
		{userdomain.RoleUser, Capabilities{}},
		{userdomain.Role("intern"), Capabilities{}},
	}
	for _, tc := range testCases {
		t.Run(string(tc.role), func(t *testing.T) {
			if got := RoleDefaults(tc.role); got != tc.want {
				t.Errorf("RoleDefaults(%q) = %+v, want %+v", tc.role, got, tc.want)
			}
		})
	}
}

func TestResolve_UserWithoutOverridesHasNothing(t *testing.T) {
	got := Resolve(userdomain.RoleUser, userdomain.Overrides{})
	for _, c := range AllCapabilities {
		if got.Has(c) {
			t.Errorf("role user without overrides should not have %s", c)
		}
	}
}

func TestResolve_AdminIgnoresOverrides(t *testing.T) {
	denyAll := userdomain.Overrides{
		AddNote: ptr(false), AddMaintenance: ptr(false), GenerateReport: ptr(false), ManagePermissions: ptr(false),
	}
	got := Resolve(userdomain.RoleAdmin, denyAll)
	for _, c := range AllCapabilities {
		if !got.Has(c) {
			t.Errorf("admin should always have %s", c)
		}
	}
}

func TestResolve_OverridesWinOverRoleDefaults(t *testing.T) {
	got := Resolve(userdomain.RoleAuditor, userdomain.Overrides{
		AddNote:        ptr(true),
		GenerateReport: ptr(false),
	})
	want := Capabilities{AddNote: true}
	if got != want {
		t.Errorf("Resolve = %+v, want %+v", got, want)
	}
}

func TestResolve_PartialOverrideKeepsOtherDefaults(t *testing.T) {
	got := Resolve(userdomain.RoleAuditor, userdomain.Overrides{AddMaintenance: ptr(true)})
	if !got.GenerateReport || !got.AddMaintenance || got.AddNote || got.ManagePermissions {
		t.Errorf("Resolve = %+v", got)
	}
}

func TestResetOverrides_MatchesDefaults(t *testing.T) {
	for _, role := range []userdomain.Role{userdomain.RoleAdmin, userdomain.RoleAuditor, userdomain.RoleUser} {
		o := ResetOverrides(role)
		if o.AddNote == nil || o.AddMaintenance == nil || o.GenerateReport == nil || o.ManagePermissions == nil {
			t.Fatalf("ResetOverrides(%q) left a nil field: %+v", role, o)
		}
		if got := Resolve(role, o); got != RoleDefaults(role) {
			t.Errorf("Resolve(%q, ResetOverrides) = %+v, want %+v", role, got, RoleDefaults(role))
		}
	}
}

func TestHas_UnknownCapability(t *testing.T) {
	all := RoleDefaults(userdomain.RoleAdmin)
	if all.Has(Capability("delete_everything")) {
		t.Error("unknown capability must never be granted")
	}
}
