package audit

import "testing"

func TestParseRoute(t *testing.T) {
	testCases := []struct {
		method, template string
		want             ActionResource
	}{
		{"POST", "/devices/{id}/notes", ActionResource{"note_added", "note"}},
		{"PUT", "/devices/{id}/notes/{noteId}", ActionResource{"note_updated", "note"}},
		{"DELETE", "/devices/{id}/notes/{noteId}", ActionResource{"note_deleted", "note"}},
		{"POST", "/devices/{id}/maintenance", ActionResource{"maintenance_recorded", "maintenance"}},
		{"PATCH", "/maintenance/{id}", ActionResource{"maintenance_updated", "maintenance"}},
		{"DELETE", "/maintenance/{id}", ActionResource{"maintenance_deleted", "maintenance"}},
		{"PATCH", "/users/{username}/access", ActionResource{"user_access_updated", "user"}},
		{"POST", "/sync", ActionResource{"sync_started", "sync"}},
		{"GET", "/devices", ActionResource{"get", "device"}},
		{"GET", "/reports/maintenance.csv", ActionResource{"get", "report"}},
		{"GET", "/audit-logs", ActionResource{"get", "audit_log"}},
		{"POST", "/", ActionResource{"create", "unknown"}},
		{"OPTIONS", "/devices", ActionResource{"options", "device"}},
	}
	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.template, func(t *testing.T) {
			if got := ParseRoute(tc.method, tc.template); got != tc.want {
				t.Errorf("ParseRoute = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestIsMutating(t *testing.T) {
	for _, m := range []string{"POST", "PUT", "PATCH", "DELETE"} {
		if !IsMutating(m) {
			t.Errorf("%s should be mutating", m)
		}
	}
	for _, m := range []string{"GET", "HEAD", "OPTIONS"} {
		if IsMutating(m) {
			t.Errorf("%s should not be mutating", m)
		}
	}
}
