package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	identitydomain "device-maintenance/backend/internal/identity/domain"
	inventoryservice "device-maintenance/backend/internal/inventory/service"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/rbac"
	"device-maintenance/backend/internal/report"
	"device-maintenance/backend/internal/server/middleware"
	userdomain "device-maintenance/backend/internal/user/domain"
	userservice "device-maintenance/backend/internal/user/service"
)

type fakeSyncer struct{ caller string }

func (f *fakeSyncer) Run(ctx context.Context) (inventoryservice.Result, error) {
	id, _ := middleware.IdentityFrom(ctx)
	f.caller = id.Username
	return inventoryservice.Result{ComputersSynced: 3, Message: "3 computadores sincronizados"}, nil
}

type fakeUsers struct {
	patch    userservice.AccessPatch
	username string
}

func (f *fakeUsers) List(context.Context) ([]*userservice.View, error) {
	return []*userservice.View{
		{Username: "admin", Role: userdomain.RoleAdmin, Capabilities: rbac.Capabilities{AddNote: true, AddMaintenance: true, GenerateReport: true, ManagePermissions: true}},
		{Username: "usuario", Role: userdomain.RoleUser, Capabilities: rbac.Capabilities{AddNote: true}},
	}, nil
}

func (f *fakeUsers) UpdateAccess(_ context.Context, username string, patch userservice.AccessPatch) (*userservice.View, error) {
	f.username, f.patch = username, patch
	return &userservice.View{Username: username, Role: userdomain.RoleUser}, nil
}

type fakeReports struct{ req report.Request }

func (f *fakeReports) Export(_ context.Context, req report.Request) (report.Result, error) {
	f.req = req
	return report.Result{
		Items:     []report.Row{{DeviceName: "PC-ADM-001", AssetTag: "PAT-0001", Technician: "Ana", MaintenanceType: "Preventiva", PerformedAt: "2026-01-10"}},
		Total:     2,
		Truncated: true,
	}, nil
}

type memAudit struct {
	mu      sync.Mutex
	actions []string
}

func (m *memAudit) LogEvent(_ context.Context, username, action, _, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, username+":"+action)
}

type harness struct {
	syncer  *fakeSyncer
	users   *fakeUsers
	reports *fakeReports
	audit   *memAudit
	closed  bool
}

func newHarness() *harness {
	return &harness{syncer: &fakeSyncer{}, users: &fakeUsers{}, reports: &fakeReports{}, audit: &memAudit{}}
}

func (h *harness) factory(context.Context, zerolog.Logger) (*Backend, error) {
	return &Backend{
		Syncer:  h.syncer,
		Users:   h.users,
		Reports: h.reports,
		Audit:   h.audit,
		Resolve: func(_ context.Context, username string) (*identitydomain.Identity, error) {
			if username == "ghost" {
				return nil, apperr.NotFound("user ghost")
			}
			return &identitydomain.Identity{Username: username, Role: userdomain.RoleAdmin}, nil
		},
		Close: func() error { h.closed = true; return nil },
	}, nil
}

func (h *harness) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(h.factory)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestSync_RunsAsUser(t *testing.T) {
	h := newHarness()
	out, _, err := h.run(t, "sync", "--as", "tecnico")
	require.NoError(t, err)
	require.Contains(t, out, "3 computadores sincronizados")
	require.Equal(t, "tecnico", h.syncer.caller)
	require.Equal(t, []string{"tecnico:sync_started"}, h.audit.actions)
	require.True(t, h.closed)
}

func TestUnknownActingUser(t *testing.T) {
	_, _, err := newHarness().run(t, "sync", "--as", "ghost")
	require.Error(t, err)
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUsersList(t *testing.T) {
	out, _, err := newHarness().run(t, "users", "list")
	require.NoError(t, err)
	require.Contains(t, out, "USERNAME")
	require.Contains(t, out, "usuario")

	out, _, err = newHarness().run(t, "users", "list", "--json")
	require.NoError(t, err)
	var views []userservice.View
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 2)
}

func TestUsersGrant(t *testing.T) {
	h := newHarness()
	_, _, err := h.run(t, "users", "grant", "usuario", "--add-maintenance=true", "--generate-report", "false", "--role", "auditor")
	require.NoError(t, err)
	require.Equal(t, "usuario", h.users.username)
	require.NotNil(t, h.users.patch.AddMaintenance)
	require.True(t, *h.users.patch.AddMaintenance)
	require.NotNil(t, h.users.patch.GenerateReport)
	require.False(t, *h.users.patch.GenerateReport)
	require.Nil(t, h.users.patch.AddNote)
	require.Equal(t, "auditor", *h.users.patch.Role)
	require.Equal(t, []string{"admin:user_access_updated"}, h.audit.actions)

	_, _, err = newHarness().run(t, "users", "grant", "usuario", "--add-note", "maybe")
	require.Error(t, err)
}

func TestReport_WritesCSV(t *testing.T) {
	h := newHarness()
	out, errOut, err := h.run(t, "report", "--from", "2026-01-01", "--to", "2026-01-31", "--type", "preventive")
	require.NoError(t, err)
	require.Equal(t, "device_name,asset_tag,technician,maintenance_type,performed_at\nPC-ADM-001,PAT-0001,Ana,Preventiva,2026-01-10\n", out)
	require.Contains(t, errOut, "truncated to 1 of 2")
	require.Equal(t, "preventive", h.reports.req.Type)
	require.Equal(t, "2026-01-01", h.reports.req.From.Format(report.DateLayout))
}

func TestReport_BadDate(t *testing.T) {
	_, _, err := newHarness().run(t, "report", "--from", "01/01/2026")
	require.Error(t, err)
}
