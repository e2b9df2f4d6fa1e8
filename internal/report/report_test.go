package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	identitydomain "device-maintenance/backend/internal/identity/domain"
	maintdomain "device-maintenance/backend/internal/maintenance/domain"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/policy/engine"
	"device-maintenance/backend/internal/server/middleware"
	userdomain "device-maintenance/backend/internal/user/domain"
)

// memEntries filters in memory the way the SQL query does.
type memEntries struct {
	mu      sync.Mutex
	entries []*maintdomain.Entry
	last    maintdomain.EntryFilter
	err     error
}

func (m *memEntries) ListEntries(ctx context.Context, f maintdomain.EntryFilter) ([]*maintdomain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = f
	if m.err != nil {
		return nil, m.err
	}
	var out []*maintdomain.Entry
	for _, e := range m.entries {
		if f.From != nil && e.PerformedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.PerformedAt.After(*f.To) {
			continue
		}
		if len(f.Kinds) > 0 {
			match := false
			for _, k := range f.Kinds {
				if e.Kind.Name() == k {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

type stubPolicy struct {
	decision engine.ExportDecision
	err      error
	got      engine.ExportInput
}

func (s *stubPolicy) EvaluateExport(ctx context.Context, in engine.ExportInput) (engine.ExportDecision, error) {
	s.got = in
	return s.decision, s.err
}

func entry(id, device string, kind maintdomain.Kind, at time.Time, tech string) *maintdomain.Entry {
	e := &maintdomain.Entry{
		Record: maintdomain.Record{
			ID:          id,
			DeviceID:    "dev-" + device,
			Kind:        kind,
			Description: "x",
			PerformedAt: at,
		},
		DeviceName: "PC-" + device,
		AssetTag:   "PAT-" + device,
	}
	if tech != "" {
		e.Technician = &tech
	}
	return e
}

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func datep(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func ctxAs(role userdomain.Role, o userdomain.Overrides) context.Context {
	return middleware.WithIdentity(context.Background(), &identitydomain.Identity{
		Username: "rita", DisplayName: "Rita", Role: role, Overrides: o,
	})
}

func january() *memEntries {
	prev, _ := maintdomain.NewPreventive(180)
	corr := maintdomain.NewCorrective()
	// Listed newest first, as the repository returns them.
	return &memEntries{entries: []*maintdomain.Entry{
		entry("r5", "E", prev, day(2024, 2, 1, 0), "Ana"),
		entry("r4", "D", prev, day(2024, 1, 31, 23), "Ana"),
		entry("r3", "C", corr, day(2024, 1, 15, 12), "Bruno"),
		entry("r2", "B", prev, day(2024, 1, 1, 0), ""),
		entry("r1", "A", prev, day(2023, 12, 31, 23), "Ana"),
	}}
}

func TestGenerate_PreventiveInJanuary(t *testing.T) {
	src := january()
	svc := NewService(src, nil, zerolog.Nop())
	ctx := ctxAs(userdomain.RoleAuditor, userdomain.Overrides{})

	res, err := svc.Generate(ctx, Request{From: datep(2024, 1, 1), To: datep(2024, 1, 31), Type: "Preventive"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Total != 2 || len(res.Items) != 2 {
		t.Fatalf("Total = %d, items = %d, want 2", res.Total, len(res.Items))
	}
	if res.Items[0].DeviceName != "PC-D" || res.Items[1].DeviceName != "PC-B" {
		t.Errorf("order = %s, %s", res.Items[0].DeviceName, res.Items[1].DeviceName)
	}
	if res.Items[0].PerformedAt != "2024-01-31T23:00:00Z" {
		t.Errorf("PerformedAt = %q", res.Items[0].PerformedAt)
	}
	if res.Items[1].Technician != "" {
		t.Errorf("missing technician should be empty, got %q", res.Items[1].Technician)
	}
	if res.Items[0].MaintenanceType != "preventive" {
		t.Errorf("MaintenanceType = %q", res.Items[0].MaintenanceType)
	}

	wantTo := time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC)
	if src.last.To == nil || !src.last.To.Equal(wantTo) {
		t.Errorf("filter To = %v, want %v", src.last.To, wantTo)
	}
}

func TestGenerate_OpenBoundsAndBoth(t *testing.T) {
	svc := NewService(january(), nil, zerolog.Nop())
	ctx := ctxAs(userdomain.RoleAdmin, userdomain.Overrides{})

	res, err := svc.Generate(ctx, Request{Type: "Ambos"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Total != 5 {
		t.Errorf("Total = %d, want 5", res.Total)
	}

	res, err = svc.Generate(ctx, Request{From: datep(2024, 1, 15), Type: "corretiva"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Total != 1 || res.Items[0].DeviceID != "dev-C" {
		t.Errorf("items = %+v", res.Items)
	}
}

func TestGenerate_FromTruncatesToStartOfDay(t *testing.T) {
	src := january()
	svc := NewService(src, nil, zerolog.Nop())
	ctx := ctxAs(userdomain.RoleAdmin, userdomain.Overrides{})

	from := time.Date(2024, 1, 31, 18, 30, 0, 0, time.UTC)
	if _, err := svc.Generate(ctx, Request{From: &from}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := day(2024, 1, 31, 0); src.last.From == nil || !src.last.From.Equal(want) {
		t.Errorf("filter From = %v, want %v", src.last.From, want)
	}
}

func TestGenerate_Errors(t *testing.T) {
	ctx := ctxAs(userdomain.RoleAdmin, userdomain.Overrides{})

	if _, err := NewService(january(), nil, zerolog.Nop()).Generate(ctx, Request{From: datep(2024, 2, 1), To: datep(2024, 1, 1)}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("from > to: err = %v, want validation", err)
	}
	if _, err := NewService(january(), nil, zerolog.Nop()).Generate(ctx, Request{Type: "weekly"}); apperr.FieldOf(err) != "type" {
		t.Errorf("bad type: err = %v, want validation on type", err)
	}
	if _, err := NewService(january(), nil, zerolog.Nop()).Generate(context.Background(), Request{}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("anonymous: err = %v, want unauthorized", err)
	}
	user := ctxAs(userdomain.RoleUser, userdomain.Overrides{})
	if _, err := NewService(january(), nil, zerolog.Nop()).Generate(user, Request{}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("plain user: err = %v, want forbidden", err)
	}
	granted := ctxAs(userdomain.RoleUser, userdomain.Overrides{GenerateReport: func() *bool { b := true; return &b }()})
	if _, err := NewService(january(), nil, zerolog.Nop()).Generate(granted, Request{}); err != nil {
		t.Errorf("user with override: %v", err)
	}
	down := &memEntries{err: errors.New("connection refused")}
	if _, err := NewService(down, nil, zerolog.Nop()).Generate(ctx, Request{}); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("store down: err = %v, want unavailable", err)
	}
}

func TestExport_Policy(t *testing.T) {
	ctx := ctxAs(userdomain.RoleAuditor, userdomain.Overrides{})

	capped := &stubPolicy{decision: engine.ExportDecision{Allow: true, MaxRows: 2}}
	res, err := NewService(january(), capped, zerolog.Nop()).Export(ctx, Request{Type: "ambos"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(res.Items) != 2 || res.Total != 5 || !res.Truncated {
		t.Errorf("capped export = %d items, total %d, truncated %v", len(res.Items), res.Total, res.Truncated)
	}
	if capped.got.Role != "auditor" || capped.got.Rows != 5 || capped.got.Type != "both" {
		t.Errorf("policy input = %+v", capped.got)
	}

	denied := &stubPolicy{decision: engine.ExportDecision{Allow: false, Reason: "no exports on weekends"}}
	var logged bytes.Buffer
	_, err = NewService(january(), denied, zerolog.New(&logged)).Export(ctx, Request{})
	if !errors.Is(err, apperr.ErrForbidden) || !strings.Contains(err.Error(), "weekends") {
		t.Errorf("denied export: err = %v", err)
	}
	for _, want := range []string{`"component":"report"`, `"message":"export denied"`, `"reason":"no exports on weekends"`} {
		if !strings.Contains(logged.String(), want) {
			t.Errorf("log %q missing %s", logged.String(), want)
		}
	}

	res, err = NewService(january(), nil, zerolog.Nop()).Export(ctx, Request{})
	if err != nil || len(res.Items) != 5 || res.Truncated {
		t.Errorf("no policy: %d items, truncated %v, err %v", len(res.Items), res.Truncated, err)
	}
}

func TestExport_WithOPADefaultPolicy(t *testing.T) {
	ctx := ctxAs(userdomain.RoleAdmin, userdomain.Overrides{})
	res, err := NewService(january(), engine.NewOPAEvaluator(""), zerolog.Nop()).Export(ctx, Request{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(res.Items) != 5 || res.Truncated {
		t.Errorf("default policy export = %d items, truncated %v", len(res.Items), res.Truncated)
	}
}

func TestRowColumnsOrder(t *testing.T) {
	r := Row{DeviceID: "d", DeviceName: "PC-1", AssetTag: "PAT-1", Technician: "Ana", MaintenanceType: "corrective", PerformedAt: "2024-01-02T03:04:05Z"}
	got := r.Columns()
	want := []string{"PC-1", "PAT-1", "Ana", "corrective", "2024-01-02T03:04:05Z"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Columns = %v, want %v", got, want)
	}
	if len(Header) != len(got) {
		t.Errorf("Header has %d columns, row has %d", len(Header), len(got))
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	rows := []Row{
		{DeviceName: "PC, sala 2", AssetTag: "PAT-1", Technician: "Ana", MaintenanceType: "preventive", PerformedAt: "2024-01-02T03:04:05Z"},
	}
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "device_name,asset_tag,technician,maintenance_type,performed_at\n" +
		"\"PC, sala 2\",PAT-1,Ana,preventive,2024-01-02T03:04:05Z\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestParseDate(t *testing.T) {
	if d, err := ParseDate("from", ""); d != nil || err != nil {
		t.Errorf("empty = %v, %v", d, err)
	}
	d, err := ParseDate("from", "2024-03-09")
	if err != nil || !d.Equal(day(2024, 3, 9, 0)) {
		t.Errorf("ParseDate = %v, %v", d, err)
	}
	if _, err := ParseDate("to", "09/03/2024"); apperr.FieldOf(err) != "to" {
		t.Errorf("bad date err = %v", err)
	}
}
