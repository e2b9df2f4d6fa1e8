// Package report builds the maintenance report: ledger entries filtered by date range and kind,
// newest first, in the fixed export column order.
package report

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	maintdomain "device-maintenance/backend/internal/maintenance/domain"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/rbac"
	"device-maintenance/backend/internal/policy/engine"
)

// DateLayout is the format of the from/to query bounds.
const DateLayout = "2006-01-02"

// Type selects which maintenance kinds a report includes.
type Type string

const (
	TypePreventive Type = "preventive"
	TypeCorrective Type = "corrective"
	TypeBoth       Type = "both"
)

// ParseType accepts the English names, the legacy Portuguese ones and "" (both).
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "ambos", "all":
		return TypeBoth, nil
	case "preventive", "preventiva":
		return TypePreventive, nil
	case "corrective", "corretiva":
		return TypeCorrective, nil
	}
	return "", apperr.Validation("type", "must be preventive, corrective or both")
}

func (t Type) kinds() []maintdomain.KindName {
	switch t {
	case TypePreventive:
		return []maintdomain.KindName{maintdomain.KindPreventive}
	case TypeCorrective:
		return []maintdomain.KindName{maintdomain.KindCorrective}
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD bound. Empty input yields nil.
func ParseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return nil, apperr.Validation(field, "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}

// Header names the export columns, in the order of Row.Columns.
var Header = []string{"device_name", "asset_tag", "technician", "maintenance_type", "performed_at"}

// Row is one maintenance record in a report.
type Row struct {
	DeviceID        string `json:"device_id"`
	DeviceName      string `json:"device_name"`
	AssetTag        string `json:"asset_tag"`
	Technician      string `json:"technician"`
	MaintenanceType string `json:"maintenance_type"`
	PerformedAt     string `json:"performed_at"`
}

// Columns returns the row in export order: device name, asset tag, technician, type, performed-at.
func (r Row) Columns() []string {
	return []string{r.DeviceName, r.AssetTag, r.Technician, r.MaintenanceType, r.PerformedAt}
}

// Result is a generated report. Total counts every matching record even when Items was capped
// by the export policy.
type Result struct {
	Items     []Row `json:"items"`
	Total     int   `json:"total"`
	Truncated bool  `json:"truncated,omitempty"`
}

// Request holds the report filters. From and To are calendar dates; either may be nil.
type Request struct {
	From *time.Time
	To   *time.Time
	Type string
}

// EntrySource lists joined ledger entries.
type EntrySource interface {
	ListEntries(ctx context.Context, f maintdomain.EntryFilter) ([]*maintdomain.Entry, error)
}

// Service generates reports.
type Service struct {
	entries EntrySource
	policy  engine.Evaluator
	log     zerolog.Logger
}

// NewService returns a report service. policy may be nil, in which case exports are unrestricted.
func NewService(entries EntrySource, policy engine.Evaluator, log zerolog.Logger) *Service {
	return &Service{entries: entries, policy: policy, log: log.With().Str("component", "report").Logger()}
}

// Generate returns every matching record. Requires generate_report.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	if _, err := rbac.Require(ctx, rbac.GenerateReport); err != nil {
		return Result{}, err
	}
	filter, err := buildFilter(req)
	if err != nil {
		return Result{}, err
	}
	entries, err := s.entries.ListEntries(ctx, filter)
	if err != nil {
		return Result{}, apperr.Unavailable(err)
	}
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			rows = append(rows, toRow(e))
		}
	}
	return Result{Items: rows, Total: len(rows)}, nil
}

// Export generates the report and applies the export policy, which may deny the caller or cap
// the number of rows.
func (s *Service) Export(ctx context.Context, req Request) (Result, error) {
	res, err := s.Generate(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if s.policy == nil {
		return res, nil
	}
	id, err := rbac.RequireIdentity(ctx)
	if err != nil {
		return Result{}, err
	}
	t, _ := ParseType(req.Type)
	d, err := s.policy.EvaluateExport(ctx, engine.ExportInput{
		Username: id.Username,
		Role:     string(id.Role),
		Type:     string(t),
		Rows:     res.Total,
	})
	if err != nil {
		return Result{}, apperr.Unavailable(err)
	}
	if !d.Allow {
		reason := d.Reason
		if reason == "" {
			reason = "report export denied by policy"
		}
		s.log.Info().Str("username", id.Username).Str("reason", reason).Msg("export denied")
		return Result{}, apperr.Forbidden(reason)
	}
	if d.MaxRows > 0 && len(res.Items) > d.MaxRows {
		res.Items = res.Items[:d.MaxRows]
		res.Truncated = true
	}
	return res, nil
}

// buildFilter turns the request into a ledger filter: From at 00:00:00 and To through the last
// instant of its day, both UTC.
func buildFilter(req Request) (maintdomain.EntryFilter, error) {
	t, err := ParseType(req.Type)
	if err != nil {
		return maintdomain.EntryFilter{}, err
	}
	f := maintdomain.EntryFilter{Kinds: t.kinds()}
	if req.From != nil {
		from := startOfDay(*req.From)
		f.From = &from
	}
	if req.To != nil {
		to := startOfDay(*req.To).AddDate(0, 0, 1).Add(-time.Nanosecond)
		f.To = &to
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return maintdomain.EntryFilter{}, apperr.Validation("from", "must not be after to")
	}
	return f, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toRow(e *maintdomain.Entry) Row {
	r := Row{
		DeviceID:    e.DeviceID,
		DeviceName:  e.DeviceName,
		AssetTag:    e.AssetTag,
		PerformedAt: e.PerformedAt.UTC().Format(time.RFC3339),
	}
	if e.Technician != nil {
		r.Technician = *e.Technician
	}
	if e.Kind != nil {
		r.MaintenanceType = string(e.Kind.Name())
	}
	return r
}
