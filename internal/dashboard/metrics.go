// Package dashboard computes fleet-wide maintenance counts.
package dashboard

import (
	"context"
	"time"

	devicedomain "device-maintenance/backend/internal/device/domain"
	maintdomain "device-maintenance/backend/internal/maintenance/domain"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/rbac"
	"device-maintenance/backend/internal/status"
)

// WarningDoneExceedsNeeded flags more devices with completed preventive work than devices that
// have a schedule. The counts are reported unchanged.
const WarningDoneExceedsNeeded = "preventive_done_exceeds_needed"

// Metrics are the dashboard tiles. status_* counts always sum to total_computers.
type Metrics struct {
	TotalComputers            int      `json:"total_computers"`
	PreventiveNeededComputers int      `json:"preventive_needed_computers"`
	PreventiveDoneComputers   int      `json:"preventive_done_computers"`
	CorrectiveDoneTotal       int      `json:"corrective_done_total"`
	CorrectiveDoneComputers   int      `json:"corrective_done_computers"`
	CorrectiveOpenComputers   int      `json:"corrective_open_computers"`
	StatusOKComputers         int      `json:"status_ok_computers"`
	StatusLateComputers       int      `json:"status_late_computers"`
	StatusPendingComputers    int      `json:"status_pending_computers"`
	Warnings                  []string `json:"warnings"`
}

// Compute reduces the device snapshots and record summaries at now. It is pure.
func Compute(devices []*devicedomain.Snapshot, records []maintdomain.Summary, now time.Time) Metrics {
	preventive := make(map[string]bool)
	corrective := make(map[string]bool)
	correctiveEvents := 0
	for _, r := range records {
		switch r.Kind {
		case maintdomain.KindPreventive:
			preventive[r.DeviceID] = true
		case maintdomain.KindCorrective:
			corrective[r.DeviceID] = true
			correctiveEvents++
		}
	}

	var m Metrics
	for _, d := range devices {
		if d == nil {
			continue
		}
		m.TotalComputers++
		st := status.Derive(d.NextDue, now)
		switch st {
		case status.OnTime:
			m.StatusOKComputers++
		case status.Late:
			m.StatusLateComputers++
		default:
			m.StatusPendingComputers++
		}
		if st != status.OnTime {
			m.CorrectiveOpenComputers++
		}
		if d.NextDue != nil {
			m.PreventiveNeededComputers++
		}
		if st != status.Pending && preventive[d.ID] {
			m.PreventiveDoneComputers++
		}
		if corrective[d.ID] {
			m.CorrectiveDoneComputers++
		}
	}
	m.CorrectiveDoneTotal = correctiveEvents

	m.clamp()
	m.Warnings = m.check()
	return m
}

// check returns consistency warnings. Never nil.
func (m *Metrics) check() []string {
	w := []string{}
	if m.PreventiveDoneComputers > m.PreventiveNeededComputers {
		w = append(w, WarningDoneExceedsNeeded)
	}
	return w
}

func (m *Metrics) clamp() {
	for _, p := range []*int{
		&m.TotalComputers, &m.PreventiveNeededComputers, &m.PreventiveDoneComputers,
		&m.CorrectiveDoneTotal, &m.CorrectiveDoneComputers, &m.CorrectiveOpenComputers,
		&m.StatusOKComputers, &m.StatusLateComputers, &m.StatusPendingComputers,
	} {
		*p = clampCount(*p)
	}
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// DeviceSource lists every device snapshot.
type DeviceSource interface {
	Search(ctx context.Context, query string) ([]*devicedomain.Snapshot, error)
}

// RecordSource lists record summaries.
type RecordSource interface {
	ListSummaries(ctx context.Context) ([]maintdomain.Summary, error)
}

// Service loads the fleet and computes metrics.
type Service struct {
	devices DeviceSource
	records RecordSource
	clock   status.Clock
}

// NewService returns a Service. clock nil uses the system clock.
func NewService(devices DeviceSource, records RecordSource, clock status.Clock) *Service {
	if clock == nil {
		clock = status.SystemClock
	}
	return &Service{devices: devices, records: records, clock: clock}
}

// Metrics returns the current dashboard counts. Any authenticated caller may read them.
func (s *Service) Metrics(ctx context.Context) (*Metrics, error) {
	if _, err := rbac.RequireIdentity(ctx); err != nil {
		return nil, err
	}
	devices, err := s.devices.Search(ctx, "")
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	records, err := s.records.ListSummaries(ctx)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	m := Compute(devices, records, s.clock())
	return &m, nil
}
