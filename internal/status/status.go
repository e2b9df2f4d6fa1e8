// Package status derives a device's maintenance status from its next-due timestamp.
// The result depends on the current time, so it is computed on every read and never stored.
package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the derived maintenance state of a device.
type Status int

const (
	Pending Status = iota
	OnTime
	Late
)

// All lists the three outcomes in a stable order.
var All = []Status{OnTime, Late, Pending}

// Clock returns the current time. Services take a Clock so tests can pin "now".
type Clock func() time.Time

// SystemClock is the default Clock (UTC wall time).
func SystemClock() time.Time { return time.Now().UTC() }

// Derive returns Pending when nextDue is nil, Late when now is strictly after nextDue,
// and OnTime otherwise (including now == nextDue).
func Derive(nextDue *time.Time, now time.Time) Status {
	if nextDue == nil {
		return Pending
	}
	if now.After(*nextDue) {
		return Late
	}
	return OnTime
}

// String returns the wire name.
func (s Status) String() string {
	switch s {
	case OnTime:
		return "on_time"
	case Late:
		return "late"
	case Pending:
		return "pending"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Label is the display label used by the legacy interface.
func (s Status) Label() string {
	switch s {
	case OnTime:
		return "Em Dia"
	case Late:
		return "Atrasada"
	default:
		return "Pendente"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the wire names and the legacy labels.
func (s *Status) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := Parse(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Parse parses a wire name or legacy label.
func Parse(v string) (Status, error) {
	switch v {
	case "on_time", "Em Dia":
		return OnTime, nil
	case "late", "Atrasada":
		return Late, nil
	case "pending", "Pendente":
		return Pending, nil
	}
	return Pending, fmt.Errorf("unknown maintenance status %q", v)
}
