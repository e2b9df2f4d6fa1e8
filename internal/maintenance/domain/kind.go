package domain

import (
	"errors"
	"strings"
	"time"
)

// KindName is the persisted name of a maintenance kind.
type KindName string

const (
	KindPreventive KindName = "preventive"
	KindCorrective KindName = "corrective"
)

// ErrInvalidSchedule is returned when a preventive kind is built without a positive interval.
var ErrInvalidSchedule = errors.New("preventive maintenance requires a positive next due interval")

// ErrUnknownKind is returned by ParseKindName for anything other than the two kinds.
var ErrUnknownKind = errors.New("unknown maintenance kind")

// Kind is either Preventive (with a schedule) or Corrective (without one). Values are only
// produced by NewPreventive and NewCorrective.
type Kind interface {
	Name() KindName
	Label() string
	// NextDue returns when the next maintenance is due after performedAt, or nil.
	NextDue(performedAt time.Time) *time.Time
	isKind()
}

// Preventive is scheduled maintenance with the number of days until the next one.
type Preventive struct {
	nextDueDays int
}

// NewPreventive returns a Preventive kind. days must be positive.
func NewPreventive(days int) (Preventive, error) {
	if days <= 0 {
		return Preventive{}, ErrInvalidSchedule
	}
	return Preventive{nextDueDays: days}, nil
}

func (Preventive) Name() KindName { return KindPreventive }
func (Preventive) Label() string  { return "Preventiva" }
func (Preventive) isKind()        {}

// NextDueDays is the schedule in calendar days.
func (p Preventive) NextDueDays() int { return p.nextDueDays }

// NextDue adds the schedule in calendar days.
func (p Preventive) NextDue(performedAt time.Time) *time.Time {
	t := performedAt.AddDate(0, 0, p.nextDueDays)
	return &t
}

// Corrective is unscheduled repair work. It never carries a next due date.
type Corrective struct{}

// NewCorrective returns the Corrective kind.
func NewCorrective() Corrective { return Corrective{} }

func (Corrective) Name() KindName               { return KindCorrective }
func (Corrective) Label() string                { return "Corretiva" }
func (Corrective) NextDue(time.Time) *time.Time { return nil }
func (Corrective) isKind()                      {}

// ParseKindName accepts the kind names in English or Portuguese, any case.
func ParseKindName(s string) (KindName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "preventive", "preventiva":
		return KindPreventive, nil
	case "corrective", "corretiva":
		return KindCorrective, nil
	}
	return "", ErrUnknownKind
}

// NewKind builds the variant for name. nextDueDays is only read for preventive and must then be
// non-nil and positive; corrective ignores it.
func NewKind(name KindName, nextDueDays *int) (Kind, error) {
	switch name {
	case KindPreventive:
		if nextDueDays == nil {
			return nil, ErrInvalidSchedule
		}
		return NewPreventive(*nextDueDays)
	case KindCorrective:
		return NewCorrective(), nil
	}
	return nil, ErrUnknownKind
}

// ScheduleDays returns the preventive schedule, or nil for corrective.
func ScheduleDays(k Kind) *int {
	if p, ok := k.(Preventive); ok {
		d := p.nextDueDays
		return &d
	}
	return nil
}
