package domain

import (
	"errors"
	"strings"
	"time"
)

// Record is one maintenance event on a device.
type Record struct {
	ID          string
	DeviceID    string
	Kind        Kind
	Description string
	PerformedAt time.Time
	Technician  *string
	NextDue     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reschedule recomputes NextDue from Kind and PerformedAt.
func (r *Record) Reschedule() {
	r.NextDue = r.Kind.NextDue(r.PerformedAt)
}

// Errors returned by Record.Validate.
var (
	ErrKindRequired        = errors.New("kind is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrPerformedAtRequired = errors.New("performed_at is required")
)

// Validate checks the fields required before persisting.
func (r *Record) Validate() error {
	if r.Kind == nil {
		return ErrKindRequired
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrDescriptionRequired
	}
	if r.PerformedAt.IsZero() {
		return ErrPerformedAtRequired
	}
	return nil
}

// Note is a free-text remark attached to a device.
type Note struct {
	ID        string
	DeviceID  string
	Author    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is the part of a record the fleet metrics need.
type Summary struct {
	DeviceID string
	Kind     KindName
}

// Entry is a record joined with the device fields a report shows.
type Entry struct {
	Record
	DeviceName string
	AssetTag   string
}

// EntryFilter selects report entries. Nil bounds are open; Kinds empty means all kinds.
type EntryFilter struct {
	From  *time.Time
	To    *time.Time
	Kinds []KindName
}
