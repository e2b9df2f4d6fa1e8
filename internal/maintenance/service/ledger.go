// Package service implements the maintenance ledger: notes and maintenance records per device,
// gated by the permission model.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	devicedomain "device-maintenance/backend/internal/device/domain"
	identitydomain "device-maintenance/backend/internal/identity/domain"
	"device-maintenance/backend/internal/maintenance/domain"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/rbac"
	"device-maintenance/backend/internal/status"
	"device-maintenance/backend/internal/telemetry"
	telemetrydomain "device-maintenance/backend/internal/telemetry/domain"
)

const eventSource = "ledger"

// RecordRepo is the minimal record repository needed by the ledger.
type RecordRepo interface {
	CreateRecord(ctx context.Context, r *domain.Record) error
	GetRecord(ctx context.Context, id string) (*domain.Record, error)
	UpdateRecord(ctx context.Context, r *domain.Record) error
	DeleteRecord(ctx context.Context, id string) (bool, error)
	ListRecordsByDevice(ctx context.Context, deviceID string) ([]*domain.Record, error)
}

// NoteRepo is the minimal note repository needed by the ledger.
type NoteRepo interface {
	CreateNote(ctx context.Context, n *domain.Note) error
	GetNote(ctx context.Context, deviceID, noteID string) (*domain.Note, error)
	UpdateNote(ctx context.Context, n *domain.Note) error
	DeleteNote(ctx context.Context, deviceID, noteID string) (bool, error)
	ListNotesByDevice(ctx context.Context, deviceID string) ([]*domain.Note, error)
}

// DeviceLookup resolves a device by ID; nil means not found.
type DeviceLookup interface {
	GetByID(ctx context.Context, id string) (*devicedomain.Snapshot, error)
}

// MaintenanceInput is a new maintenance record as submitted by a client.
type MaintenanceInput struct {
	Kind        string
	Description string
	PerformedAt *time.Time
	NextDueDays *int
}

// MaintenancePatch is a partial update. Nil fields keep their stored value.
type MaintenancePatch struct {
	Kind        *string
	Description *string
	PerformedAt *time.Time
	NextDueDays *int
}

// Ledger records notes and maintenance events.
type Ledger struct {
	records RecordRepo
	notes   NoteRepo
	devices DeviceLookup
	events  telemetry.EventEmitter
	clock   status.Clock
	log     zerolog.Logger
}

// NewLedger returns a Ledger. events may be nil (events disabled); clock nil uses the system clock.
func NewLedger(records RecordRepo, notes NoteRepo, devices DeviceLookup, events telemetry.EventEmitter, clock status.Clock, log zerolog.Logger) *Ledger {
	if clock == nil {
		clock = status.SystemClock
	}
	return &Ledger{
		records: records,
		notes:   notes,
		devices: devices,
		events:  events,
		clock:   clock,
		log:     log.With().Str("component", "ledger").Logger(),
	}
}

// AddNote attaches a note authored by the caller.
func (l *Ledger) AddNote(ctx context.Context, deviceID, content string) (*domain.Note, error) {
	id, err := rbac.Require(ctx, rbac.AddNote)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("content", "note content is required")
	}
	if err := l.ensureDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	now := l.clock()
	n := &domain.Note{
		ID:        uuid.New().String(),
		DeviceID:  deviceID,
		Author:    id.Name(),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.notes.CreateNote(ctx, n); err != nil {
		return nil, apperr.Unavailable(err)
	}
	l.emit(telemetrydomain.EventNoteAdded, id, deviceID, map[string]string{"note_id": n.ID})
	return n, nil
}

// EditNote replaces the content of a note on deviceID.
func (l *Ledger) EditNote(ctx context.Context, deviceID, noteID, content string) (*domain.Note, error) {
	id, err := rbac.Require(ctx, rbac.AddNote)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("content", "note content is required")
	}
	if err := l.ensureDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	n, err := l.notes.GetNote(ctx, deviceID, noteID)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	if n == nil {
		return nil, apperr.NotFound("note")
	}
	n.Content = content
	n.UpdatedAt = l.clock()
	if err := l.notes.UpdateNote(ctx, n); err != nil {
		return nil, apperr.Unavailable(err)
	}
	l.emit(telemetrydomain.EventNoteUpdated, id, deviceID, map[string]string{"note_id": n.ID})
	return n, nil
}

// DeleteNote removes a note from deviceID.
func (l *Ledger) DeleteNote(ctx context.Context, deviceID, noteID string) error {
	id, err := rbac.Require(ctx, rbac.AddNote)
	if err != nil {
		return err
	}
	deleted, err := l.notes.DeleteNote(ctx, deviceID, noteID)
	if err != nil {
		return apperr.Unavailable(err)
	}
	if !deleted {
		return apperr.NotFound("note")
	}
	l.emit(telemetrydomain.EventNoteDeleted, id, deviceID, map[string]string{"note_id": noteID})
	return nil
}

// ListNotes returns the device's notes, newest first.
func (l *Ledger) ListNotes(ctx context.Context, deviceID string) ([]*domain.Note, error) {
	if _, err := rbac.RequireIdentity(ctx); err != nil {
		return nil, err
	}
	if err := l.ensureDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	notes, err := l.notes.ListNotesByDevice(ctx, deviceID)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return notes, nil
}

// AddMaintenance records a maintenance event performed by the caller.
func (l *Ledger) AddMaintenance(ctx context.Context, deviceID string, in MaintenanceInput) (*domain.Record, error) {
	id, err := rbac.Require(ctx, rbac.AddMaintenance)
	if err != nil {
		return nil, err
	}
	name, err := parseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	kind, err := buildKind(name, in.NextDueDays)
	if err != nil {
		return nil, err
	}
	r := &domain.Record{
		ID:          uuid.New().String(),
		DeviceID:    deviceID,
		Kind:        kind,
		Description: strings.TrimSpace(in.Description),
	}
	if in.PerformedAt != nil {
		r.PerformedAt = in.PerformedAt.UTC()
	}
	if err := validateRecord(r); err != nil {
		return nil, err
	}
	if err := l.ensureDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	technician := id.Name()
	r.Technician = &technician
	r.CreatedAt = l.clock()
	r.UpdatedAt = r.CreatedAt
	r.Reschedule()
	if err := l.records.CreateRecord(ctx, r); err != nil {
		return nil, apperr.Unavailable(err)
	}
	l.emit(telemetrydomain.EventMaintenanceRecorded, id, deviceID, recordMeta(r))
	return r, nil
}

// UpdateMaintenance applies patch to a record and recomputes its next due date.
func (l *Ledger) UpdateMaintenance(ctx context.Context, recordID string, patch MaintenancePatch) (*domain.Record, error) {
	id, err := rbac.Require(ctx, rbac.AddMaintenance)
	if err != nil {
		return nil, err
	}
	r, err := l.records.GetRecord(ctx, recordID)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	if r == nil {
		return nil, apperr.NotFound("maintenance record")
	}

	name := r.Kind.Name()
	if patch.Kind != nil {
		if name, err = parseKind(*patch.Kind); err != nil {
			return nil, err
		}
	}
	days := patch.NextDueDays
	if days == nil {
		days = domain.ScheduleDays(r.Kind)
	}
	kind, err := buildKind(name, days)
	if err != nil {
		return nil, err
	}
	r.Kind = kind
	if patch.Description != nil {
		r.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.PerformedAt != nil {
		r.PerformedAt = patch.PerformedAt.UTC()
	}
	if err := validateRecord(r); err != nil {
		return nil, err
	}
	r.Reschedule()
	r.UpdatedAt = l.clock()
	if err := l.records.UpdateRecord(ctx, r); err != nil {
		return nil, apperr.Unavailable(err)
	}
	l.emit(telemetrydomain.EventMaintenanceUpdated, id, r.DeviceID, recordMeta(r))
	return r, nil
}

// DeleteMaintenance removes a record.
func (l *Ledger) DeleteMaintenance(ctx context.Context, recordID string) error {
	id, err := rbac.Require(ctx, rbac.AddMaintenance)
	if err != nil {
		return err
	}
	r, err := l.records.GetRecord(ctx, recordID)
	if err != nil {
		return apperr.Unavailable(err)
	}
	if r == nil {
		return apperr.NotFound("maintenance record")
	}
	deleted, err := l.records.DeleteRecord(ctx, recordID)
	if err != nil {
		return apperr.Unavailable(err)
	}
	if !deleted {
		return apperr.NotFound("maintenance record")
	}
	l.emit(telemetrydomain.EventMaintenanceDeleted, id, r.DeviceID, map[string]string{"record_id": recordID})
	return nil
}

// ListMaintenance returns the device's records, newest performed_at first.
func (l *Ledger) ListMaintenance(ctx context.Context, deviceID string) ([]*domain.Record, error) {
	if _, err := rbac.RequireIdentity(ctx); err != nil {
		return nil, err
	}
	if err := l.ensureDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	recs, err := l.records.ListRecordsByDevice(ctx, deviceID)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	return recs, nil
}

func (l *Ledger) ensureDevice(ctx context.Context, deviceID string) error {
	if strings.TrimSpace(deviceID) == "" {
		return apperr.NotFound("device")
	}
	d, err := l.devices.GetByID(ctx, deviceID)
	if err != nil {
		return apperr.Unavailable(err)
	}
	if d == nil {
		return apperr.NotFound("device")
	}
	return nil
}

func (l *Ledger) emit(eventType string, id *identitydomain.Identity, deviceID string, meta any) {
	l.log.Debug().Str("event_type", eventType).Str("device_id", deviceID).Str("username", id.Username).Msg("ledger write")
	telemetry.EmitAsync(l.events, telemetrydomain.New(eventType, eventSource, id.Username, deviceID, meta))
}

func parseKind(s string) (domain.KindName, error) {
	name, err := domain.ParseKindName(s)
	if err != nil {
		return "", apperr.Validation("type", "type must be preventive or corrective")
	}
	return name, nil
}

func buildKind(name domain.KindName, days *int) (domain.Kind, error) {
	kind, err := domain.NewKind(name, days)
	if errors.Is(err, domain.ErrInvalidSchedule) {
		return nil, apperr.Validation("next_due_days", "preventive maintenance requires a positive number of days")
	}
	if err != nil {
		return nil, apperr.Validation("type", err.Error())
	}
	return kind, nil
}

// validateRecord maps the record's domain checks onto request fields.
func validateRecord(r *domain.Record) error {
	switch err := r.Validate(); {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrKindRequired):
		return apperr.Validation("type", err.Error())
	case errors.Is(err, domain.ErrDescriptionRequired):
		return apperr.Validation("description", err.Error())
	case errors.Is(err, domain.ErrPerformedAtRequired):
		return apperr.Validation("performed_at", err.Error())
	default:
		return apperr.Validation("", err.Error())
	}
}

func recordMeta(r *domain.Record) map[string]any {
	m := map[string]any{
		"record_id":    r.ID,
		"kind":         r.Kind.Name(),
		"performed_at": r.PerformedAt.Format(time.RFC3339),
	}
	if r.NextDue != nil {
		m["next_due"] = r.NextDue.Format(time.RFC3339)
	}
	return m
}
