package repository

import (
	"context"

	"device-maintenance/backend/internal/maintenance/domain"
)

// RecordRepository defines persistence for maintenance records.
type RecordRepository interface {
	CreateRecord(ctx context.Context, r *domain.Record) error
	// GetRecord returns the record for id, or nil if not found.
	GetRecord(ctx context.Context, id string) (*domain.Record, error)
	UpdateRecord(ctx context.Context, r *domain.Record) error
	// DeleteRecord reports whether a row was removed.
	DeleteRecord(ctx context.Context, id string) (bool, error)
	// ListRecordsByDevice returns the device's records, newest performed_at first.
	ListRecordsByDevice(ctx context.Context, deviceID string) ([]*domain.Record, error)
	ListSummaries(ctx context.Context) ([]domain.Summary, error)
	// ListEntries returns records joined with device name and asset tag, newest performed_at first.
	ListEntries(ctx context.Context, f domain.EntryFilter) ([]*domain.Entry, error)
}

// NoteRepository defines persistence for device notes.
type NoteRepository interface {
	CreateNote(ctx context.Context, n *domain.Note) error
	// GetNote returns the note when it belongs to deviceID, or nil.
	GetNote(ctx context.Context, deviceID, noteID string) (*domain.Note, error)
	UpdateNote(ctx context.Context, n *domain.Note) error
	DeleteNote(ctx context.Context, deviceID, noteID string) (bool, error)
	// ListNotesByDevice returns notes newest first.
	ListNotesByDevice(ctx context.Context, deviceID string) ([]*domain.Note, error)
}
