package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"device-maintenance/backend/internal/maintenance/domain"
)

const recordColumns = `r.id, r.device_id, r.kind, r.description, r.performed_at, r.technician,
	r.next_due_days, r.next_due, r.created_at, r.updated_at`

// PostgresRepository stores maintenance records and notes.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a ledger repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateRecord persists r. The record must have ID set.
func (p *PostgresRepository) CreateRecord(ctx context.Context, r *domain.Record) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO maintenance_records (id, device_id, kind, description, performed_at, technician,
			next_due_days, next_due, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.DeviceID, string(r.Kind.Name()), r.Description, r.PerformedAt, nullStr(r.Technician),
		nullInt(domain.ScheduleDays(r.Kind)), nullTime(r.NextDue), r.CreatedAt, r.UpdatedAt)
	return err
}

// GetRecord returns the record for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (p *PostgresRepository) GetRecord(ctx context.Context, id string) (*domain.Record, error) {
	rec, err := scanRecord(p.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM maintenance_records r WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// UpdateRecord rewrites the mutable columns of r.
func (p *PostgresRepository) UpdateRecord(ctx context.Context, r *domain.Record) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE maintenance_records SET kind = $2, description = $3, performed_at = $4, technician = $5,
			next_due_days = $6, next_due = $7, updated_at = $8
		WHERE id = $1`,
		r.ID, string(r.Kind.Name()), r.Description, r.PerformedAt, nullStr(r.Technician),
		nullInt(domain.ScheduleDays(r.Kind)), nullTime(r.NextDue), r.UpdatedAt)
	return err
}

// DeleteRecord implements RecordRepository.
func (p *PostgresRepository) DeleteRecord(ctx context.Context, id string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM maintenance_records WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListRecordsByDevice implements RecordRepository.
func (p *PostgresRepository) ListRecordsByDevice(ctx context.Context, deviceID string) ([]*domain.Record, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM maintenance_records r WHERE r.device_id = $1
		ORDER BY r.performed_at DESC, r.id DESC`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListSummaries returns (device, kind) for every record.
func (p *PostgresRepository) ListSummaries(ctx context.Context) ([]domain.Summary, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT device_id, kind FROM maintenance_records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Summary
	for rows.Next() {
		var s domain.Summary
		var kind string
		if err := rows.Scan(&s.DeviceID, &kind); err != nil {
			return nil, err
		}
		s.Kind = domain.KindName(kind)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListEntries implements RecordRepository.
func (p *PostgresRepository) ListEntries(ctx context.Context, f domain.EntryFilter) ([]*domain.Entry, error) {
	q, args := entriesQuery(f)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Entry
	for rows.Next() {
		var (
			e        domain.Entry
			assetTag sql.NullString
		)
		rec, err := scanRecordWith(rows, &e.DeviceName, &assetTag)
		if err != nil {
			return nil, err
		}
		e.Record = *rec
		e.AssetTag = assetTag.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

func entriesQuery(f domain.EntryFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("r.performed_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("r.performed_at <= $%d", len(args)))
	}
	if len(f.Kinds) > 0 {
		ph := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			args = append(args, string(k))
			ph[i] = fmt.Sprintf("$%d", len(args))
		}
		where = append(where, "r.kind IN ("+strings.Join(ph, ", ")+")")
	}
	q := `SELECT ` + recordColumns + `, d.name, d.asset_tag
		FROM maintenance_records r JOIN devices d ON d.id = r.device_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY r.performed_at DESC, r.id DESC"
	return q, args
}

// CreateNote persists n. The note must have ID set.
func (p *PostgresRepository) CreateNote(ctx context.Context, n *domain.Note) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO device_notes (id, device_id, author, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.DeviceID, n.Author, n.Content, n.CreatedAt, n.UpdatedAt)
	return err
}

// GetNote implements NoteRepository.
func (p *PostgresRepository) GetNote(ctx context.Context, deviceID, noteID string) (*domain.Note, error) {
	var n domain.Note
	err := p.db.QueryRowContext(ctx,
		`SELECT id, device_id, author, content, created_at, updated_at FROM device_notes
		WHERE id = $1 AND device_id = $2`, noteID, deviceID).
		Scan(&n.ID, &n.DeviceID, &n.Author, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// UpdateNote rewrites content and updated_at.
func (p *PostgresRepository) UpdateNote(ctx context.Context, n *domain.Note) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE device_notes SET content = $3, updated_at = $4 WHERE id = $1 AND device_id = $2`,
		n.ID, n.DeviceID, n.Content, n.UpdatedAt)
	return err
}

// DeleteNote implements NoteRepository.
func (p *PostgresRepository) DeleteNote(ctx context.Context, deviceID, noteID string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM device_notes WHERE id = $1 AND device_id = $2`, noteID, deviceID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListNotesByDevice implements NoteRepository.
func (p *PostgresRepository) ListNotesByDevice(ctx context.Context, deviceID string) ([]*domain.Note, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, device_id, author, content, created_at, updated_at FROM device_notes
		WHERE device_id = $1 ORDER BY created_at DESC, id DESC`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.DeviceID, &n.Author, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (*domain.Record, error) {
	return scanRecordWith(s)
}

// scanRecordWith scans the record columns followed by extra destinations.
func scanRecordWith(s rowScanner, extra ...any) (*domain.Record, error) {
	var (
		r          domain.Record
		kind       string
		technician sql.NullString
		days       sql.NullInt64
		nextDue    sql.NullTime
	)
	dest := append([]any{&r.ID, &r.DeviceID, &kind, &r.Description, &r.PerformedAt, &technician,
		&days, &nextDue, &r.CreatedAt, &r.UpdatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	var daysPtr *int
	if days.Valid {
		d := int(days.Int64)
		daysPtr = &d
	}
	k, err := domain.NewKind(domain.KindName(kind), daysPtr)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	r.Kind = k
	r.PerformedAt = r.PerformedAt.UTC()
	if technician.Valid {
		t := technician.String
		r.Technician = &t
	}
	if nextDue.Valid {
		t := nextDue.Time.UTC()
		r.NextDue = &t
	}
	return &r, nil
}

func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
