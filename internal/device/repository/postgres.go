package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"device-maintenance/backend/internal/device/domain"
)

// snapshotSelect projects the latest maintenance record per device. Ties on performed_at are
// broken by the newest created_at, then id.
const snapshotSelect = `SELECT d.id, d.glpi_id, d.name, COALESCE(d.entity, ''), COALESCE(d.asset_tag, ''),
	COALESCE(d.serial, ''), COALESCE(d.location, ''), COALESCE(d.status, ''), d.glpi_data,
	d.created_at, d.updated_at, m.performed_at, m.next_due
FROM devices d
LEFT JOIN LATERAL (
	SELECT performed_at, next_due FROM maintenance_records mr
	WHERE mr.device_id = d.id
	ORDER BY mr.performed_at DESC, mr.created_at DESC, mr.id DESC
	LIMIT 1
) m ON true`

type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresRepository returns a device repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Search implements Repository.
func (r *PostgresRepository) Search(ctx context.Context, query string) ([]*domain.Snapshot, error) {
	q := snapshotSelect
	var args []any
	if s := strings.TrimSpace(query); s != "" {
		q += ` WHERE d.name ILIKE $1 ESCAPE '\' OR d.location ILIKE $1 ESCAPE '\' OR d.entity ILIKE $1 ESCAPE '\'
			OR d.serial ILIKE $1 ESCAPE '\' OR d.asset_tag ILIKE $1 ESCAPE '\'`
		args = append(args, LikePattern(s))
	}
	q += ` ORDER BY d.updated_at DESC, d.id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID returns the snapshot for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Snapshot, error) {
	s, err := scanSnapshot(r.db.QueryRowContext(ctx, snapshotSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// ListComponents returns the device's components ordered by type and name.
func (r *PostgresRepository) ListComponents(ctx context.Context, deviceID string) ([]*domain.Component, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, item_type, name, COALESCE(manufacturer, ''), COALESCE(model, ''),
			COALESCE(serial, ''), COALESCE(capacity, ''), glpi_data, created_at
		FROM device_components WHERE device_id = $1 ORDER BY item_type, name, id`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Component
	for rows.Next() {
		var c domain.Component
		var raw []byte
		if err := rows.Scan(&c.ID, &c.DeviceID, &c.ItemType, &c.Name, &c.Manufacturer, &c.Model,
			&c.Serial, &c.Capacity, &raw, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.GLPIData = raw
		out = append(out, &c)
	}
	return out, rows.Err()
}

// UpsertByGLPIID implements Repository. A new device gets a fresh UUID; an existing one keeps its ID.
func (r *PostgresRepository) UpsertByGLPIID(ctx context.Context, d *domain.Device) (string, error) {
	now := r.now()
	id := d.ID
	if id == "" {
		id = uuid.New().String()
	}
	var out string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO devices (id, glpi_id, name, entity, asset_tag, serial, location, status, glpi_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (glpi_id) DO UPDATE SET
			name = EXCLUDED.name, entity = EXCLUDED.entity, asset_tag = EXCLUDED.asset_tag,
			serial = EXCLUDED.serial, location = EXCLUDED.location, status = EXCLUDED.status,
			glpi_data = EXCLUDED.glpi_data, updated_at = EXCLUDED.updated_at
		RETURNING id`,
		id, d.GLPIID, d.Name, nullString(d.Entity), nullString(d.AssetTag), nullString(d.Serial),
		nullString(d.Location), nullString(d.Status), nullJSON(d.GLPIData), now,
	).Scan(&out)
	return out, err
}

// ReplaceComponents implements Repository.
func (r *PostgresRepository) ReplaceComponents(ctx context.Context, deviceID string, comps []*domain.Component) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM device_components WHERE device_id = $1`, deviceID); err != nil {
		return err
	}
	now := r.now()
	for _, c := range comps {
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO device_components (id, device_id, item_type, name, manufacturer, model, serial, capacity, glpi_data, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			id, deviceID, c.ItemType, c.Name, nullString(c.Manufacturer), nullString(c.Model),
			nullString(c.Serial), nullString(c.Capacity), nullJSON(c.GLPIData), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LikePattern escapes LIKE metacharacters in s and wraps it for a substring match.
func LikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s rowScanner) (*domain.Snapshot, error) {
	var (
		snap      domain.Snapshot
		raw       []byte
		performed sql.NullTime
		nextDue   sql.NullTime
	)
	if err := s.Scan(&snap.ID, &snap.GLPIID, &snap.Name, &snap.Entity, &snap.AssetTag, &snap.Serial,
		&snap.Location, &snap.Status, &raw, &snap.CreatedAt, &snap.UpdatedAt, &performed, &nextDue); err != nil {
		return nil, err
	}
	snap.GLPIData = raw
	if performed.Valid {
		t := performed.Time.UTC()
		snap.LastMaintenance = &t
	}
	if nextDue.Valid {
		t := nextDue.Time.UTC()
		snap.NextDue = &t
	}
	return &snap, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
