package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"device-maintenance/backend/internal/user/domain"
)

const userColumns = `id, username, display_name, email, password_hash, role,
	can_add_note, can_add_maintenance, can_generate_report, can_manage_permissions,
	created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUsername returns the user with the given username (case-insensitive), or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// List returns all users ordered by username.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Create persists the user to the database. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.Username, u.DisplayName, u.Email, u.PasswordHash, string(u.Role),
		nullBool(u.Overrides.AddNote), nullBool(u.Overrides.AddMaintenance),
		nullBool(u.Overrides.GenerateReport), nullBool(u.Overrides.ManagePermissions),
		u.CreatedAt, u.UpdatedAt)
	return err
}

// Update updates the existing user record in the database. A missing row is not an error.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET display_name = $2, email = $3, password_hash = $4, role = $5,
			can_add_note = $6, can_add_maintenance = $7, can_generate_report = $8,
			can_manage_permissions = $9, updated_at = $10
		WHERE id = $1`,
		u.ID, u.DisplayName, u.Email, u.PasswordHash, string(u.Role),
		nullBool(u.Overrides.AddNote), nullBool(u.Overrides.AddMaintenance),
		nullBool(u.Overrides.GenerateReport), nullBool(u.Overrides.ManagePermissions),
		u.UpdatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*domain.User, error) {
	var (
		u                                   domain.User
		role                                string
		addNote, addMaint, report, managePm sql.NullBool
	)
	if err := s.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.PasswordHash, &role,
		&addNote, &addMaint, &report, &managePm, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.ParseRole(role)
	u.Overrides = domain.Overrides{
		AddNote:           boolPtr(addNote),
		AddMaintenance:    boolPtr(addMaint),
		GenerateReport:    boolPtr(report),
		ManagePermissions: boolPtr(managePm),
	}
	return &u, nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func boolPtr(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	v := n.Bool
	return &v
}
