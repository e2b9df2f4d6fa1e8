package repository

import (
	"context"

	"device-maintenance/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// Update writes display name, email, role, overrides and password hash for the row with u.ID.
	Update(ctx context.Context, u *domain.User) error
}
