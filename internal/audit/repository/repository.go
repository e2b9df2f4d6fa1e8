package repository

import (
	"context"

	"device-maintenance/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	// List returns entries newest first, paginated by limit and offset.
	List(ctx context.Context, limit, offset int32) ([]*domain.AuditLog, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, a *domain.AuditLog) error
}
