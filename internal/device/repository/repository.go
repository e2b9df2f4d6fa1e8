package repository

import (
	"context"

	"device-maintenance/backend/internal/device/domain"
)

// Repository defines persistence for devices and their components.
type Repository interface {
	// Search returns snapshots whose name, location, entity, serial or asset tag contain query
	// (case-insensitive), most recently synchronized first. Empty query matches everything.
	Search(ctx context.Context, query string) ([]*domain.Snapshot, error)
	GetByID(ctx context.Context, id string) (*domain.Snapshot, error)
	ListComponents(ctx context.Context, deviceID string) ([]*domain.Component, error)
	// UpsertByGLPIID inserts or updates the device keyed by GLPIID and returns its ID.
	UpsertByGLPIID(ctx context.Context, d *domain.Device) (string, error)
	// ReplaceComponents swaps the device's component set in one transaction.
	ReplaceComponents(ctx context.Context, deviceID string, comps []*domain.Component) error
}
