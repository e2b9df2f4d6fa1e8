// Package service exposes the audit trail to user administrators.
package service

import (
	"context"
	"time"

	"device-maintenance/backend/internal/audit/domain"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/rbac"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Reader is the audit repository subset the query needs.
type Reader interface {
	List(ctx context.Context, limit, offset int32) ([]*domain.AuditLog, error)
	Count(ctx context.Context) (int64, error)
}

// Entry is one audit log entry as returned to clients.
type Entry struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is a window of entries, newest first.
type Page struct {
	Items  []Entry `json:"items"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Total  int64   `json:"total"`
}

// Query lists audit entries.
type Query struct {
	repo Reader
}

// NewQuery returns a Query over repo.
func NewQuery(repo Reader) *Query {
	return &Query{repo: repo}
}

// List returns a page of entries. Requires admin role or manage_permissions.
// limit 0 uses DefaultLimit; limit is capped at MaxLimit.
func (q *Query) List(ctx context.Context, limit, offset int) (*Page, error) {
	if _, err := rbac.RequireUserAdmin(ctx); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, apperr.Validation("limit", "must not be negative")
	}
	if offset < 0 {
		return nil, apperr.Validation("offset", "must not be negative")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	logs, err := q.repo.List(ctx, int32(limit), int32(offset))
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	total, err := q.repo.Count(ctx)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	page := &Page{Items: make([]Entry, 0, len(logs)), Limit: limit, Offset: offset, Total: total}
	for _, l := range logs {
		page.Items = append(page.Items, Entry{
			ID:        l.ID,
			Username:  l.Username,
			Action:    l.Action,
			Resource:  l.Resource,
			IP:        l.IP,
			Metadata:  l.Metadata,
			CreatedAt: l.CreatedAt,
		})
	}
	return page, nil
}
