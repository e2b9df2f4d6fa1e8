// Package service implements the device catalog view: tab filtering, search and pagination over
// devices whose maintenance status is derived on every read.
package service

import (
	"context"
	"strings"
	"time"

	devicedomain "device-maintenance/backend/internal/device/domain"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/rbac"
	"device-maintenance/backend/internal/status"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	dateLayout      = "2006-01-02"
)

// Tab selects which devices a listing shows.
type Tab string

const (
	TabAll        Tab = "all"
	TabPreventive Tab = "preventive"
	TabCorrective Tab = "corrective"
)

// ParseTab accepts the tab names in English or Portuguese. Empty means all.
func ParseTab(s string) (Tab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "todos":
		return TabAll, nil
	case "preventive", "preventiva":
		return TabPreventive, nil
	case "corrective", "corretiva":
		return TabCorrective, nil
	}
	return "", apperr.Validation("tab", "tab must be all, preventive or corrective")
}

// Includes reports whether a device with the given ledger projection belongs in the tab.
// Preventive lists any device with maintenance history; corrective lists anything not on time.
func (t Tab) Includes(last *time.Time, st status.Status) bool {
	switch t {
	case TabPreventive:
		return last != nil
	case TabCorrective:
		return st != status.OnTime
	default:
		return true
	}
}

// Repo is the device repository subset the catalog reads.
type Repo interface {
	Search(ctx context.Context, query string) ([]*devicedomain.Snapshot, error)
	GetByID(ctx context.Context, id string) (*devicedomain.Snapshot, error)
	ListComponents(ctx context.Context, deviceID string) ([]*devicedomain.Component, error)
}

// Query is a catalog listing request. Page is 1-indexed.
type Query struct {
	Tab      string
	Search   string
	Page     int
	PageSize int
}

// Row is one device as listed.
type Row struct {
	ID                string        `json:"id"`
	GLPIID            int64         `json:"glpi_id"`
	Name              string        `json:"name"`
	Serial            string        `json:"serial"`
	Location          string        `json:"location"`
	AssetTag          string        `json:"asset_tag"`
	MaintenanceStatus status.Status `json:"maintenance_status"`
	StatusLabel       string        `json:"maintenance_status_label"`
	LastMaintenance   *string       `json:"last_maintenance"`
	NextMaintenance   *string       `json:"next_maintenance"`
}

// Page is a window of rows plus the filtered total.
type Page struct {
	Items    []Row `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int   `json:"total"`
}

// ComponentView is a component as shown on the device detail.
type ComponentView struct {
	ID           string `json:"id"`
	ItemType     string `json:"item_type"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	Serial       string `json:"serial,omitempty"`
	Capacity     string `json:"capacity,omitempty"`
}

// Detail is a device with inventory fields and components.
type Detail struct {
	Row
	Entity      string          `json:"entity"`
	AssetStatus string          `json:"asset_status"`
	SyncedAt    time.Time       `json:"synced_at"`
	Components  []ComponentView `json:"components"`
}

// Catalog serves device listings.
type Catalog struct {
	repo  Repo
	clock status.Clock
}

// NewCatalog returns a Catalog. clock nil uses the system clock.
func NewCatalog(repo Repo, clock status.Clock) *Catalog {
	if clock == nil {
		clock = status.SystemClock
	}
	return &Catalog{repo: repo, clock: clock}
}

// ListDevices filters by tab and search, then paginates. Total is the filtered count.
func (c *Catalog) ListDevices(ctx context.Context, q Query) (*Page, error) {
	if _, err := rbac.RequireIdentity(ctx); err != nil {
		return nil, err
	}
	tab, err := ParseTab(q.Tab)
	if err != nil {
		return nil, err
	}
	page, size := normalizePage(q.Page, q.PageSize)

	snaps, err := c.repo.Search(ctx, q.Search)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	now := c.clock()
	rows := make([]Row, 0, len(snaps))
	for _, s := range snaps {
		st := status.Derive(s.NextDue, now)
		if !tab.Includes(s.LastMaintenance, st) {
			continue
		}
		rows = append(rows, toRow(s, st))
	}

	out := &Page{Items: []Row{}, Page: page, PageSize: size, Total: len(rows)}
	start := (page - 1) * size
	if start < len(rows) {
		end := min(start+size, len(rows))
		out.Items = rows[start:end]
	}
	return out, nil
}

// GetDevice returns one device with components.
func (c *Catalog) GetDevice(ctx context.Context, id string) (*Detail, error) {
	if _, err := rbac.RequireIdentity(ctx); err != nil {
		return nil, err
	}
	s, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	if s == nil {
		return nil, apperr.NotFound("device")
	}
	comps, err := c.repo.ListComponents(ctx, id)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	d := &Detail{
		Row:         toRow(s, status.Derive(s.NextDue, c.clock())),
		Entity:      s.Entity,
		AssetStatus: s.Status,
		SyncedAt:    s.UpdatedAt,
		Components:  make([]ComponentView, 0, len(comps)),
	}
	for _, cp := range comps {
		d.Components = append(d.Components, ComponentView{
			ID: cp.ID, ItemType: cp.ItemType, Name: cp.Name, Manufacturer: cp.Manufacturer,
			Model: cp.Model, Serial: cp.Serial, Capacity: cp.Capacity,
		})
	}
	return d, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case size == 0:
		size = DefaultPageSize
	case size < 1:
		size = 1
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page, size
}

func toRow(s *devicedomain.Snapshot, st status.Status) Row {
	return Row{
		ID:                s.ID,
		GLPIID:            s.GLPIID,
		Name:              s.Name,
		Serial:            s.Serial,
		Location:          s.Sector(),
		AssetTag:          s.AssetTag,
		MaintenanceStatus: st,
		StatusLabel:       st.Label(),
		LastMaintenance:   formatDate(s.LastMaintenance),
		NextMaintenance:   formatDate(s.NextDue),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}
