// Package service runs the inventory synchronization: computers and their components are read
// from the asset source and upserted into the device catalog.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"device-maintenance/backend/internal/audit"
	devicedomain "device-maintenance/backend/internal/device/domain"
	"device-maintenance/backend/internal/inventory/glpi"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/rbac"
	"device-maintenance/backend/internal/status"
	"device-maintenance/backend/internal/telemetry"
	telemetrydomain "device-maintenance/backend/internal/telemetry/domain"
)

const eventSource = "sync"

// ErrNotConfigured is returned when no asset source is configured.
var ErrNotConfigured = errors.New("inventory source is not configured")

// Source opens sessions against the asset source.
type Source interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one authenticated conversation with the asset source.
type Session interface {
	Computers(ctx context.Context, start, limit int) ([]json.RawMessage, error)
	Components(ctx context.Context, computerID int64) (map[string][]json.RawMessage, error)
	Close(ctx context.Context) error
}

// GLPISource adapts a glpi.Client to Source.
type GLPISource struct {
	Client *glpi.Client
}

// Open implements Source.
func (s GLPISource) Open(ctx context.Context) (Session, error) {
	sess, err := s.Client.Open(ctx)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// DeviceStore is the catalog write side used by the sync.
type DeviceStore interface {
	UpsertByGLPIID(ctx context.Context, d *devicedomain.Device) (string, error)
	ReplaceComponents(ctx context.Context, deviceID string, comps []*devicedomain.Component) error
}

// Status is the progress of the current or last run.
type Status struct {
	Running          bool       `json:"running"`
	StartedAt        *time.Time `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at"`
	ComputersSynced  int        `json:"computers_synced"`
	ComponentsSynced int        `json:"components_synced"`
	CurrentGLPIID    *int64     `json:"current_glpi_id"`
	Message          string     `json:"message"`
	LastError        string     `json:"last_error,omitempty"`
}

// Result is the outcome of a completed run.
type Result struct {
	ComputersSynced  int    `json:"computers_synced"`
	ComponentsSynced int    `json:"components_synced"`
	Message          string `json:"message"`
}

// Syncer runs at most one synchronization at a time.
type Syncer struct {
	source   Source
	store    DeviceStore
	events   telemetry.EventEmitter
	pageSize int
	clock    status.Clock
	log      zerolog.Logger

	running atomic.Bool
	wg      sync.WaitGroup

	mu sync.Mutex
	st Status
}

// NewSyncer returns a Syncer. source may be nil when the asset source is not configured; runs
// then fail with Unavailable.
func NewSyncer(source Source, store DeviceStore, events telemetry.EventEmitter, pageSize int, clock status.Clock, log zerolog.Logger) *Syncer {
	if pageSize <= 0 {
		pageSize = 50
	}
	if clock == nil {
		clock = status.SystemClock
	}
	return &Syncer{
		source:   source,
		store:    store,
		events:   events,
		pageSize: pageSize,
		clock:    clock,
		log:      log.With().Str("component", "sync").Logger(),
	}
}

// Run synchronizes and waits for the result. Requires the admin role; Conflict when a run is in
// progress.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	id, err := rbac.RequireAdmin(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := s.acquire(); err != nil {
		return Result{}, err
	}
	defer s.running.Store(false)
	return s.run(ctx, id.Username)
}

// Start begins a run in the background and returns the status at start. Requires the admin role;
// Conflict when a run is in progress.
func (s *Syncer) Start(ctx context.Context) (Status, error) {
	id, err := rbac.RequireAdmin(ctx)
	if err != nil {
		return Status{}, err
	}
	if err := s.acquire(); err != nil {
		return Status{}, err
	}
	s.begin()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		// Detached from the request so the run outlives it.
		_, _ = s.run(context.WithoutCancel(ctx), id.Username)
	}()
	return s.Snapshot(), nil
}

// Status returns the progress snapshot. Requires an identity.
func (s *Syncer) Status(ctx context.Context) (Status, error) {
	if _, err := rbac.RequireIdentity(ctx); err != nil {
		return Status{}, err
	}
	return s.Snapshot(), nil
}

// Snapshot returns a copy of the current status.
func (s *Syncer) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// RunEvery runs a sync every interval until ctx is done. Ticks that find a run in progress are
// skipped.
func (s *Syncer) RunEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.acquire(); err != nil {
				s.log.Info().Msg("periodic sync skipped, a run is in progress")
				continue
			}
			_, _ = s.run(ctx, audit.SystemUsername)
			s.running.Store(false)
		}
	}
}

// Wait blocks until background runs started by Start have finished.
func (s *Syncer) Wait() {
	s.wg.Wait()
}

func (s *Syncer) acquire() error {
	if !s.running.CompareAndSwap(false, true) {
		return apperr.Conflict("a synchronization is already running")
	}
	return nil
}

func (s *Syncer) begin() {
	now := s.clock()
	s.mu.Lock()
	s.st = Status{Running: true, StartedAt: &now, Message: "synchronization in progress"}
	s.mu.Unlock()
}

func (s *Syncer) update(fn func(st *Status)) {
	s.mu.Lock()
	fn(&s.st)
	s.mu.Unlock()
}

// run does the work. The caller holds the running guard.
func (s *Syncer) run(ctx context.Context, username string) (Result, error) {
	if !s.Snapshot().Running {
		s.begin()
	}
	res, err := s.sync(ctx)

	now := s.clock()
	s.update(func(st *Status) {
		st.Running = false
		st.FinishedAt = &now
		st.CurrentGLPIID = nil
		if err != nil {
			st.LastError = err.Error()
			st.Message = "synchronization failed"
		} else {
			st.Message = res.Message
		}
	})

	meta := map[string]any{
		"computers_synced":  res.ComputersSynced,
		"components_synced": res.ComponentsSynced,
	}
	if err != nil {
		meta["error"] = err.Error()
		s.log.Error().Err(err).Str("username", username).Msg("synchronization failed")
	} else {
		s.log.Info().Str("username", username).Int("computers", res.ComputersSynced).
			Int("components", res.ComponentsSynced).Msg("synchronization finished")
	}
	telemetry.EmitAsync(s.events, telemetrydomain.New(telemetrydomain.EventSyncFinished, eventSource, username, "", meta))

	if err != nil {
		return res, apperr.Unavailable(err)
	}
	return res, nil
}

func (s *Syncer) sync(ctx context.Context) (Result, error) {
	var res Result
	if s.source == nil {
		return res, ErrNotConfigured
	}
	sess, err := s.source.Open(ctx)
	if err != nil {
		return res, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := sess.Close(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn().Err(err).Msg("close session failed")
		}
	}()

	for start := 0; ; start += s.pageSize {
		page, err := sess.Computers(ctx, start, s.pageSize)
		if err != nil {
			return res, fmt.Errorf("list computers from %d: %w", start, err)
		}
		for _, raw := range page {
			d, ok := glpi.ToDevice(raw)
			if !ok {
				continue
			}
			s.update(func(st *Status) { st.CurrentGLPIID = &d.GLPIID })

			id, err := s.store.UpsertByGLPIID(ctx, d)
			if err != nil {
				return res, fmt.Errorf("upsert computer %d: %w", d.GLPIID, err)
			}
			res.ComputersSynced++
			s.update(func(st *Status) { st.ComputersSynced = res.ComputersSynced })

			n, err := s.syncComponents(ctx, sess, id, d.GLPIID)
			if err != nil {
				// One computer's components must not abort the whole run.
				s.log.Error().Err(err).Int64("glpi_id", d.GLPIID).Msg("component sync failed")
				continue
			}
			res.ComponentsSynced += n
			s.update(func(st *Status) { st.ComponentsSynced = res.ComponentsSynced })
		}
		if len(page) < s.pageSize {
			break
		}
	}
	res.Message = fmt.Sprintf("synchronized %d computers and %d components", res.ComputersSynced, res.ComponentsSynced)
	return res, nil
}

func (s *Syncer) syncComponents(ctx context.Context, sess Session, deviceID string, glpiID int64) (int, error) {
	byType, err := sess.Components(ctx, glpiID)
	if err != nil {
		return 0, err
	}
	var comps []*devicedomain.Component
	for _, itemType := range glpi.ComponentTypes {
		for _, raw := range byType[itemType] {
			c := glpi.ToComponent(itemType, raw)
			c.DeviceID = deviceID
			comps = append(comps, c)
		}
	}
	if err := s.store.ReplaceComponents(ctx, deviceID, comps); err != nil {
		return 0, err
	}
	return len(comps), nil
}
