package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"device-maintenance/backend/internal/inventory/service"
	"device-maintenance/backend/internal/platform/apperr"
)

type stubSyncer struct {
	runs, starts int
	err          error
}

func (s *stubSyncer) Run(context.Context) (service.Result, error) {
	s.runs++
	return service.Result{ComputersSynced: 3, ComponentsSynced: 9, Message: "ok"}, s.err
}

func (s *stubSyncer) Start(context.Context) (service.Status, error) {
	s.starts++
	if s.err != nil {
		return service.Status{}, s.err
	}
	return service.Status{Running: true, Message: "started"}, nil
}

func (s *stubSyncer) Status(context.Context) (service.Status, error) {
	return service.Status{ComputersSynced: 3}, nil
}

func TestSync_Modes(t *testing.T) {
	tests := []struct {
		target string
		status int
		runs   int
		starts int
	}{
		{"/sync", http.StatusOK, 1, 0},
		{"/sync?mode=sync", http.StatusOK, 1, 0},
		{"/sync?mode=async", http.StatusAccepted, 0, 1},
		{"/sync?async=true", http.StatusAccepted, 0, 1},
		{"/sync?mode=later", http.StatusUnprocessableEntity, 0, 0},
		{"/sync?async=maybe", http.StatusUnprocessableEntity, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			s := &stubSyncer{}
			rec := httptest.NewRecorder()
			NewHandler(s).Sync(rec, httptest.NewRequest(http.MethodPost, tt.target, nil))
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.runs, s.runs)
			require.Equal(t, tt.starts, s.starts)
		})
	}
}

func TestSync_Conflict(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&stubSyncer{err: apperr.Conflict("a synchronization is already running")}).
		Sync(rec, httptest.NewRequest(http.MethodPost, "/sync?mode=async", nil))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "already running")
}

func TestStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&stubSyncer{}).Status(rec, httptest.NewRequest(http.MethodGet, "/sync/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"computers_synced":3`)
}
