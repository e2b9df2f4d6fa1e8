package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"device-maintenance/backend/internal/health"
)

func TestHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	HTTP(health.NewChecker("maintenance-api", &mockPinger{}, nil)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var r health.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	require.Equal(t, "ok", r.Status)
	require.Equal(t, "maintenance-api", r.Service)
	require.Equal(t, "ok", r.Checks["database"])
}

func TestHTTP_Degraded(t *testing.T) {
	rec := httptest.NewRecorder()
	HTTP(health.NewChecker("maintenance-api", &mockPinger{pingErr: errors.New("timeout")}, nil)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"degraded"`)
}
