package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/report"
)

type stubReports struct {
	last   report.Request
	result report.Result
	err    error
}

func (s *stubReports) Generate(_ context.Context, req report.Request) (report.Result, error) {
	s.last = req
	return s.result, s.err
}

func (s *stubReports) Export(_ context.Context, req report.Request) (report.Result, error) {
	s.last = req
	return s.result, s.err
}

var rows = []report.Row{{
	DeviceID: "d-1", DeviceName: "PC-RH-01", AssetTag: "PAT-001", Technician: "Maria Souza",
	MaintenanceType: "preventive", PerformedAt: "2024-01-15T10:00:00Z",
}}

func TestMaintenance_ParsesFilters(t *testing.T) {
	s := &stubReports{result: report.Result{Items: rows, Total: 1}}
	rec := httptest.NewRecorder()
	NewHandler(s, zerolog.Nop()).Maintenance(rec, httptest.NewRequest(http.MethodGet, "/reports/maintenance?from=2024-01-01&to=2024-01-31&type=Preventiva", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *s.last.From)
	require.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *s.last.To)
	require.Equal(t, "Preventiva", s.last.Type)
	require.Contains(t, rec.Body.String(), `"asset_tag":"PAT-001"`)
}

func TestMaintenance_LegacyTypeParam(t *testing.T) {
	s := &stubReports{}
	NewHandler(s, zerolog.Nop()).Maintenance(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reports/maintenance?maintenance_type=Corretiva", nil))
	require.Equal(t, "Corretiva", s.last.Type)
	require.Nil(t, s.last.From)
}

func TestMaintenance_BadDate(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&stubReports{}, zerolog.Nop()).Maintenance(rec, httptest.NewRequest(http.MethodGet, "/reports/maintenance?to=31/01/2024", nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `"field":"to"`)
}

func TestMaintenanceCSV(t *testing.T) {
	s := &stubReports{result: report.Result{Items: rows, Total: 3, Truncated: true}}
	rec := httptest.NewRecorder()
	NewHandler(s, zerolog.Nop()).MaintenanceCSV(rec, httptest.NewRequest(http.MethodGet, "/reports/maintenance.csv?from=2024-01-01", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "maintenance-report-2024-01-01.csv")
	require.Equal(t, "true", rec.Header().Get("X-Report-Truncated"))
	require.Equal(t, "3", rec.Header().Get("X-Report-Total"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "device_name,asset_tag,technician,maintenance_type,performed_at", lines[0])
	require.Equal(t, "PC-RH-01,PAT-001,Maria Souza,preventive,2024-01-15T10:00:00Z", lines[1])
}

func TestMaintenanceCSV_Denied(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&stubReports{err: apperr.Forbidden("exports are limited to auditors")}, zerolog.Nop()).
		MaintenanceCSV(rec, httptest.NewRequest(http.MethodGet, "/reports/maintenance.csv", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestMaintenanceCSV_WriteFailureLogged(t *testing.T) {
	var logged bytes.Buffer
	s := &stubReports{result: report.Result{Items: rows, Total: 1}}
	w := brokenWriter{httptest.NewRecorder()}
	NewHandler(s, zerolog.New(&logged)).MaintenanceCSV(w, httptest.NewRequest(http.MethodGet, "/reports/maintenance.csv", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, logged.String(), `"component":"report"`)
	require.Contains(t, logged.String(), `"message":"write csv"`)
	require.Contains(t, logged.String(), "connection reset")
}
