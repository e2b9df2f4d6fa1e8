package handler

import (
	"net/http"

	"device-maintenance/backend/internal/health"
	"device-maintenance/backend/internal/platform/httpjson"
)

// HTTP serves GET /health. A degraded report is returned with 503.
func HTTP(checker *health.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := checker.Check(r.Context())
		status := http.StatusOK
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
		}
		httpjson.Write(w, status, report)
	}
}
