package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"device-maintenance/backend/internal/platform/httpjson"
	"device-maintenance/backend/internal/report"
)

// Reports generates and exports maintenance reports.
type Reports interface {
	Generate(ctx context.Context, req report.Request) (report.Result, error)
	Export(ctx context.Context, req report.Request) (report.Result, error)
}

// Handler serves /reports endpoints.
type Handler struct {
	reports Reports
	log     zerolog.Logger
}

// NewHandler returns a reports Handler.
func NewHandler(reports Reports, log zerolog.Logger) *Handler {
	return &Handler{reports: reports, log: log.With().Str("component", "report").Logger()}
}

// Maintenance handles GET /reports/maintenance?from=&to=&type=.
func (h *Handler) Maintenance(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	res, err := h.reports.Generate(r.Context(), req)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

// MaintenanceCSV handles GET /reports/maintenance.csv. The export policy applies; a capped
// export is flagged with X-Report-Truncated and X-Report-Total.
func (h *Handler) MaintenanceCSV(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	res, err := h.reports.Export(r.Context(), req)
	if err != nil {
		httpjson.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename(req)))
	w.Header().Set("X-Report-Total", strconv.Itoa(res.Total))
	if res.Truncated {
		w.Header().Set("X-Report-Truncated", "true")
	}
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, res.Items); err != nil {
		h.log.Warn().Err(err).Msg("write csv")
	}
}

// parseRequest reads from, to and type. maintenance_type is accepted for older clients.
func parseRequest(r *http.Request) (report.Request, error) {
	q := r.URL.Query()
	from, err := report.ParseDate("from", q.Get("from"))
	if err != nil {
		return report.Request{}, err
	}
	to, err := report.ParseDate("to", q.Get("to"))
	if err != nil {
		return report.Request{}, err
	}
	typ := q.Get("type")
	if typ == "" {
		typ = q.Get("maintenance_type")
	}
	return report.Request{From: from, To: to, Type: typ}, nil
}

func filename(req report.Request) string {
	name := "maintenance-report"
	if req.From != nil {
		name += "-" + req.From.Format(report.DateLayout)
	}
	if req.To != nil {
		name += "-" + req.To.Format(report.DateLayout)
	}
	return name + ".csv"
}
