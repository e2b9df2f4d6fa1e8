// Package server assembles the HTTP API and the gRPC health endpoint.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"device-maintenance/backend/internal/audit"
	audithandler "device-maintenance/backend/internal/audit/handler"
	dashboardhandler "device-maintenance/backend/internal/dashboard/handler"
	devicehandler "device-maintenance/backend/internal/device/handler"
	"device-maintenance/backend/internal/health"
	healthhandler "device-maintenance/backend/internal/health/handler"
	identitydomain "device-maintenance/backend/internal/identity/domain"
	identityhandler "device-maintenance/backend/internal/identity/handler"
	inventoryhandler "device-maintenance/backend/internal/inventory/handler"
	maintenancehandler "device-maintenance/backend/internal/maintenance/handler"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/httpjson"
	reporthandler "device-maintenance/backend/internal/report/handler"
	"device-maintenance/backend/internal/server/middleware"
	"device-maintenance/backend/internal/telemetry"
	userhandler "device-maintenance/backend/internal/user/handler"
)

// Auth logs users in and resolves bearer tokens.
type Auth interface {
	identityhandler.Authenticator
	middleware.TokenResolver
}

// Deps holds the services behind the HTTP API.
type Deps struct {
	Log    zerolog.Logger
	Health *health.Checker
	Auth   Auth
	// DevIdentity, when set, replaces token authentication: every request runs as this identity.
	DevIdentity *identitydomain.Identity

	Catalog   devicehandler.Catalog
	Ledger    maintenancehandler.Ledger
	Dashboard dashboardhandler.MetricsSource
	Reports   reporthandler.Reports
	Users     userhandler.Admin
	AuditLogs audithandler.Lister
	Syncer    inventoryhandler.Syncer
	Settings  Settings

	// AuditLogger records mutating requests. Nil disables the audit trail.
	AuditLogger audit.AuditLogger
	// Events receives an http_request event per authenticated request. May be nil.
	Events telemetry.EventEmitter
	// Observer traces requests and records metrics. May be nil.
	Observer    *middleware.Observer
	CORSOrigins []string
}

// Settings are the client-facing defaults served by GET /settings.
type Settings struct {
	MaintenanceIntervalDays int `json:"maintenance_interval_days"`
}

// NewRouter builds the API handler. /health and /auth/login are public; every other route
// requires an identity.
func NewRouter(deps Deps) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		httpjson.Error(w, req, apperr.NotFound("route"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpjson.Write(w, http.StatusMethodNotAllowed, httpjson.ErrorBody{
			Message: "method not allowed", Status: http.StatusMethodNotAllowed,
		})
	})

	r.Use(middleware.RequestContext, middleware.RequestLog(deps.Log))
	if deps.Observer != nil {
		r.Use(deps.Observer.Middleware)
	}

	auth := identityhandler.NewHandler(deps.Auth)
	r.HandleFunc("/health", healthhandler.HTTP(deps.Health)).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", auth.Login).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	if deps.DevIdentity != nil {
		api.Use(middleware.StaticIdentity(deps.DevIdentity))
	} else {
		api.Use(middleware.Authenticate(deps.Auth))
	}
	api.Use(middleware.Audit(deps.AuditLogger), middleware.Events(deps.Events))

	api.HandleFunc("/auth/me", auth.Me).Methods(http.MethodGet)
	api.HandleFunc("/settings", settingsHandler(deps.Settings)).Methods(http.MethodGet)

	devices := devicehandler.NewHandler(deps.Catalog)
	api.HandleFunc("/devices", devices.List).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id}", devices.Get).Methods(http.MethodGet)

	ledger := maintenancehandler.NewHandler(deps.Ledger)
	api.HandleFunc("/devices/{id}/notes", ledger.ListNotes).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id}/notes", ledger.AddNote).Methods(http.MethodPost)
	api.HandleFunc("/devices/{id}/notes/{noteId}", ledger.EditNote).Methods(http.MethodPut)
	api.HandleFunc("/devices/{id}/notes/{noteId}", ledger.DeleteNote).Methods(http.MethodDelete)
	api.HandleFunc("/devices/{id}/maintenance", ledger.ListMaintenance).Methods(http.MethodGet)
	api.HandleFunc("/devices/{id}/maintenance", ledger.AddMaintenance).Methods(http.MethodPost)
	api.HandleFunc("/maintenance/{id}", ledger.UpdateMaintenance).Methods(http.MethodPatch)
	api.HandleFunc("/maintenance/{id}", ledger.DeleteMaintenance).Methods(http.MethodDelete)

	api.HandleFunc("/dashboard/metrics", dashboardhandler.NewHandler(deps.Dashboard).Metrics).Methods(http.MethodGet)

	reports := reporthandler.NewHandler(deps.Reports, deps.Log)
	api.HandleFunc("/reports/maintenance", reports.Maintenance).Methods(http.MethodGet)
	api.HandleFunc("/reports/maintenance.csv", reports.MaintenanceCSV).Methods(http.MethodGet)

	users := userhandler.NewHandler(deps.Users)
	api.HandleFunc("/users", users.List).Methods(http.MethodGet)
	api.HandleFunc("/users/{username}/access", users.UpdateAccess).Methods(http.MethodPatch)

	api.HandleFunc("/audit-logs", audithandler.NewHandler(deps.AuditLogs).List).Methods(http.MethodGet)

	syncs := inventoryhandler.NewHandler(deps.Syncer)
	api.HandleFunc("/sync", syncs.Sync).Methods(http.MethodPost)
	api.HandleFunc("/sync/status", syncs.Status).Methods(http.MethodGet)

	return middleware.CORS(deps.CORSOrigins)(r)
}

func settingsHandler(s Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.IdentityFrom(r.Context()); !ok {
			httpjson.Error(w, r, apperr.ErrUnauthorized)
			return
		}
		httpjson.Write(w, http.StatusOK, s)
	}
}

// NewHTTPServer wraps handler with the API timeouts. A synchronous sync run can take minutes,
// so the write timeout is generous.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      15 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}
