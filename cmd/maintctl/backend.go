package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"device-maintenance/backend/internal/audit"
	auditrepo "device-maintenance/backend/internal/audit/repository"
	"device-maintenance/backend/internal/config"
	"device-maintenance/backend/internal/db"
	devicerepo "device-maintenance/backend/internal/device/repository"
	identitydomain "device-maintenance/backend/internal/identity/domain"
	"device-maintenance/backend/internal/inventory/glpi"
	inventoryservice "device-maintenance/backend/internal/inventory/service"
	maintrepo "device-maintenance/backend/internal/maintenance/repository"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/policy/engine"
	"device-maintenance/backend/internal/report"
	"device-maintenance/backend/internal/status"
	"device-maintenance/backend/internal/telemetry/producer"
	userrepo "device-maintenance/backend/internal/user/repository"
	userservice "device-maintenance/backend/internal/user/service"
)

// Syncer runs one inventory sync.
type Syncer interface {
	Run(ctx context.Context) (inventoryservice.Result, error)
}

// UserAdmin lists users and changes their access.
type UserAdmin interface {
	List(ctx context.Context) ([]*userservice.View, error)
	UpdateAccess(ctx context.Context, username string, patch userservice.AccessPatch) (*userservice.View, error)
}

// Exporter produces the policy-filtered maintenance report.
type Exporter interface {
	Export(ctx context.Context, req report.Request) (report.Result, error)
}

// Backend is what the commands act on.
type Backend struct {
	Syncer  Syncer
	Users   UserAdmin
	Reports Exporter
	Audit   audit.AuditLogger
	// Resolve loads the stored user the CLI acts as.
	Resolve func(ctx context.Context, username string) (*identitydomain.Identity, error)
	Close   func() error
}

// BackendFactory opens a Backend. Tests replace it with fakes.
type BackendFactory func(ctx context.Context, log zerolog.Logger) (*Backend, error)

func openBackend(ctx context.Context, log zerolog.Logger) (*Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	conn, err := db.OpenContext(ctx, cfg.DatabaseURL, db.DefaultPoolOptions())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	policy, err := engine.LoadPolicyFile(cfg.ReportPolicyFile)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("report policy: %w", err)
	}

	events := producer.NewKafkaProducer(cfg.EventsKafkaBrokersList(), cfg.EventsKafkaTopic)
	var source inventoryservice.Source
	if cfg.GLPIEnabled() {
		source = inventoryservice.GLPISource{
			Client: glpi.NewClient(cfg.GLPIBaseURL, cfg.GLPIAppToken, cfg.GLPIUserToken, &http.Client{Timeout: 60 * time.Second}),
		}
	}

	users := userrepo.NewPostgresRepository(conn)
	records := maintrepo.NewPostgresRepository(conn)
	return &Backend{
		Syncer:  inventoryservice.NewSyncer(source, devicerepo.NewPostgresRepository(conn), events, cfg.GLPIPageSize, status.SystemClock, log),
		Users:   userservice.NewService(users, events, status.SystemClock),
		Reports: report.NewService(records, engine.NewOPAEvaluator(policy), log),
		Audit:   audit.NewLogger(auditrepo.NewPostgresRepository(conn), func(context.Context) string { return "cli" }),
		Resolve: func(ctx context.Context, username string) (*identitydomain.Identity, error) {
			u, err := users.GetByUsername(ctx, username)
			if err != nil {
				return nil, apperr.Unavailable(err)
			}
			if u == nil {
				return nil, apperr.NotFound("user " + username)
			}
			return identitydomain.FromUser(u), nil
		},
		Close: func() error {
			var errs []error
			if events != nil {
				errs = append(errs, events.Close())
			}
			errs = append(errs, conn.Close())
			return errors.Join(errs...)
		},
	}, nil
}
