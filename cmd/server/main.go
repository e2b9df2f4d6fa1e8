// server runs the maintenance REST API and the gRPC health endpoint.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	otelapi "go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"device-maintenance/backend/internal/audit"
	auditrepo "device-maintenance/backend/internal/audit/repository"
	auditservice "device-maintenance/backend/internal/audit/service"
	"device-maintenance/backend/internal/config"
	"device-maintenance/backend/internal/dashboard"
	"device-maintenance/backend/internal/db"
	"device-maintenance/backend/internal/db/migrate"
	devicerepo "device-maintenance/backend/internal/device/repository"
	deviceservice "device-maintenance/backend/internal/device/service"
	"device-maintenance/backend/internal/health"
	identityservice "device-maintenance/backend/internal/identity/service"
	"device-maintenance/backend/internal/inventory/glpi"
	inventoryservice "device-maintenance/backend/internal/inventory/service"
	"device-maintenance/backend/internal/logger"
	maintenancerepo "device-maintenance/backend/internal/maintenance/repository"
	maintenanceservice "device-maintenance/backend/internal/maintenance/service"
	"device-maintenance/backend/internal/policy/engine"
	"device-maintenance/backend/internal/report"
	"device-maintenance/backend/internal/security"
	"device-maintenance/backend/internal/server"
	"device-maintenance/backend/internal/server/middleware"
	"device-maintenance/backend/internal/status"
	"device-maintenance/backend/internal/telemetry"
	"device-maintenance/backend/internal/telemetry/otel"
	"device-maintenance/backend/internal/telemetry/producer"
	userrepo "device-maintenance/backend/internal/user/repository"
	userservice "device-maintenance/backend/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	l, err := logger.New(logger.Config{Level: cfg.LogLevel, Debug: cfg.LogDebug})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, l zerolog.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if cfg.MigrateOnStart {
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate: %w", err)
		}
		l.Info().Msg("migrations applied")
	}
	conn, err := db.OpenContext(ctx, cfg.DatabaseURL, db.DefaultPoolOptions())
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer conn.Close()

	var providers *otel.Providers
	if cfg.OTLPEndpoint != "" {
		providers, err = otel.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
		providers.SetGlobal()
	}

	var emitters []telemetry.EventEmitter
	kafkaProducer := producer.NewKafkaProducer(cfg.EventsKafkaBrokersList(), cfg.EventsKafkaTopic)
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
		defer kafkaProducer.Close()
	}
	if providers != nil {
		emitters = append(emitters, otel.NewEventEmitter(providers.LoggerProvider))
	}
	events := telemetry.Multi(emitters...)

	policy, err := engine.LoadPolicyFile(cfg.ReportPolicyFile)
	if err != nil {
		return fmt.Errorf("report policy: %w", err)
	}
	evaluator := engine.NewOPAEvaluator(policy)

	tokens, err := security.LoadTokenProvider(security.TokenSettings{
		PrivateKey: cfg.JWTPrivateKey,
		PublicKey:  cfg.JWTPublicKey,
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		AccessTTL:  cfg.AccessTTL(),
	})
	if err != nil {
		return fmt.Errorf("tokens: %w", err)
	}

	app := wire(cfg, conn, tokens, evaluator, events, l)

	created, err := app.auth.EnsureDefaultAdmin(ctx, cfg.DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("default admin: %w", err)
	}
	if created && cfg.DefaultAdminPassword == "admin" {
		l.Warn().Msg("default admin created with the built-in password; change DEFAULT_ADMIN_PASSWORD")
	}

	checker := health.NewChecker(cfg.ServiceName, conn, evaluator)
	deps := app.deps
	deps.Log = l
	deps.Health = checker
	deps.CORSOrigins = cfg.CORSOriginsList()
	deps.Observer, err = middleware.NewObserver(otelapi.Tracer(cfg.ServiceName), otelapi.Meter(cfg.ServiceName))
	if err != nil {
		return fmt.Errorf("http instrumentation: %w", err)
	}
	if !cfg.AuthEnabled {
		l.Warn().Msg("authentication disabled; every request runs as the default admin")
		deps.DevIdentity = identityservice.DevIdentity()
	}

	httpSrv := server.NewHTTPServer(cfg.HTTPAddr, server.NewRouter(deps))
	var grpcSrv *grpc.Server
	var grpcLis net.Listener
	if cfg.GRPCAddr != "" {
		if grpcLis, err = net.Listen("tcp", cfg.GRPCAddr); err != nil {
			return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
		}
		grpcSrv = server.NewGRPCServer(checker)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	if grpcSrv != nil {
		g.Go(func() error {
			l.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
			if err := grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc: %w", err)
			}
			return nil
		})
	}
	if every := cfg.SyncEvery(); every > 0 && cfg.GLPIEnabled() {
		l.Info().Dur("interval", every).Msg("periodic inventory sync enabled")
		g.Go(func() error {
			app.syncer.RunEvery(gctx, every)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if grpcSrv != nil {
			grpcSrv.GracefulStop()
		}
		return httpSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	app.syncer.Wait()
	if providers != nil {
		time.Sleep(telemetry.ShutdownDrainDuration)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if serr := providers.Shutdown(shutdownCtx); serr != nil {
			l.Error().Err(serr).Msg("otel shutdown")
		}
	}
	l.Info().Msg("server stopped")
	return err
}

type application struct {
	auth   *identityservice.AuthService
	syncer *inventoryservice.Syncer
	deps   server.Deps
}

func wire(cfg *config.Config, conn *sql.DB, tokens *security.TokenProvider, evaluator *engine.OPAEvaluator, events telemetry.EventEmitter, l zerolog.Logger) *application {
	clock := status.SystemClock

	auditRepo := auditrepo.NewPostgresRepository(conn)
	auditLogger := audit.NewLogger(auditRepo, middleware.ClientIPFrom)
	devices := devicerepo.NewPostgresRepository(conn)
	maintenance := maintenancerepo.NewPostgresRepository(conn)
	users := userrepo.NewPostgresRepository(conn)

	auth := identityservice.NewAuthService(users, security.NewHasher(cfg.BcryptCost), tokens, auditLogger)

	var source inventoryservice.Source
	if cfg.GLPIEnabled() {
		client := glpi.NewClient(cfg.GLPIBaseURL, cfg.GLPIAppToken, cfg.GLPIUserToken, &http.Client{Timeout: 60 * time.Second})
		source = inventoryservice.GLPISource{Client: client}
	}
	syncer := inventoryservice.NewSyncer(source, devices, events, cfg.GLPIPageSize, clock, l)

	return &application{
		auth:   auth,
		syncer: syncer,
		deps: server.Deps{
			Auth:        auth,
			Catalog:     deviceservice.NewCatalog(devices, clock),
			Ledger:      maintenanceservice.NewLedger(maintenance, maintenance, devices, events, clock, l),
			Dashboard:   dashboard.NewService(devices, maintenance, clock),
			Reports:     report.NewService(maintenance, evaluator, l),
			Users:       userservice.NewService(users, events, clock),
			AuditLogs:   auditservice.NewQuery(auditRepo),
			Syncer:      syncer,
			Settings:    server.Settings{MaintenanceIntervalDays: cfg.MaintenanceIntervalDays},
			AuditLogger: auditLogger,
			Events:      events,
		},
	}
}
