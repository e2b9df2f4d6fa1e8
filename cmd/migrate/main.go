// migrate applies or rolls back the embedded schema migrations; use with ./scripts/migrate.sh or go run ./cmd/migrate.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"device-maintenance/backend/internal/config"
	"device-maintenance/backend/internal/db/migrate"
	"device-maintenance/backend/internal/logger"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	showVersion := flag.Bool("version", false, "print the current schema version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	base, err := logger.New(logger.Config{Level: cfg.LogLevel, Debug: cfg.LogDebug, Output: "stderr"})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	l := logger.WithComponent(base, "migrate")
	if cfg.DatabaseURL == "" {
		l.Fatal().Msg("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	if *showVersion {
		v, dirty, err := migrate.Version(cfg.DatabaseURL)
		if err != nil {
			l.Fatal().Err(err).Msg("read schema version")
		}
		fmt.Printf("version %d dirty=%t\n", v, dirty)
		return
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			l.Info().Str("direction", *direction).Msg("schema already at target version")
			return
		}
		l.Fatal().Err(err).Str("direction", *direction).Msg("migration failed")
	}
	l.Info().Str("direction", *direction).Msg("migrations applied")
}
