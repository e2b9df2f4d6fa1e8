// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the REST API listens on (e.g. :8000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health endpoint (e.g. :9090). Empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// MigrateOnStart applies pending migrations before the server starts serving.
	MigrateOnStart bool `mapstructure:"MIGRATE_ON_START"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// AuthEnabled when false runs every request as a synthetic admin. Rejected in production.
	AuthEnabled bool `mapstructure:"AUTH_ENABLED"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTSecret enables HS256 tokens when no key pair is configured.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the iss claim.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "720m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// DefaultAdminPassword is the password given to the built-in admin when it is first created.
	DefaultAdminPassword string `mapstructure:"DEFAULT_ADMIN_PASSWORD"`
	// CORSOrigins is a comma-separated list of allowed browser origins ("*" allows any).
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`

	// MaintenanceIntervalDays is the preventive schedule offered to clients by default.
	MaintenanceIntervalDays int `mapstructure:"MAINTENANCE_INTERVAL_DAYS"`
	// ReportPolicyFile is an optional Rego file overriding the default report export policy.
	ReportPolicyFile string `mapstructure:"REPORT_POLICY_FILE"`

	// GLPIBaseURL is the GLPI REST root (e.g. https://glpi.example.org/apirest.php).
	GLPIBaseURL string `mapstructure:"GLPI_BASE_URL"`
	// GLPIAppToken is sent as App-Token on every GLPI call.
	GLPIAppToken string `mapstructure:"GLPI_APP_TOKEN"`
	// GLPIUserToken is used to open a GLPI session.
	GLPIUserToken string `mapstructure:"GLPI_USER_TOKEN"`
	// GLPIPageSize is the number of computers fetched per page during sync.
	GLPIPageSize int `mapstructure:"GLPI_PAGE_SIZE"`
	// SyncInterval runs the inventory sync periodically (e.g. "6h"); empty or 0 disables it.
	SyncInterval string `mapstructure:"SYNC_INTERVAL"`

	// EventsKafkaBrokers is a comma-separated list of Kafka broker addresses. Empty disables domain events.
	EventsKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// EventsKafkaTopic is the Kafka topic for domain events.
	EventsKafkaTopic string `mapstructure:"EVENTS_KAFKA_TOPIC"`
	// Worker-only: Loki URL for the event worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the event worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OTLPEndpoint is the OpenTelemetry collector (gRPC). Empty uses no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is reported to OpenTelemetry and the health endpoint.
	ServiceName string `mapstructure:"SERVICE_NAME"`

	// LogLevel is the zerolog level name.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogDebug forces debug level.
	LogDebug bool `mapstructure:"LOG_DEBUG"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MIGRATE_ON_START", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("AUTH_ENABLED", true)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "maintenance-auth")
	v.SetDefault("JWT_AUDIENCE", "maintenance-api")
	v.SetDefault("JWT_ACCESS_TTL", "720m")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("DEFAULT_ADMIN_PASSWORD", "admin")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MAINTENANCE_INTERVAL_DAYS", 365)
	v.SetDefault("REPORT_POLICY_FILE", "")
	v.SetDefault("GLPI_BASE_URL", "")
	v.SetDefault("GLPI_APP_TOKEN", "")
	v.SetDefault("GLPI_USER_TOKEN", "")
	v.SetDefault("GLPI_PAGE_SIZE", 50)
	v.SetDefault("SYNC_INTERVAL", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("EVENTS_KAFKA_TOPIC", "maintenance-events")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "maintenance-events-worker")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("SERVICE_NAME", "maintenance-api")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DEBUG", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if !cfg.AuthEnabled && cfg.Env == "production" {
		return nil, errors.New("config: AUTH_ENABLED must not be false when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.MaintenanceIntervalDays <= 0 {
		return nil, errors.New("config: MAINTENANCE_INTERVAL_DAYS must be positive")
	}

	if cfg.GLPIPageSize <= 0 {
		cfg.GLPIPageSize = 50
	}
	if cfg.GLPIPageSize > 500 {
		return nil, errors.New("config: GLPI_PAGE_SIZE must be at most 500")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 720m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 720 * time.Minute
	}
	return d
}

// SyncEvery parses SyncInterval. Returns 0 (disabled) if unset or invalid.
func (c *Config) SyncEvery() time.Duration {
	if c == nil || strings.TrimSpace(c.SyncInterval) == "" {
		return 0
	}
	d, err := time.ParseDuration(c.SyncInterval)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// GLPIEnabled reports whether inventory sync has enough configuration to run.
func (c *Config) GLPIEnabled() bool {
	return c != nil && c.GLPIBaseURL != "" && c.GLPIAppToken != "" && c.GLPIUserToken != ""
}

// EventsKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if domain events are enabled (non-empty list) and to create the producer.
func (c *Config) EventsKafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.EventsKafkaBrokers)
}

// CORSOriginsList returns the allowed origins.
func (c *Config) CORSOriginsList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.CORSOrigins)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
