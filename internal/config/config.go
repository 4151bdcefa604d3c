// Package config provides centralized configuration management for the ledger
// import server and CLI. It loads configuration from environment variables
// with defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Events   EventsConfig
	Cache    CacheConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver is memory or postgres (default: memory)
	Driver string `env:"STORE_DRIVER" default:"memory"`

	// Timeout bounds every persistence call (default: 10s)
	Timeout time.Duration `env:"STORE_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds database connection settings. Only used by the
// postgres driver.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required for the postgres driver.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Migrate applies pending schema migrations on startup (default: true)
	Migrate bool `env:"DB_MIGRATE" default:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds file import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted file size in bytes (default: 20MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the maximum number of parallel imports (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an import slot (default: 15s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"15s"`

	// MaxTextRunes caps free-text fields such as labels (default: 512)
	MaxTextRunes int `env:"IMPORT_MAX_TEXT_RUNES" default:"512"`

	// MaxInvalidRows caps the invalid rows reported back (default: 100)
	MaxInvalidRows int `env:"IMPORT_MAX_INVALID_ROWS" default:"100"`

	// SniffBytes is the window inspected for mis-decoded text (default: 4096)
	SniffBytes int `env:"IMPORT_SNIFF_BYTES" default:"4096"`

	// SynonymsFile is an optional YAML file extending the header dictionary
	SynonymsFile string `env:"IMPORT_SYNONYMS_FILE"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for import endpoints (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey rejects API requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// EventsConfig holds import event publishing settings. Publishing is off
// when no brokers are set.
type EventsConfig struct {
	// KafkaBrokers is a comma-separated list of broker addresses
	KafkaBrokers []string `env:"KAFKA_BROKERS"`

	// TopicPrefix is prepended to every topic name (default: none)
	TopicPrefix string `env:"KAFKA_TOPIC_PREFIX"`

	// WriteTimeout bounds a single publish (default: 5s)
	WriteTimeout time.Duration `env:"KAFKA_WRITE_TIMEOUT" default:"5s"`
}

// CacheConfig holds signature cache settings.
type CacheConfig struct {
	// SweepSchedule is a cron schedule for evicting idle scopes (default: @every 10m)
	SweepSchedule string `env:"CACHE_SWEEP_SCHEDULE" default:"@every 10m"`

	// MaxIdle is how long an unused scope stays cached (default: 30m)
	MaxIdle time.Duration `env:"CACHE_MAX_IDLE" default:"30m"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// EventsEnabled reports whether a Kafka publisher should be started.
func (c *Config) EventsEnabled() bool {
	return len(c.Events.KafkaBrokers) > 0
}
