package config

import (
	"fmt"
	"os"
)

// Config carries the environment-driven settings for the engine.
type Config struct {
	// ServerPort is the listen port for serve mode. "0" picks a free port,
	// which the tests rely on.
	ServerPort string
	// AuditDBDSN, when set, enables persisting account snapshots to Postgres.
	AuditDBDSN string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is json or text.
	LogFormat string
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		AuditDBDSN: os.Getenv("AUDIT_DB_DSN"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
	}
}

// AuditEnabled reports whether a snapshot audit store is configured.
func (c *Config) AuditEnabled() bool {
	return c.AuditDBDSN != ""
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
