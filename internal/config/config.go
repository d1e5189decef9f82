// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// weakSecretLength is the threshold below which a signing secret is
// reported as weak. The check warns, it does not refuse startup.
const weakSecretLength = 30

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds SQLite settings.
	Database DatabaseConfig

	// Auth holds authentication-related settings.
	Auth AuthConfig

	// Session holds local session artifact settings.
	Session SessionConfig

	// Sentry holds the event monitor settings.
	Sentry SentryConfig
}

// DatabaseConfig holds SQLite connection parameters.
type DatabaseConfig struct {
	// Path is the SQLite database file (default: "./epicevents.db").
	Path string

	// BusyTimeout is how long a statement waits on a locked database.
	BusyTimeout time.Duration
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// SecretKey is the HMAC signing key for session tokens.
	SecretKey string

	// TokenTTL is how long an issued token stays valid.
	TokenTTL time.Duration
}

// SessionConfig holds local session artifact settings.
type SessionConfig struct {
	// Path is the file the active token is persisted to. The file lives
	// outside version control; absence means "logged out".
	Path string
}

// SentryConfig holds the external event monitor settings.
type SentryConfig struct {
	// DSN is the Sentry project DSN. Empty disables notifications.
	DSN string
}

// Load reads configuration from environment variables with sensible
// defaults. Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Database: DatabaseConfig{
			Path:        getEnv("DATABASE_PATH", "./epicevents.db"),
			BusyTimeout: getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second),
		},

		Auth: AuthConfig{
			SecretKey: getEnv("SECRET_KEY", ""),
			TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),
		},

		Session: SessionConfig{
			Path: getEnv("SESSION_PATH", defaultSessionPath()),
		},

		Sentry: SentryConfig{
			DSN: getEnv("SENTRY_DSN", ""),
		},
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	envLower := strings.ToLower(cfg.Env)
	if envLower == "production" || envLower == "prod" {
		if cfg.Auth.SecretKey == "" {
			return nil, fmt.Errorf("SECRET_KEY is required in production")
		}
	}

	// Provide a dev-only default secret so local dev works without a .env.
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	// Operational weak-secret policy: warn, never log the secret itself.
	if len(cfg.Auth.SecretKey) < weakSecretLength {
		slog.Warn("signing secret is shorter than recommended",
			slog.Int("length", len(cfg.Auth.SecretKey)),
			slog.Int("recommended_min", weakSecretLength),
		)
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// defaultSessionPath returns the session file location inside the user's
// home directory, falling back to the working directory when the home
// cannot be resolved.
func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".epicevents-session"
	}
	return filepath.Join(home, ".epicevents-session")
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "24h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
