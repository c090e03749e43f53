package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultSecretKey is the development signing key. Never use it in production.
const DefaultSecretKey = "dev-secret"

type Config struct {
	// HTTP Server
	Port            int           `envconfig:"PORT" default:"5000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`

	// Auth
	SecretKey    string `envconfig:"SECRET_KEY" default:"dev-secret"`
	AppUser      string `envconfig:"APP_USER" default:"admin"`
	AppPass      string `envconfig:"APP_PASS" default:"password"`
	SecureCookie bool   `envconfig:"SESSION_COOKIE_SECURE" default:"false"`

	// Storage
	SQLiteDBPath string `envconfig:"SQLITE_DB_PATH" default:"./expenses.db"`
	ReceiptsDir  string `envconfig:"RECEIPTS_DIR" default:"./static/receipts"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// UsesDefaultSecret reports whether sessions are signed with the development key.
func (c *Config) UsesDefaultSecret() bool {
	return c.SecretKey == DefaultSecretKey
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.Port < 1 || c.Port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}

	if c.SecretKey == "" {
		errors = append(errors, "SECRET_KEY cannot be empty")
	}
	if c.AppUser == "" {
		errors = append(errors, "APP_USER cannot be empty")
	}
	if c.AppPass == "" {
		errors = append(errors, "APP_PASS cannot be empty")
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if err := ensureDir(filepath.Dir(c.SQLiteDBPath)); err != nil {
		errors = append(errors, fmt.Sprintf("cannot create SQLite database directory: %v", err))
	}

	if c.ReceiptsDir == "" {
		errors = append(errors, "receipts directory cannot be empty")
	}

	if c.MaxUploadBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be at least 1024 bytes", c.MaxUploadBytes))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	} else if c.ShutdownTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at most 5 minutes", c.ShutdownTimeout))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func ensureDir(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
