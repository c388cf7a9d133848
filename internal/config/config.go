// Package config handles configuration for the server, including defaults,
// an environment overlay and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/notes-backend/internal/database"
)

// Config holds runtime settings for the notes server.
//
// Fields:
//   - Addr: bind address for the HTTP listener.
//   - DBDriver / DBDSN: store dialect ("sqlite" or "postgres") and its DSN.
//   - JWTSecret: HMAC secret for signing session tokens (HS256).
//   - TokenTTL: lifetime of an issued token.
//   - LogLevel: slog level name (debug, info, warn, error).
//   - BcryptCost: password hashing work factor.
type Config struct {
	Addr       string
	DBDriver   string
	DBDSN      string
	JWTSecret  string
	TokenTTL   time.Duration
	LogLevel   string
	BcryptCost int
}

// LoadDefaults populates Config with development defaults. JWTSecret is left
// empty and must be supplied.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.DBDriver = string(database.SQLite)
	c.DBDSN = "data/notes.db"
	c.TokenTTL = 24 * time.Hour
	c.LogLevel = "info"
	c.BcryptCost = 12
}

// Load builds a Config by applying defaults, then the environment, then
// flags from args (without the program name). The result is validated.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT secret must be at least 16 characters"))
	}
	if _, err := database.ParseDialect(c.DBDriver); err != nil {
		errs = append(errs, err)
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("database DSN is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token TTL must be positive, got %s", c.TokenTTL))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return lvl, nil
}
