package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseEnv overlays values from environment variables that are set.
//
//	PORT         listen port, e.g. 8080 (becomes ":8080")
//	DB_DRIVER    sqlite | postgres
//	DB_DSN       database DSN or sqlite file path
//	JWT_SECRET   token signing secret
//	TOKEN_TTL    Go duration, e.g. 24h
//	LOG_LEVEL    debug | info | warn | error
//	BCRYPT_COST  integer work factor
func parseEnv(cfg *Config, getenv func(string) string) error {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	if v := get("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Addr = fmt.Sprintf(":%d", port)
	}
	if v := get("DB_DRIVER"); v != "" {
		cfg.DBDriver = v
	}
	if v := get("DB_DSN"); v != "" {
		cfg.DBDSN = v
	}
	if v := get("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := get("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid TOKEN_TTL %q: %w", v, err)
		}
		cfg.TokenTTL = ttl
	}
	if v := get("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := get("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid BCRYPT_COST %q", v)
		}
		cfg.BcryptCost = cost
	}
	return nil
}
