package config

import (
	"flag"
	"fmt"
	"io"
	"time"
)

// parseFlags overlays values from command-line flags.
//
// Supported flags:
//
//	-a string       HTTP bind address (e.g., ":8080")
//	-driver string  database dialect (sqlite, postgres)
//	-d string       database DSN
//	-s string       JWT HMAC secret
//	-t int          token validity, minutes
//	-l string       log level
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("notes-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "address and port to run server")
	fs.StringVar(&cfg.DBDriver, "driver", cfg.DBDriver, "database driver")
	fs.StringVar(&cfg.DBDSN, "d", cfg.DBDSN, "database DSN")
	fs.StringVar(&cfg.JWTSecret, "s", cfg.JWTSecret, "secret key")
	ttl := fs.Int("t", int(cfg.TokenTTL.Minutes()), "token validity (in minutes)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("config: parsing flags: %w", err)
	}

	cfg.TokenTTL = time.Duration(*ttl) * time.Minute
	return nil
}
