// Package config loads replicalog settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the settings shared by every replicalog command.
type Config struct {
	// Dir is the base directory; stores live in its ".replicas" subdirectory.
	Dir string `env:"REPLICALOG_DIR" envDefault:"."`
	// Instance namespaces store files. Empty means no namespace.
	Instance string `env:"REPLICALOG_INSTANCE"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"REPLICALOG_LOG_LEVEL" envDefault:"info"`
	// Format selects how events are printed: json or yaml.
	Format string `env:"REPLICALOG_FORMAT" envDefault:"json"`
}

// Load reads the optional dotenv files, then parses the environment.
//
// Variables already set in the environment win over the dotenv files. A
// missing dotenv file is not an error. The result is not validated, so callers
// can apply flag overrides first and then call Validate.
func Load(dotenv ...string) (Config, error) {
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("invalid format %q, want json or yaml", c.Format)
	}
	return nil
}

// ParseLevel converts a log level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
}
