// Package config loads dual's settings from a YAML file, DUAL_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/dual/internal/store"
)

// EnvPrefix prefixes every environment variable, e.g. DUAL_DATABASE_DSN.
const EnvPrefix = "DUAL"

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Search   SearchConfig   `mapstructure:"search"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type SearchConfig struct {
	DefaultLimit int      `mapstructure:"default_limit"`
	TextFields   []string `mapstructure:"text_fields"`
}

type CatalogConfig struct {
	// Schema is an optional CUE file of field declarations.
	Schema string `mapstructure:"schema"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: store.DriverSQLite3,
			DSN:    "library.db",
		},
		Search: SearchConfig{
			DefaultLimit: 100,
			TextFields:   []string{"title", "album", "albumartist", "artist"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":     "database.dsn",
	"driver": "database.driver",
	"limit":  "search.default_limit",
	"schema": "catalog.schema",
}

// Load reads configuration. Later sources win:
//
//  1. Defaults
//  2. The config file: path if set, else dual.yaml in the user config
//     directory or the working directory
//  3. DUAL_* environment variables (DUAL_DATABASE_DSN, ...)
//  4. Flags in flags that were set explicitly
//
// A missing default config file is not an error; a missing explicit
// path is.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("search.default_limit", d.Search.DefaultLimit)
	v.SetDefault("search.text_fields", d.Search.TextFields)
	v.SetDefault("catalog.schema", d.Catalog.Schema)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dual")
		v.SetConfigType("yaml")
		if configDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(configDir, "dual"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var (
	validDrivers    = []string{store.DriverSQLite3, store.DriverSQLite, store.DriverPostgres}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !slices.Contains(validDrivers, c.Database.Driver) {
		return fmt.Errorf("database.driver %q: must be one of %v", c.Database.Driver, validDrivers)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Search.DefaultLimit < 0 {
		return fmt.Errorf("search.default_limit must be non-negative, got %d", c.Search.DefaultLimit)
	}
	if !slices.Contains(validLogLevels, c.Log.Level) {
		return fmt.Errorf("log.level %q: must be one of %v", c.Log.Level, validLogLevels)
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		return fmt.Errorf("log.format %q: must be one of %v", c.Log.Format, validLogFormats)
	}
	return nil
}

// NewLogger builds the slog logger described by c. verbose forces debug
// level.
func (c LogConfig) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch c.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
