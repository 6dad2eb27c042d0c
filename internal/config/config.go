// Package config loads nestdoc settings from a YAML or TOML file and the
// environment. Command-line flags are applied on top by package cli.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvDatabase    = "NESTDOC_DB"
	EnvBusyTimeout = "NESTDOC_BUSY_TIMEOUT"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds resolved settings.
type Config struct {
	Database          string   `yaml:"database" toml:"database"`
	BusyTimeout       Duration `yaml:"busy_timeout" toml:"busy_timeout"`
	StrictArrayLength bool     `yaml:"strict_array_length" toml:"strict_array_length"`
	Format            string   `yaml:"format" toml:"format"`
	LogLevel          string   `yaml:"log_level" toml:"log_level"`
}

// Duration is a time.Duration written as a Go duration string ("5s",
// "250ms") in config files.
type Duration time.Duration

// UnmarshalText parses a duration string. A bare integer is milliseconds.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database:    "nestdoc.db",
		BusyTimeout: Duration(5 * time.Second),
		Format:      FormatText,
		LogLevel:    "info",
	}
}

// Load returns Default overlaid with the file at path (if path is not
// empty) and then the environment.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if v, ok := lookupEnv(EnvDatabase); ok && v != "" {
		cfg.Database = v
	}
	if v, ok := lookupEnv(EnvBusyTimeout); ok && v != "" {
		if err := cfg.BusyTimeout.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvBusyTimeout, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension %q (want .yaml, .yml or .toml)", path, ext)
	}
	return nil
}

// Validate checks enumerated fields and bounds.
func (c Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("config: database must not be empty")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("config: busy_timeout must not be negative")
	}
	if c.Format != FormatText && c.Format != FormatJSON {
		return fmt.Errorf("config: format must be %q or %q, got %q", FormatText, FormatJSON, c.Format)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log_level: %w", err)
	}
	return level, nil
}
