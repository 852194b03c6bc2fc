// Package config loads qgraph.yaml, the optional file supplying defaults for
// the command line.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when --config is not set.
const DefaultFile = "qgraph.yaml"

// Config holds defaults for commands. Command-line flags override every field.
type Config struct {
	// Debug builds fixtures with the pattern factory in debug mode.
	Debug bool `yaml:"debug"`

	// Indent is the indentation written by build and fmt. Nil means the
	// serializer default; an empty string writes a single line.
	Indent *string `yaml:"indent,omitempty"`

	// Database is the snapshot store path used by save, show and list.
	Database string `yaml:"database"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Database: "qgraph.db",
		LogLevel: "info",
	}
}

// Load reads path. A missing file is an error only when required is set;
// otherwise the defaults are returned.
func Load(path string, required bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a configuration document over the defaults.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if _, err := cfg.Level(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("invalid config: database must not be empty")
	}
	return cfg, nil
}

// Level maps LogLevel to a slog level.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
}
