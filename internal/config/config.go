// Package config loads WebGraph configuration from defaults, an optional YAML
// file and WEBGRAPH_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration tree.
type Config struct {
	Environment string          `yaml:"environment" validate:"oneof=development production test"`
	Logging     LoggingConfig   `yaml:"logging"`
	Storage     StorageConfig   `yaml:"storage"`
	Bookmarks   BookmarksConfig `yaml:"bookmarks"`
	Viewport    ViewportConfig  `yaml:"viewport"`
	Layout      LayoutConfig    `yaml:"layout"`
	Server      ServerConfig    `yaml:"server"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// StorageConfig selects the key-value backend. DSN is used by sqlite,
// DataDir by fs; SnapshotDir always holds snapshot blobs unless the driver
// is memory.
type StorageConfig struct {
	Driver      string `yaml:"driver" validate:"oneof=sqlite fs memory"`
	DSN         string `yaml:"dsn" validate:"required_if=Driver sqlite"`
	DataDir     string `yaml:"dataDir" validate:"required_if=Driver fs"`
	SnapshotDir string `yaml:"snapshotDir" validate:"required_unless=Driver memory"`
}

type BookmarksConfig struct {
	IDStrategy   string `yaml:"idStrategy" validate:"oneof=sequential random"`
	SeedExamples bool   `yaml:"seedExamples"`
}

type ViewportConfig struct {
	Width  float64 `yaml:"width" validate:"gt=0"`
	Height float64 `yaml:"height" validate:"gt=0"`
}

type LayoutConfig struct {
	TickInterval  time.Duration `yaml:"tickInterval" validate:"gt=0"`
	Seed          uint64        `yaml:"seed"`
	HullEvery     int           `yaml:"hullEvery" validate:"gte=1"`
	HullPrefilter int           `yaml:"hullPrefilter" validate:"gte=0"`
	HullPadding   float64       `yaml:"hullPadding" validate:"gte=0"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Environment: "development",
		Logging:     LoggingConfig{Level: "info"},
		Storage: StorageConfig{
			Driver:      "sqlite",
			DSN:         "webgraph.db",
			DataDir:     "data",
			SnapshotDir: "snapshots",
		},
		Bookmarks: BookmarksConfig{IDStrategy: "sequential", SeedExamples: true},
		Viewport:  ViewportConfig{Width: 800, Height: 600},
		Layout: LayoutConfig{
			TickInterval:  16 * time.Millisecond,
			Seed:          1,
			HullEvery:     5,
			HullPrefilter: 64,
			HullPadding:   12,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

// Load builds the configuration. An empty path skips the file layer; a
// path that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// =============================================================================
// Environment overrides
// =============================================================================

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("WEBGRAPH_ENV", &c.Environment)
	str("WEBGRAPH_LOG_LEVEL", &c.Logging.Level)
	boolean("WEBGRAPH_LOG_DEVELOPMENT", &c.Logging.Development)
	str("WEBGRAPH_STORAGE_DRIVER", &c.Storage.Driver)
	str("WEBGRAPH_STORAGE_DSN", &c.Storage.DSN)
	str("WEBGRAPH_DATA_DIR", &c.Storage.DataDir)
	str("WEBGRAPH_SNAPSHOT_DIR", &c.Storage.SnapshotDir)
	str("WEBGRAPH_ID_STRATEGY", &c.Bookmarks.IDStrategy)
	boolean("WEBGRAPH_SEED_EXAMPLES", &c.Bookmarks.SeedExamples)
	float("WEBGRAPH_VIEWPORT_WIDTH", &c.Viewport.Width)
	float("WEBGRAPH_VIEWPORT_HEIGHT", &c.Viewport.Height)
	integer("WEBGRAPH_HULL_EVERY", &c.Layout.HullEvery)
	str("WEBGRAPH_SERVER_ADDR", &c.Server.Addr)

	if v, ok := lookup("WEBGRAPH_TICK_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("WEBGRAPH_TICK_INTERVAL: %w", err))
		} else {
			c.Layout.TickInterval = d
		}
	}
	if v, ok := lookup("WEBGRAPH_LAYOUT_SEED"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("WEBGRAPH_LAYOUT_SEED: %w", err))
		} else {
			c.Layout.Seed = n
		}
	}
	return errors.Join(errs...)
}
