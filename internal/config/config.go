// Package config provides unified configuration loading for vitals.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config contains all vitals configuration settings.
type Config struct {
	// Topology is an optional path to a YAML topology file. Empty means
	// the built-in default topology.
	Topology string `json:"topology,omitempty" yaml:"topology,omitempty"`

	// Engine contains propagation and history settings.
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Calibration contains threshold calibration settings.
	Calibration CalibrationConfig `json:"calibration" yaml:"calibration"`

	// Server contains HTTP API settings.
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains operational and cycle-trace logging settings.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// EngineConfig configures the propagation engine.
type EngineConfig struct {
	// HistoryCap bounds the in-memory ring of post-cycle pressure vectors.
	HistoryCap int `json:"history_cap" yaml:"history_cap" validate:"gt=0"`

	// HalfLifeDays overrides the per-layer decay half-life, in days.
	// Layers not listed keep the topology's values.
	HalfLifeDays map[string]float64 `json:"half_life_days,omitempty" yaml:"half_life_days,omitempty"`
}

// CalibrationConfig configures threshold calibration.
type CalibrationConfig struct {
	// MinSamples is the minimum logged outcomes before any adjustment.
	MinSamples int `json:"min_samples" yaml:"min_samples" validate:"gt=0"`

	// Step is the fixed threshold nudge per calibration.
	Step float64 `json:"step" yaml:"step" validate:"gt=0,lte=0.2"`

	// Floor and Ceil clamp the calibrated threshold.
	Floor float64 `json:"floor" yaml:"floor" validate:"gte=0"`
	Ceil  float64 `json:"ceil" yaml:"ceil" validate:"lte=1"`

	// LogCap bounds the per-node outcome ring.
	LogCap int `json:"log_cap" yaml:"log_cap" validate:"gt=0"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address for `vitals serve`.
	Addr string `json:"addr" yaml:"addr" validate:"required"`
}

// LoggingConfig configures vitals' logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables cycle logging to .vitals/cycles.jsonl.
	// "trace" additionally records each edge's contribution inside the
	// cycle records.
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=info debug trace"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			HistoryCap: 64,
		},
		Calibration: CalibrationConfig{
			MinSamples: 3,
			Step:       0.05,
			Floor:      0.50,
			Ceil:       0.95,
			LogCap:     50,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8643",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration layered as: defaults -> <root>/.vitals/config.yaml
// (or the explicit path when non-empty) -> environment variables.
func Load(root, path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidate := filepath.Join(root, ".vitals", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file, merged over
// the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration is valid, including cross-field
// invariants the struct tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.Calibration.Floor >= c.Calibration.Ceil {
		return fmt.Errorf("config: calibration floor %.2f must be below ceil %.2f", c.Calibration.Floor, c.Calibration.Ceil)
	}

	for layer, days := range c.Engine.HalfLifeDays {
		if days <= 0 {
			return fmt.Errorf("config: half_life_days[%s] must be positive, got %f", layer, days)
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VITALS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("VITALS_TOPOLOGY"); v != "" {
		cfg.Topology = v
	}

	if v := os.Getenv("VITALS_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	if v := os.Getenv("VITALS_CALIBRATION_MIN_SAMPLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Calibration.MinSamples = n
		}
	}

	if v := os.Getenv("VITALS_HISTORY_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.HistoryCap = n
		}
	}
}
