package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "info" {
		t.Errorf("default level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Calibration.MinSamples != 3 {
		t.Errorf("default min_samples = %d, want 3", cfg.Calibration.MinSamples)
	}
	if cfg.Calibration.Floor != 0.50 || cfg.Calibration.Ceil != 0.95 {
		t.Errorf("default clamp = [%f, %f], want [0.50, 0.95]", cfg.Calibration.Floor, cfg.Calibration.Ceil)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
logging:
  level: debug
calibration:
  min_samples: 5
  step: 0.05
  floor: 0.5
  ceil: 0.95
  log_cap: 50
engine:
  history_cap: 32
  half_life_days:
    external: 1.5
server:
  addr: "127.0.0.1:9999"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.Calibration.MinSamples != 5 {
		t.Errorf("min_samples = %d, want 5", cfg.Calibration.MinSamples)
	}
	if cfg.Engine.HistoryCap != 32 {
		t.Errorf("history_cap = %d, want 32", cfg.Engine.HistoryCap)
	}
	if cfg.Engine.HalfLifeDays["external"] != 1.5 {
		t.Errorf("half_life_days[external] = %f, want 1.5", cfg.Engine.HalfLifeDays["external"])
	}
	if cfg.Server.Addr != "127.0.0.1:9999" {
		t.Errorf("addr = %s, want 127.0.0.1:9999", cfg.Server.Addr)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected defaults, got level %s", cfg.Logging.Level)
	}
}

func TestLoad_DotVitalsConfig(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".vitals")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("logging:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level from .vitals/config.yaml, got %s", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VITALS_LOG_LEVEL", "trace")
	t.Setenv("VITALS_CALIBRATION_MIN_SAMPLES", "7")
	t.Setenv("VITALS_SERVER_ADDR", "0.0.0.0:1234")

	cfg, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "trace" {
		t.Errorf("level = %s, want trace", cfg.Logging.Level)
	}
	if cfg.Calibration.MinSamples != 7 {
		t.Errorf("min_samples = %d, want 7", cfg.Calibration.MinSamples)
	}
	if cfg.Server.Addr != "0.0.0.0:1234" {
		t.Errorf("addr = %s, want 0.0.0.0:1234", cfg.Server.Addr)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown log level")
	}

	cfg = Default()
	cfg.Calibration.Floor = 0.95
	cfg.Calibration.Ceil = 0.95
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for floor >= ceil")
	}

	cfg = Default()
	cfg.Calibration.MinSamples = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero min_samples")
	}

	cfg = Default()
	cfg.Engine.HalfLifeDays = map[string]float64{"external": -1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative half-life")
	}
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("logging: [not a map]"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(t.TempDir(), path); err == nil {
		t.Error("expected error for malformed config")
	}
}
