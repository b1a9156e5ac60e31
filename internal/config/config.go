// Package config loads and validates the lightnav.yml configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Strategy modes for the Locate phase.
const (
	StrategyFullScan      = "full_scan"
	StrategyThresholdSeek = "threshold_seek"
)

// Config represents the top-level lightnav.yml configuration
type Config struct {
	Version    string           `yaml:"version"`
	Console    ConsoleConfig    `yaml:"console"`
	Sensors    SensorsConfig    `yaml:"sensors"`
	Scan       ScanConfig       `yaml:"scan"`
	Strategy   StrategyConfig   `yaml:"strategy"`
	Correction CorrectionConfig `yaml:"correction"`
	History    HistoryConfig    `yaml:"history"`
	Fixes      FixesConfig      `yaml:"fixes"`
	Web        WebConfig        `yaml:"web"`
	Log        LogConfig        `yaml:"log"`
}

// ConsoleConfig points at the lighting console bridge.
type ConsoleConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SensorsConfig points at the sensor acquisition websocket.
type SensorsConfig struct {
	URL       string        `yaml:"url"`
	Reconnect time.Duration `yaml:"reconnect"`
}

// ScanConfig holds the raster parameters.
type ScanConfig struct {
	PanStep    float64       `yaml:"pan_step"`
	TiltStep   float64       `yaml:"tilt_step"`
	Settle     time.Duration `yaml:"settle"`
	GiveUpTilt float64       `yaml:"give_up_tilt"`
	Stabilize  time.Duration `yaml:"stabilize"`
}

// StrategyConfig selects how the Locate phase ends a channel's scan.
type StrategyConfig struct {
	Mode         string  `yaml:"mode"`                    // full_scan or threshold_seek
	Threshold    float64 `yaml:"threshold,omitempty"`     // threshold_seek only
	TargetSensor string  `yaml:"target_sensor,omitempty"` // empty = any sensor
}

// CorrectionConfig overrides the overshoot model coefficients.
type CorrectionConfig struct {
	K1 float64 `yaml:"k1"`
	K2 float64 `yaml:"k2"`
	K3 float64 `yaml:"k3"`
}

// HistoryConfig controls where the raw scan history is written.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// FixesConfig selects the result store. Empty RedisAddr keeps fixes in memory.
type FixesConfig struct {
	RedisAddr string `yaml:"redis_addr,omitempty"`
	KeyPrefix string `yaml:"key_prefix"`
}

// WebConfig controls the dashboard server.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Console: ConsoleConfig{
			URL:     DefaultConsoleURL,
			Timeout: 2 * time.Second,
		},
		Sensors: SensorsConfig{
			URL:       DefaultSensorURL,
			Reconnect: 2 * time.Second,
		},
		Scan: ScanConfig{
			PanStep:    1,
			TiltStep:   1,
			Settle:     20 * time.Millisecond,
			GiveUpTilt: 85,
			Stabilize:  5 * time.Second,
		},
		Strategy: StrategyConfig{
			Mode: StrategyFullScan,
		},
		Correction: CorrectionConfig{
			K1: 1.5728,
			K2: -0.0187,
			K3: 0.0000630,
		},
		History: HistoryConfig{
			Path: "sensor_history.json",
		},
		Fixes: FixesConfig{
			KeyPrefix: "lightnav",
		},
		Web: WebConfig{
			Addr: ":8088",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path on top of Default, applies env overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when non-empty, otherwise returns the validated defaults
// with env overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg := Default()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs strict validation on the configuration
func (c *Config) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("%w: unsupported version: %q (expected: 1.0)", ErrInvalid, c.Version)
	}
	if c.Scan.PanStep <= 0 {
		return fmt.Errorf("%w: scan.pan_step must be > 0, got %v", ErrInvalid, c.Scan.PanStep)
	}
	if c.Scan.TiltStep <= 0 {
		return fmt.Errorf("%w: scan.tilt_step must be > 0, got %v", ErrInvalid, c.Scan.TiltStep)
	}
	if c.Scan.GiveUpTilt < 0 {
		return fmt.Errorf("%w: scan.give_up_tilt must be >= 0, got %v", ErrInvalid, c.Scan.GiveUpTilt)
	}
	if c.Scan.Settle < 0 || c.Scan.Stabilize < 0 {
		return fmt.Errorf("%w: scan delays must not be negative", ErrInvalid)
	}

	switch c.Strategy.Mode {
	case StrategyFullScan:
	case StrategyThresholdSeek:
		if c.Strategy.Threshold <= 0 {
			return fmt.Errorf("%w: strategy.threshold must be > 0 for %s", ErrInvalid, StrategyThresholdSeek)
		}
	default:
		return fmt.Errorf("%w: unknown strategy.mode %q (expected %s or %s)",
			ErrInvalid, c.Strategy.Mode, StrategyFullScan, StrategyThresholdSeek)
	}

	if c.History.Path == "" {
		return fmt.Errorf("%w: history.path is required", ErrInvalid)
	}
	return nil
}
