// Package config loads and validates the YAML runtime configuration
// shared by the replay and tooling binaries.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"binary-mm-go/infrastructure/logger"
	"binary-mm-go/strategy"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env     string          `yaml:"env"`
	Logging logger.Config   `yaml:"logging"`
	Quoter  strategy.Params `yaml:"quoter"`
	Sim     SimConfig       `yaml:"sim"`
	Metrics MetricsConfig   `yaml:"metrics"`
	Oracle  OracleConfig    `yaml:"oracle"`
}

// SimConfig points the replay engines at a capture directory.
type SimConfig struct {
	DataDir string `yaml:"dataDir"`

	// ResolutionTimestamp pins the market's resolution time in unix
	// seconds; 0 derives it from the data.
	ResolutionTimestamp float64 `yaml:"resolutionTimestamp"`

	DefaultMinutesToResolution float64 `yaml:"defaultMinutesToResolution"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// OracleConfig configures the oracle price feed recorder.
type OracleConfig struct {
	URL              string  `yaml:"url"`
	Threshold        float64 `yaml:"threshold"`
	OutputFile       string  `yaml:"outputFile"`
	ReconnectSeconds int     `yaml:"reconnectSeconds"`
}

// Default returns a runnable development configuration.
func Default() AppConfig {
	return AppConfig{
		Env:     "dev",
		Logging: logger.DefaultConfig(),
		Quoter:  strategy.DefaultParams(),
		Sim: SimConfig{
			DefaultMinutesToResolution: 10,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
		Oracle: OracleConfig{
			OutputFile:       "oracle.json",
			ReconnectSeconds: 5,
		},
	}
}

// Load reads YAML config from path and applies basic validation. A zero
// quoter section falls back to the default parameters.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if cfg.Quoter == (strategy.Params{}) {
		cfg.Quoter = strategy.DefaultParams()
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment-specific
// fields from the environment. A .env file in the working directory is
// read first if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MM_SIM_DATA_DIR"); v != "" {
		cfg.Sim.DataDir = v
	}
	if v := os.Getenv("MM_ORACLE_URL"); v != "" {
		cfg.Oracle.URL = v
	}
	if v := os.Getenv("MM_ORACLE_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("parse MM_ORACLE_THRESHOLD: %w", err)
		}
		cfg.Oracle.Threshold = threshold
	}
	if v := os.Getenv("MM_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	return cfg, Validate(cfg)
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if !cfg.Quoter.Validate() {
		return errors.New("quoter parameters are invalid")
	}
	if cfg.Sim.DefaultMinutesToResolution < 0 {
		return errors.New("sim.defaultMinutesToResolution must be >= 0")
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return errors.New("metrics.addr is required when metrics are enabled")
	}
	if cfg.Oracle.ReconnectSeconds < 0 {
		return errors.New("oracle.reconnectSeconds must be >= 0")
	}
	return nil
}
