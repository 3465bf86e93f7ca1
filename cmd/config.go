package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration of a backtest run.
type Config struct {
	Data   DataConfig   `yaml:"data"`
	Engine EngineConfig `yaml:"engine"`
	Report ReportConfig `yaml:"report"`
}

// DataConfig holds the input files of a run.
type DataConfig struct {
	// EventsFile is the JSONL event stream to replay.
	EventsFile string `yaml:"events_file"`
	// BarsDir holds one Parquet bar file per symbol.
	BarsDir string `yaml:"bars_dir"`
	// ChainFile is an optional option chain snapshot (JSON).
	ChainFile string `yaml:"chain_file"`
}

// EngineConfig holds the accounting parameters.
type EngineConfig struct {
	InitialCash  string `yaml:"initial_cash"`
	CarryForward bool   `yaml:"carry_forward"`
}

// ReportConfig controls report generation.
type ReportConfig struct {
	Name   string `yaml:"name"`
	Period string `yaml:"period"`
}

// LoadConfig reads a YAML configuration file and applies environment
// variable overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyEnvOverrides(cfg)
	if cfg.Data.EventsFile == "" {
		return nil, fmt.Errorf("%s: data.events_file is required", path)
	}
	if cfg.Report.Period == "" {
		cfg.Report.Period = "daily"
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKTEST_EVENTS_FILE"); v != "" {
		cfg.Data.EventsFile = v
	}
	if v := os.Getenv("BACKTEST_BARS_DIR"); v != "" {
		cfg.Data.BarsDir = v
	}
	if v := os.Getenv("BACKTEST_CHAIN_FILE"); v != "" {
		cfg.Data.ChainFile = v
	}
}
