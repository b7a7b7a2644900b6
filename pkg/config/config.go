// Package config loads the comparison run configuration from a YAML
// file. Command-line flags may override individual fields.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config describes one comparison run.
type Config struct {
	// ModelPath is the wide-format model history CSV.
	ModelPath string `yaml:"model"`
	// ObsDir holds the processed observation CSVs referenced by the
	// correspondence table.
	ObsDir string `yaml:"observations"`
	// CorrespondPath is the station correspondence table.
	CorrespondPath string `yaml:"correspondence"`
	// OutputDir receives the CSV reports.
	OutputDir string `yaml:"output"`

	// Storms filters the correspondence table when its Storm column is
	// present.
	Storms []string `yaml:"storms,omitempty"`

	// Tide enables tidal constituent solving for both channels.
	Tide bool `yaml:"tide,omitempty"`
	// BiasCorrect removes the mean model-observation offset before
	// computing statistics.
	BiasCorrect bool `yaml:"bias_correct,omitempty"`
	// WarmupCutHours is the model spin-up trimmed from the head of
	// every model series.
	WarmupCutHours int `yaml:"warmup_cut_hours,omitempty"`
	// Workers is the station worker pool width; zero means one worker
	// per CPU.
	Workers int `yaml:"workers,omitempty"`
	// Constituents overrides the principal-eight comparison set.
	Constituents []string `yaml:"constituents,omitempty"`

	// SummaryDB, when set, is a SQLite database receiving run summaries.
	SummaryDB string `yaml:"summary_db,omitempty"`
	// LogFile, when set, receives rotated JSON logs.
	LogFile string `yaml:"log_file,omitempty"`
}

// Default returns the configuration defaults applied before loading.
func Default() *Config {
	return &Config{
		OutputDir:      "out_plots",
		WarmupCutHours: 12,
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the required inputs are present.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("config: model path is required")
	}
	if c.ObsDir == "" {
		return fmt.Errorf("config: observations directory is required")
	}
	if c.CorrespondPath == "" {
		return fmt.Errorf("config: correspondence table is required")
	}
	if c.WarmupCutHours < 0 {
		return fmt.Errorf("config: warmup_cut_hours must not be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative")
	}
	return nil
}
