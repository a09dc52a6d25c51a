// Package config loads run options for the curriculum binaries from a YAML
// file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tasklab/shaping-controller/internal/shaping"
)

// #region types
// ShapingConfig mirrors shaping.Options with YAML tags.
type ShapingConfig struct {
	InitPhase     int     `yaml:"init_phase"`
	MaxNumReps    int     `yaml:"max_num_reps"`
	ShortDurSteps int     `yaml:"short_dur_steps"`
	Threshold     float64 `yaml:"threshold"`
	PerfWindow    int     `yaml:"perf_window"`
}

// Config is the full option set for a curriculum run.
type Config struct {
	DBPath   string        `yaml:"db_path"`
	Policy   string        `yaml:"policy"`
	Seed     int64         `yaml:"seed"`
	Trials   int           `yaml:"trials"`
	MaxSteps int           `yaml:"max_steps"`
	Shaping  ShapingConfig `yaml:"shaping"`
}

// Default returns the standard run configuration.
func Default() Config {
	opts := shaping.DefaultOptions()
	return Config{
		DBPath:   "curriculum.db",
		Policy:   "gt",
		Seed:     0,
		Trials:   500,
		MaxSteps: 0,
		Shaping: ShapingConfig{
			InitPhase:     opts.InitPhase,
			MaxNumReps:    opts.MaxNumReps,
			ShortDurSteps: opts.ShortDurSteps,
			Threshold:     opts.Threshold,
			PerfWindow:    opts.PerfWindow,
		},
	}
}

// #endregion types

// #region load
// Load reads a YAML config file over the defaults. An empty path returns
// the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from SHAPING_* environment variables:
// SHAPING_DB, SHAPING_POLICY, SHAPING_SEED, SHAPING_TRIALS.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SHAPING_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("SHAPING_POLICY"); v != "" {
		c.Policy = v
	}
	if v := os.Getenv("SHAPING_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = n
		}
	}
	if v := os.Getenv("SHAPING_TRIALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Trials = n
		}
	}
}

// Validate rejects values the run loop cannot work with. Shaping option
// validation happens at controller construction.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.Trials < 1 {
		return fmt.Errorf("trials must be >= 1, got %d", c.Trials)
	}
	return nil
}

// Options converts the shaping section to domain options.
func (c Config) Options() shaping.Options {
	return shaping.Options{
		InitPhase:     c.Shaping.InitPhase,
		MaxNumReps:    c.Shaping.MaxNumReps,
		ShortDurSteps: c.Shaping.ShortDurSteps,
		Threshold:     c.Shaping.Threshold,
		PerfWindow:    c.Shaping.PerfWindow,
	}
}

// #endregion load
