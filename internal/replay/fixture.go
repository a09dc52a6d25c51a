package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tasklab/shaping-controller/internal/shaping"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay run.
type Fixture struct {
	Description string            `json:"description"`
	Options     FixtureOptions    `json:"options"`
	Policy      string            `json:"policy"`
	Seed        int64             `json:"seed"`
	MaxTrials   int               `json:"max_trials"`
	MaxSteps    int               `json:"max_steps,omitempty"`
	Checkpoints []PhaseCheckpoint `json:"expected_phases,omitempty"`
}

// FixtureOptions mirrors shaping.Options with JSON tags.
type FixtureOptions struct {
	InitPhase     int     `json:"init_phase"`
	MaxNumReps    int     `json:"max_num_reps"`
	ShortDurSteps int     `json:"short_dur_steps"`
	Threshold     float64 `json:"threshold"`
	PerfWindow    int     `json:"perf_window"`
}

// PhaseCheckpoint asserts the phase a given trial runs under.
type PhaseCheckpoint struct {
	Trial int `json:"trial"`
	Phase int `json:"phase"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.MaxTrials <= 0 {
		return nil, fmt.Errorf("fixture %s: max_trials must be positive", path)
	}
	return &f, nil
}

// ToOptions converts fixture options to domain options.
func (fo FixtureOptions) ToOptions() shaping.Options {
	return shaping.Options{
		InitPhase:     fo.InitPhase,
		MaxNumReps:    fo.MaxNumReps,
		ShortDurSteps: fo.ShortDurSteps,
		Threshold:     fo.Threshold,
		PerfWindow:    fo.PerfWindow,
	}
}

// FromOptions converts domain options to fixture options.
func FromOptions(o shaping.Options) FixtureOptions {
	return FixtureOptions{
		InitPhase:     o.InitPhase,
		MaxNumReps:    o.MaxNumReps,
		ShortDurSteps: o.ShortDurSteps,
		Threshold:     o.Threshold,
		PerfWindow:    o.PerfWindow,
	}
}

// #endregion fixture-loader
