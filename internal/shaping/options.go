package shaping

import (
	"fmt"

	"github.com/tasklab/shaping-controller/internal/timing"
)

// #region options
// Options configures a shaping controller.
type Options struct {
	// InitPhase is the phase the controller starts in.
	InitPhase int
	// MaxNumReps is how many consecutive identical choices phase 0
	// tolerates before zeroing the trial.
	MaxNumReps int
	// ShortDurSteps is the shortened period duration in environment step
	// units; it is converted to time units against the wrapped env's dt.
	ShortDurSteps int
	// Threshold is the rolling-window mean required to advance a phase.
	Threshold float64
	// PerfWindow is the rolling performance window capacity.
	PerfWindow int
}

// DefaultOptions mirrors the standard curriculum parameters.
func DefaultOptions() Options {
	return Options{
		InitPhase:     0,
		MaxNumReps:    3,
		ShortDurSteps: 2,
		Threshold:     0.8,
		PerfWindow:    1000,
	}
}

// Validate rejects option values the state machine cannot run with.
func (o Options) Validate() error {
	if o.InitPhase < 0 || o.InitPhase > timing.MaxPhase {
		return fmt.Errorf("init phase %d outside [0, %d]", o.InitPhase, timing.MaxPhase)
	}
	if o.MaxNumReps < 1 {
		return fmt.Errorf("max num reps must be >= 1, got %d", o.MaxNumReps)
	}
	if o.ShortDurSteps < 1 {
		return fmt.Errorf("short duration must be >= 1 step, got %d", o.ShortDurSteps)
	}
	if o.Threshold <= 0 || o.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %g", o.Threshold)
	}
	if o.PerfWindow < 1 {
		return fmt.Errorf("performance window must be >= 1, got %d", o.PerfWindow)
	}
	return nil
}

// #endregion options
