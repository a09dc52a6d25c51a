// Package task defines the trial-environment contract the shaping controller
// wraps, plus a reference two-alternative forced-choice task.
package task

import (
	"github.com/tasklab/shaping-controller/internal/timing"
)

// #region step-result
// Info carries the per-step trial signals alongside the observation.
type Info struct {
	// NewTrial is the trial-boundary flag: the current trial concluded on
	// this step. Whoever owns the environment (a wrapper or the driver)
	// reacts by calling NewTrial.
	NewTrial bool
	// Performance is the concluded trial's outcome; meaningful only when
	// NewTrial is set.
	Performance float64
	// GroundTruth is the action expected at this step (0 outside the
	// decision period).
	GroundTruth int
}

// StepResult bundles everything one environment step produces.
type StepResult struct {
	Obs    []float64
	Reward float64
	Done   bool
	Info   Info
}

// #endregion step-result

// #region env
// Env is the trial-environment contract. A shaping controller consumes it
// and produces it, so wrappers stack arbitrarily.
//
// Step performs a full environment step: low-level dynamics, clock advance,
// and the trial time-budget check. StepCore performs only the low-level
// dynamics, leaving clock and budget bookkeeping to the caller; the
// controller's early-phase stepping path depends on that split.
//
// Step and StepCore never invoke NewTrial themselves; they signal the
// boundary through Info.NewTrial and the owner drives the transition.
type Env interface {
	Reset() []float64
	Step(action int) StepResult
	StepCore(action int) StepResult
	NewTrial()

	DT() float64
	TMax() float64
	Clock() (t float64, tInd int)
	SetClock(t float64, tInd int)
	TrialCount() int
	SetTrialCount(n int)

	Timing() timing.Spec
	SetTiming(spec timing.Spec)
	Jitter() float64
	SetJitter(sigma float64)

	// Rewards must include "correct"; "tmax", "fail" and "abort" are
	// optional and default to 0 when absent.
	Rewards() map[string]float64
	Performance() float64
	SetPerformance(p float64)
}

// RewardOr reads a named reward from an environment, defaulting to 0.
func RewardOr(env Env, name string) float64 {
	if v, ok := env.Rewards()[name]; ok {
		return v
	}
	return 0
}

// #endregion env
