// Package shaping implements the curriculum phase state machine: a wrapper
// that progressively eases trial timing and reward feedback across phases as
// the agent's rolling performance improves.
package shaping

// #region state
// State is the per-controller mutable shaping record. It is owned one-to-one
// by a Controller bound to one wrapped environment and is never shared.
type State struct {
	// Phase is the curriculum phase, 0..4, monotonically non-decreasing
	// for the controller's lifetime.
	Phase int
	// Streak counts consecutive identical non-fixation choices (phase 0
	// alternation shaping). It persists across trials and resets when the
	// choice changes.
	Streak int
	// PrevAction is the last non-fixation choice seen by the streak
	// counter.
	PrevAction int
	// FirstChoice marks that the current trial has not yet recorded a
	// choice outcome (phase 1 first-choice shaping).
	FirstChoice bool
	// Performance is the outcome tracked for the current trial.
	Performance float64
	// ForcedShort and VariableEnabled mirror the active timing regime.
	ForcedShort     bool
	VariableEnabled bool
}

// #endregion state

// #region events
// TrialEvent describes one completed trial.
type TrialEvent struct {
	TrialNum    int
	Phase       int
	Performance float64
	Reward      float64
	Steps       int
}

// PhaseEvent describes one phase advancement.
type PhaseEvent struct {
	TrialNum   int
	FromPhase  int
	ToPhase    int
	WindowMean float64
}

// Observer receives trial and phase events as the controller produces them.
// Implementations must not call back into the controller.
type Observer interface {
	TrialEnded(ev TrialEvent)
	PhaseAdvanced(ev PhaseEvent)
}

// #endregion events
