// Package perf tracks rolling trial performance and gates phase advancement.
package perf

import "github.com/tasklab/shaping-controller/internal/timing"

// #region tracker
// Tracker keeps a bounded FIFO window of per-trial outcomes. The window mean
// is evaluated only while the window is exactly full; before that, outcomes
// merely accumulate.
type Tracker struct {
	window   []float64
	capacity int
}

// NewTracker creates a tracker with the given window capacity. The caller
// validates capacity at construction time.
func NewTracker(capacity int) *Tracker {
	return &Tracker{
		window:   make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// Record appends a trial outcome, evicting the oldest entry once the window
// exceeds capacity (strict FIFO).
func (tr *Tracker) Record(outcome float64) {
	tr.window = append(tr.window, outcome)
	if len(tr.window) > tr.capacity {
		tr.window = tr.window[1:]
	}
}

// Len returns the number of outcomes currently held.
func (tr *Tracker) Len() int {
	return len(tr.window)
}

// Full reports whether the window holds exactly capacity outcomes.
func (tr *Tracker) Full() bool {
	return len(tr.window) == tr.capacity
}

// Mean returns the arithmetic mean of the window, or 0 when empty.
func (tr *Tracker) Mean() float64 {
	if len(tr.window) == 0 {
		return 0
	}
	var sum float64
	for _, v := range tr.window {
		sum += v
	}
	return sum / float64(len(tr.window))
}

// Clear drops all recorded outcomes.
func (tr *Tracker) Clear() {
	tr.window = tr.window[:0]
}

// #endregion tracker

// #region advance
// MaybeAdvance evaluates phase advancement. Only when the window is full is
// the mean computed; if it meets the threshold for the current phase and the
// phase is below the terminal one, the phase increments and the window is
// cleared. Returns the (possibly advanced) phase, whether it advanced, and
// the window mean that decided it (0 when no check occurred).
func (tr *Tracker) MaybeAdvance(phase int, thresholds []float64) (int, bool, float64) {
	if !tr.Full() || phase >= timing.MaxPhase {
		return phase, false, 0
	}
	if phase < 0 || phase >= len(thresholds) {
		return phase, false, 0
	}
	mean := tr.Mean()
	if mean < thresholds[phase] {
		return phase, false, mean
	}
	tr.Clear()
	return phase + 1, true, mean
}

// #endregion advance
