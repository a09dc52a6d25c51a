package monitor

import (
	"log"

	"github.com/tasklab/shaping-controller/internal/shaping"
)

// #region recorder
// Recorder adapts a Store to the controller's Observer interface, binding
// events to one run. Persistence failures are logged, never propagated into
// the stepping protocol.
type Recorder struct {
	store *Store
	runID string
}

// NewRecorder binds a store to a run.
func NewRecorder(store *Store, runID string) *Recorder {
	return &Recorder{store: store, runID: runID}
}

var _ shaping.Observer = (*Recorder)(nil)

// TrialEnded persists one completed trial.
func (r *Recorder) TrialEnded(ev shaping.TrialEvent) {
	err := r.store.LogTrial(TrialRecord{
		RunID:       r.runID,
		TrialNum:    ev.TrialNum,
		Phase:       ev.Phase,
		Performance: ev.Performance,
		Reward:      ev.Reward,
		Steps:       ev.Steps,
	})
	if err != nil {
		log.Printf("[MONITOR] log trial %d: %v", ev.TrialNum, err)
	}
}

// PhaseAdvanced persists one phase advancement.
func (r *Recorder) PhaseAdvanced(ev shaping.PhaseEvent) {
	err := r.store.LogTransition(TransitionRecord{
		RunID:      r.runID,
		TrialNum:   ev.TrialNum,
		FromPhase:  ev.FromPhase,
		ToPhase:    ev.ToPhase,
		WindowMean: ev.WindowMean,
	})
	if err != nil {
		log.Printf("[MONITOR] log transition %d→%d: %v", ev.FromPhase, ev.ToPhase, err)
	}
}

// #endregion recorder
