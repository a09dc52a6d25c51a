package replay

import (
	"fmt"
	"math/rand"

	"github.com/tasklab/shaping-controller/internal/shaping"
	"github.com/tasklab/shaping-controller/internal/task"
)

// #region types
// TrialResult captures one completed trial during a replay run.
type TrialResult struct {
	TrialNum    int
	Phase       int
	Performance float64
	Reward      float64
	Steps       int
}

// Transition captures one phase advancement during a replay run.
type Transition struct {
	TrialNum   int
	FromPhase  int
	ToPhase    int
	WindowMean float64
}

// Result is the full outcome of a replay run.
type Result struct {
	Trials      []TrialResult
	Transitions []Transition
	Steps       int
	FinalPhase  int
}

// Summary provides aggregate stats over a replay result.
type Summary struct {
	Trials          int
	Steps           int
	FinalPhase      int
	Transitions     int
	MeanPerformance float64
	TrialsPerPhase  map[int]int
}

// Mismatch is one failed phase checkpoint.
type Mismatch struct {
	Trial    int
	Expected int
	Got      int
}

// #endregion types

// #region collector
// collector implements shaping.Observer to capture the run timeline.
type collector struct {
	trials      []TrialResult
	transitions []Transition
}

func (c *collector) TrialEnded(ev shaping.TrialEvent) {
	c.trials = append(c.trials, TrialResult{
		TrialNum:    ev.TrialNum,
		Phase:       ev.Phase,
		Performance: ev.Performance,
		Reward:      ev.Reward,
		Steps:       ev.Steps,
	})
}

func (c *collector) PhaseAdvanced(ev shaping.PhaseEvent) {
	c.transitions = append(c.transitions, Transition{
		TrialNum:   ev.TrialNum,
		FromPhase:  ev.FromPhase,
		ToPhase:    ev.ToPhase,
		WindowMean: ev.WindowMean,
	})
}

// #endregion collector

// #region run
// Run drives a shaping controller over the reference task with the
// fixture's scripted policy, entirely in memory and deterministic for a
// given seed.
func Run(fix *Fixture) (*Result, error) {
	env := task.NewTwoAFC(task.TwoAFCConfig{Seed: fix.Seed})

	ctrl, err := shaping.New(env, fix.Options.ToOptions())
	if err != nil {
		return nil, fmt.Errorf("build controller: %w", err)
	}

	col := &collector{}
	ctrl.Observe(col)

	policy, err := NewPolicy(fix.Policy, rand.New(rand.NewSource(fix.Seed)))
	if err != nil {
		return nil, err
	}

	maxSteps := fix.MaxSteps
	if maxSteps <= 0 {
		maxSteps = fix.MaxTrials * 1000
	}

	prev := task.StepResult{Obs: ctrl.Reset()}
	steps := 0
	for steps < maxSteps && len(col.trials) < fix.MaxTrials {
		action := policy.Act(prev)
		prev = ctrl.Step(action)
		steps++
		if prev.Done {
			prev = task.StepResult{Obs: ctrl.Reset()}
		}
	}

	return &Result{
		Trials:      col.trials,
		Transitions: col.transitions,
		Steps:       steps,
		FinalPhase:  ctrl.Phase(),
	}, nil
}

// #endregion run

// #region verify
// Verify compares a result against the fixture's phase checkpoints. A
// checkpoint asserts the phase a numbered trial ran under.
func Verify(res *Result, checkpoints []PhaseCheckpoint) []Mismatch {
	byTrial := make(map[int]int, len(res.Trials))
	for _, tr := range res.Trials {
		byTrial[tr.TrialNum] = tr.Phase
	}

	var mismatches []Mismatch
	for _, cp := range checkpoints {
		got, ok := byTrial[cp.Trial]
		if !ok {
			mismatches = append(mismatches, Mismatch{Trial: cp.Trial, Expected: cp.Phase, Got: -1})
			continue
		}
		if got != cp.Phase {
			mismatches = append(mismatches, Mismatch{Trial: cp.Trial, Expected: cp.Phase, Got: got})
		}
	}
	return mismatches
}

// Summarize computes aggregate stats from a replay result.
func Summarize(res *Result) Summary {
	s := Summary{
		Trials:         len(res.Trials),
		Steps:          res.Steps,
		FinalPhase:     res.FinalPhase,
		Transitions:    len(res.Transitions),
		TrialsPerPhase: make(map[int]int),
	}
	var perfSum float64
	for _, tr := range res.Trials {
		perfSum += tr.Performance
		s.TrialsPerPhase[tr.Phase]++
	}
	if len(res.Trials) > 0 {
		s.MeanPerformance = perfSum / float64(len(res.Trials))
	}
	return s
}

// #endregion verify
