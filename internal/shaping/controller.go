package shaping

import (
	"fmt"
	"log"

	"github.com/tasklab/shaping-controller/internal/perf"
	"github.com/tasklab/shaping-controller/internal/task"
	"github.com/tasklab/shaping-controller/internal/timing"
)

// #region controller
// Controller orchestrates curriculum shaping around a wrapped environment.
// It implements task.Env itself, so controllers compose like any other
// wrapper. One controller owns one environment; the protocol is fully
// synchronous.
type Controller struct {
	env     task.Env
	opts    Options
	state   State
	shaper  rewardShaper
	tracker *perf.Tracker

	thresholds []float64
	shortDur   float64

	// immutable snapshots captured at construction
	original       timing.Spec
	originalJitter float64

	observer Observer

	trialSteps  int
	trialReward float64
	// fresh is set while the next trial has begun but no step has run in
	// it; it makes NewTrial idempotent under stacked wrappers.
	fresh bool
}

var _ task.Env = (*Controller)(nil)

// #endregion controller

// #region constructor
// New wraps env in a shaping controller. All configuration errors are
// surfaced here; the stepping protocol itself never fails.
func New(env task.Env, opts Options) (*Controller, error) {
	if env == nil {
		return nil, fmt.Errorf("shaping: nil environment")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("shaping: %w", err)
	}
	if env.DT() <= 0 {
		return nil, fmt.Errorf("shaping: environment dt must be positive, got %g", env.DT())
	}
	if len(env.Timing()) == 0 {
		return nil, fmt.Errorf("shaping: environment has no timing periods")
	}
	if _, ok := env.Rewards()["correct"]; !ok {
		return nil, fmt.Errorf("shaping: environment rewards missing %q", "correct")
	}

	thresholds := make([]float64, timing.MaxPhase+1)
	for i := range thresholds {
		thresholds[i] = opts.Threshold
	}

	return &Controller{
		env:            env,
		opts:           opts,
		state:          State{Phase: opts.InitPhase, FirstChoice: true},
		shaper:         rewardShaper{maxNumReps: opts.MaxNumReps},
		tracker:        perf.NewTracker(opts.PerfWindow),
		thresholds:     thresholds,
		shortDur:       float64(opts.ShortDurSteps) * env.DT(),
		original:       env.Timing().Clone(),
		originalJitter: env.Jitter(),
	}, nil
}

// Observe registers an observer for trial and phase events.
func (c *Controller) Observe(o Observer) {
	c.observer = o
}

// #endregion constructor

// #region accessors
// Phase returns the current curriculum phase.
func (c *Controller) Phase() int { return c.state.Phase }

// Snapshot returns a copy of the shaping state.
func (c *Controller) Snapshot() State { return c.state }

// OriginalTiming returns the immutable timing snapshot captured at
// construction.
func (c *Controller) OriginalTiming() timing.Spec { return c.original.Clone() }

// OriginalJitter returns the jitter value captured at construction.
func (c *Controller) OriginalJitter() float64 { return c.originalJitter }

// WindowLen returns the rolling performance window fill.
func (c *Controller) WindowLen() int { return c.tracker.Len() }

// #endregion accessors

// #region reset
// Reset installs the active timing for the current phase, resets the
// wrapped environment, and clears per-trial counters. No trial outcome is
// recorded: the first trial has not completed yet.
func (c *Controller) Reset() []float64 {
	c.installTiming()
	obs := c.env.Reset()
	c.state.FirstChoice = true
	c.state.Performance = 0
	c.trialSteps = 0
	c.trialReward = 0
	c.fresh = true
	return obs
}

// #endregion reset

// #region step
// Step advances the wrapped environment one tick under the active phase
// regime. Early phases (forced-short) use the manual low-level path that
// drives the environment clock itself; later phases delegate full stepping
// and post-process only reward and performance. A trial boundary triggers
// the finalize → advance → retime → propagate sequence.
func (c *Controller) Step(action int) task.StepResult {
	c.fresh = false

	var res task.StepResult
	if timing.RegimeFor(c.state.Phase) == timing.ForcedShort {
		res = c.stepManual(action)
	} else {
		res = c.stepDelegated(action)
	}

	c.trialSteps++
	c.trialReward += res.Reward

	if res.Info.NewTrial {
		c.finishTrial()
	}
	return res
}

// stepManual is the phases {0,1} path: low-level environment step, manual
// clock advance, boundary shaping, and the tmax timeout check.
func (c *Controller) stepManual(action int) task.StepResult {
	res := c.env.StepCore(action)
	res.Reward = c.shaper.floor(res.Reward)

	t, tInd := c.env.Clock()
	c.env.SetClock(t+c.env.DT(), tInd+1)

	if res.Info.NewTrial {
		reward, keep := c.shaper.shapeBoundary(
			&c.state, action, res.Reward, c.env.Performance(),
			task.RewardOr(c.env, "correct"),
		)
		res.Reward = reward
		res.Info.NewTrial = keep
	}

	// Forced boundary when the trial outlives its time budget.
	if t, _ := c.env.Clock(); t > c.env.TMax()-c.env.DT() && !res.Info.NewTrial {
		res.Info.NewTrial = true
		res.Reward += task.RewardOr(c.env, "tmax")
	}

	if res.Info.NewTrial {
		res.Info.Performance = c.state.Performance
	}
	return res
}

// stepDelegated is the phases {2,3,4} path: full stepping is the wrapped
// environment's job; the short-variable regime only masks punishing rewards.
func (c *Controller) stepDelegated(action int) task.StepResult {
	res := c.env.Step(action)
	if timing.RegimeFor(c.state.Phase) == timing.ShortVariable {
		res.Reward = c.shaper.floor(res.Reward)
	}
	if res.Info.NewTrial {
		c.state.Performance = res.Info.Performance
	}
	return res
}

// #endregion step

// #region trial-boundary
// finishTrial finalizes the completed trial: record its outcome, possibly
// advance the phase, then start the next trial.
func (c *Controller) finishTrial() {
	ev := TrialEvent{
		TrialNum:    c.env.TrialCount(),
		Phase:       c.state.Phase,
		Performance: c.state.Performance,
		Reward:      c.trialReward,
		Steps:       c.trialSteps,
	}
	if c.observer != nil {
		c.observer.TrialEnded(ev)
	}

	c.tracker.Record(c.state.Performance)
	if next, advanced, mean := c.tracker.MaybeAdvance(c.state.Phase, c.thresholds); advanced {
		log.Printf("[SHAPING] phase advance %d → %d (window mean %.3f, trial %d)",
			c.state.Phase, next, mean, ev.TrialNum)
		if c.observer != nil {
			c.observer.PhaseAdvanced(PhaseEvent{
				TrialNum:   ev.TrialNum,
				FromPhase:  c.state.Phase,
				ToPhase:    next,
				WindowMean: mean,
			})
		}
		c.state.Phase = next
	}

	c.NewTrial()
	c.trialSteps = 0
	c.trialReward = 0
}

// NewTrial begins the next trial under the active phase regime: per-trial
// counters reset, the phase timing and jitter are recomputed from the
// original snapshot and installed, and the transition propagates to the
// wrapped environment. Outcome recording happens only when the controller
// itself observes a boundary in Step, so an outer wrapper driving NewTrial
// cannot double-count a trial; calling NewTrial again before any step of
// the fresh trial is a no-op.
func (c *Controller) NewTrial() {
	if c.fresh {
		return
	}
	c.state.FirstChoice = true
	c.state.Performance = 0
	c.installTiming()
	c.env.NewTrial()
	c.fresh = true
}

// installTiming recomputes the active timing for the current phase from the
// original snapshot and applies it, plus the jitter value, to the wrapped
// environment.
func (c *Controller) installTiming() {
	reg := timing.RegimeFor(c.state.Phase)
	c.env.SetTiming(timing.Transform(c.original, c.state.Phase, c.shortDur, c.env.DT()))
	c.env.SetJitter(timing.JitterFor(c.state.Phase, c.originalJitter))
	c.state.ForcedShort = reg != timing.FullTask
	c.state.VariableEnabled = reg != timing.ForcedShort
}

// #endregion trial-boundary

// #region contract
// The remaining task.Env methods delegate to the wrapped environment, so a
// Controller is itself wrappable with exact signature symmetry.

func (c *Controller) StepCore(action int) task.StepResult { return c.env.StepCore(action) }

func (c *Controller) DT() float64   { return c.env.DT() }
func (c *Controller) TMax() float64 { return c.env.TMax() }

func (c *Controller) Clock() (float64, int)        { return c.env.Clock() }
func (c *Controller) SetClock(t float64, tInd int) { c.env.SetClock(t, tInd) }

func (c *Controller) TrialCount() int     { return c.env.TrialCount() }
func (c *Controller) SetTrialCount(n int) { c.env.SetTrialCount(n) }

func (c *Controller) Timing() timing.Spec        { return c.env.Timing() }
func (c *Controller) SetTiming(spec timing.Spec) { c.env.SetTiming(spec) }

func (c *Controller) Jitter() float64         { return c.env.Jitter() }
func (c *Controller) SetJitter(sigma float64) { c.env.SetJitter(sigma) }

func (c *Controller) Rewards() map[string]float64 { return c.env.Rewards() }

func (c *Controller) Performance() float64     { return c.env.Performance() }
func (c *Controller) SetPerformance(p float64) { c.env.SetPerformance(p) }

// #endregion contract
