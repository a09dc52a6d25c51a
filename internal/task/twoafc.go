package task

import (
	"math/rand"

	"github.com/tasklab/shaping-controller/internal/timing"
)

// #region actions
// Action values for the two-alternative forced-choice task.
const (
	ActFixate = 0
	ActLeft   = 1
	ActRight  = 2
)

// #endregion actions

// #region config
// TwoAFCConfig configures the reference task.
type TwoAFCConfig struct {
	// DT is the base time step in ms.
	DT float64
	// Coherence is the evidence strength of the stimulus in [0, 1].
	Coherence float64
	// Jitter is the duration-jitter sigma applied when sampling periods.
	Jitter float64
	// Timing overrides the default period spec when non-nil.
	Timing timing.Spec
	// Rewards overrides the default reward table when non-nil.
	Rewards map[string]float64
	// Seed drives the task RNG.
	Seed int64
}

// DefaultTwoAFCConfig returns the standard task configuration: four periods
// ending in a fixed decision window, a mildly punishing reward table, and no
// duration jitter.
func DefaultTwoAFCConfig() TwoAFCConfig {
	return TwoAFCConfig{
		DT:        100,
		Coherence: 0.8,
		Jitter:    0,
		Timing: timing.Spec{
			{Name: "fixation", Dist: timing.NewConstant(200)},
			{Name: "stimulus", Dist: timing.NewTruncatedExponential(350, 200, 800)},
			{Name: "delay", Dist: timing.NewUniform(100, 300)},
			{Name: "decision", Dist: timing.NewConstant(200)},
		},
		Rewards: map[string]float64{
			"correct": 1.0,
			"fail":    -1.0,
			"abort":   -0.1,
			"tmax":    -1.0,
		},
		Seed: 0,
	}
}

// #endregion config

// #region twoafc
// span is one scheduled period in step-index units; end is exclusive.
type span struct {
	name  string
	start int
	end   int
}

// TwoAFC is a trial-structured two-alternative forced-choice task. Each
// trial runs fixation, stimulus, delay and decision periods; the agent must
// hold fixation until the decision period and then report the stimulus side.
type TwoAFC struct {
	dt      float64
	tmax    float64
	t       float64
	tInd    int
	numTr   int
	spec    timing.Spec
	jitter  float64
	rewards map[string]float64
	perf    float64

	coherence float64
	rng       *rand.Rand

	gt       int
	schedule []span
}

var _ Env = (*TwoAFC)(nil)

// NewTwoAFC builds the task from a config. Zero-valued config fields fall
// back to the defaults.
func NewTwoAFC(cfg TwoAFCConfig) *TwoAFC {
	def := DefaultTwoAFCConfig()
	if cfg.DT <= 0 {
		cfg.DT = def.DT
	}
	if cfg.Coherence <= 0 {
		cfg.Coherence = def.Coherence
	}
	if cfg.Timing == nil {
		cfg.Timing = def.Timing
	}
	if cfg.Rewards == nil {
		cfg.Rewards = def.Rewards
	}

	rewards := make(map[string]float64, len(cfg.Rewards))
	for k, v := range cfg.Rewards {
		rewards[k] = v
	}

	return &TwoAFC{
		dt:        cfg.DT,
		spec:      cfg.Timing.Clone(),
		jitter:    cfg.Jitter,
		rewards:   rewards,
		coherence: cfg.Coherence,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}
}

// #endregion twoafc

// #region lifecycle
// Reset starts a fresh run and returns the first observation.
func (e *TwoAFC) Reset() []float64 {
	e.numTr = 0
	e.NewTrial()
	return e.observe()
}

// NewTrial samples the next trial: period durations from the active timing
// spec (with jitter), a fresh ground truth, and reset clock and performance.
func (e *TwoAFC) NewTrial() {
	e.t = 0
	e.tInd = 0
	e.perf = 0
	e.numTr++

	e.schedule = e.schedule[:0]
	start := 0
	var total float64
	for _, p := range e.spec {
		dur := timing.Sample(p.Dist, e.jitter, e.dt, e.rng)
		steps := int(dur / e.dt)
		if steps < 1 {
			steps = 1
		}
		e.schedule = append(e.schedule, span{name: p.Name, start: start, end: start + steps})
		start += steps
		total += float64(steps) * e.dt
	}
	e.tmax = total

	e.gt = ActLeft + e.rng.Intn(2)
}

// #endregion lifecycle

// #region stepping
// StepCore runs the task dynamics for the current step index without
// touching the clock or the trial time budget.
func (e *TwoAFC) StepCore(action int) StepResult {
	res := StepResult{Obs: e.observe()}

	switch e.currentPeriod() {
	case "decision":
		res.Info.GroundTruth = e.gt
		if action != ActFixate {
			res.Info.NewTrial = true
			if action == e.gt {
				res.Reward = RewardOr(e, "correct")
				e.perf = 1
			} else {
				res.Reward = RewardOr(e, "fail")
				e.perf = 0
			}
		}
	default:
		if action != ActFixate {
			// broke fixation
			res.Info.NewTrial = true
			res.Reward = RewardOr(e, "abort")
			e.perf = 0
		}
	}
	return res
}

// Step runs one full step: dynamics, clock advance, and the per-trial time
// budget. A trial that outlives its budget is force-ended with the timeout
// reward term.
func (e *TwoAFC) Step(action int) StepResult {
	res := e.StepCore(action)
	e.t += e.dt
	e.tInd++

	if !res.Info.NewTrial && e.t > e.tmax-e.dt {
		res.Info.NewTrial = true
		res.Reward += RewardOr(e, "tmax")
	}
	if res.Info.NewTrial {
		res.Info.Performance = e.perf
	}
	return res
}

// currentPeriod names the period the step index falls in, clamping past the
// end of the schedule to the last period.
func (e *TwoAFC) currentPeriod() string {
	if len(e.schedule) == 0 {
		return ""
	}
	for _, s := range e.schedule {
		if e.tInd >= s.start && e.tInd < s.end {
			return s.name
		}
	}
	return e.schedule[len(e.schedule)-1].name
}

// observe builds the observation vector: [fixation cue, left evidence,
// right evidence].
func (e *TwoAFC) observe() []float64 {
	obs := make([]float64, 3)
	switch e.currentPeriod() {
	case "stimulus":
		obs[0] = 1
		left, right := 0.5, 0.5
		if e.gt == ActLeft {
			left += e.coherence / 2
			right -= e.coherence / 2
		} else {
			left -= e.coherence / 2
			right += e.coherence / 2
		}
		obs[1], obs[2] = left, right
	case "decision":
		// fixation cue off: respond now
	default:
		obs[0] = 1
	}
	return obs
}

// #endregion stepping

// #region accessors
func (e *TwoAFC) DT() float64   { return e.dt }
func (e *TwoAFC) TMax() float64 { return e.tmax }

func (e *TwoAFC) Clock() (float64, int) { return e.t, e.tInd }
func (e *TwoAFC) SetClock(t float64, tInd int) {
	e.t = t
	e.tInd = tInd
}

func (e *TwoAFC) TrialCount() int     { return e.numTr }
func (e *TwoAFC) SetTrialCount(n int) { e.numTr = n }

func (e *TwoAFC) Timing() timing.Spec        { return e.spec }
func (e *TwoAFC) SetTiming(spec timing.Spec) { e.spec = spec.Clone() }

func (e *TwoAFC) Jitter() float64         { return e.jitter }
func (e *TwoAFC) SetJitter(sigma float64) { e.jitter = sigma }

func (e *TwoAFC) Rewards() map[string]float64 { return e.rewards }

func (e *TwoAFC) Performance() float64     { return e.perf }
func (e *TwoAFC) SetPerformance(p float64) { e.perf = p }

// GroundTruth exposes the current trial's correct choice.
func (e *TwoAFC) GroundTruth() int { return e.gt }

// #endregion accessors
