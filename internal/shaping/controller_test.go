package shaping

import (
	"testing"

	"github.com/tasklab/shaping-controller/internal/task"
	"github.com/tasklab/shaping-controller/internal/timing"
)

// #region stub
// scriptStep is one pre-recorded environment step: the result to return and
// the performance value the step leaves on the environment.
type scriptStep struct {
	res  task.StepResult
	perf float64
}

// stubEnv is a scripted task.Env: StepCore and Step both consume the same
// script, and every install from the controller is recorded for inspection.
type stubEnv struct {
	dt      float64
	tmax    float64
	t       float64
	tInd    int
	numTr   int
	spec    timing.Spec
	jitter  float64
	rewards map[string]float64
	perf    float64

	script []scriptStep
	cursor int

	newTrials  int
	lastTiming timing.Spec
	lastJitter float64
}

var _ task.Env = (*stubEnv)(nil)

func newStubEnv() *stubEnv {
	return &stubEnv{
		dt:   100,
		tmax: 1e9,
		spec: timing.Spec{
			{Name: "fixation", Dist: timing.NewConstant(400)},
			{Name: "decision", Dist: timing.NewConstant(200)},
		},
		rewards: map[string]float64{"correct": 1, "fail": -1, "abort": -0.1, "tmax": -1},
	}
}

// enqueue appends n copies of a scripted step.
func (s *stubEnv) enqueue(n int, res task.StepResult, perf float64) {
	for i := 0; i < n; i++ {
		s.script = append(s.script, scriptStep{res: res, perf: perf})
	}
}

func (s *stubEnv) StepCore(action int) task.StepResult {
	if s.cursor >= len(s.script) {
		return task.StepResult{Obs: make([]float64, 3)}
	}
	step := s.script[s.cursor]
	s.cursor++
	s.perf = step.perf
	return step.res
}

func (s *stubEnv) Step(action int) task.StepResult {
	res := s.StepCore(action)
	s.t += s.dt
	s.tInd++
	return res
}

func (s *stubEnv) Reset() []float64 {
	s.t, s.tInd = 0, 0
	s.numTr = 1
	s.perf = 0
	return make([]float64, 3)
}

func (s *stubEnv) NewTrial() {
	s.newTrials++
	s.t, s.tInd = 0, 0
	s.numTr++
	s.perf = 0
}

func (s *stubEnv) DT() float64   { return s.dt }
func (s *stubEnv) TMax() float64 { return s.tmax }

func (s *stubEnv) Clock() (float64, int) { return s.t, s.tInd }
func (s *stubEnv) SetClock(t float64, tInd int) {
	s.t = t
	s.tInd = tInd
}

func (s *stubEnv) TrialCount() int     { return s.numTr }
func (s *stubEnv) SetTrialCount(n int) { s.numTr = n }

func (s *stubEnv) Timing() timing.Spec { return s.spec }
func (s *stubEnv) SetTiming(spec timing.Spec) {
	s.spec = spec.Clone()
	s.lastTiming = spec.Clone()
}

func (s *stubEnv) Jitter() float64 { return s.jitter }
func (s *stubEnv) SetJitter(sigma float64) {
	s.jitter = sigma
	s.lastJitter = sigma
}

func (s *stubEnv) Rewards() map[string]float64 { return s.rewards }

func (s *stubEnv) Performance() float64     { return s.perf }
func (s *stubEnv) SetPerformance(p float64) { s.perf = p }

// #endregion stub

// #region helpers
func testOptions() Options {
	return Options{
		InitPhase:     0,
		MaxNumReps:    3,
		ShortDurSteps: 2,
		Threshold:     0.8,
		PerfWindow:    100,
	}
}

// boundary builds a one-step trial ending with the given reward and outcome.
func boundary(reward, perf float64) scriptStep {
	return scriptStep{
		res: task.StepResult{
			Reward: reward,
			Info:   task.Info{NewTrial: true, Performance: perf},
		},
		perf: perf,
	}
}

// #endregion helpers

// #region construction
func TestNewRejectsNilEnvironment(t *testing.T) {
	if _, err := New(nil, testOptions()); err == nil {
		t.Fatal("expected error for nil environment")
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	if _, err := New(newStubEnv(), Options{}); err == nil {
		t.Fatal("expected error for zero options")
	}
}

func TestNewRejectsBadEnvironment(t *testing.T) {
	env := newStubEnv()
	env.dt = 0
	if _, err := New(env, testOptions()); err == nil {
		t.Fatal("expected error for non-positive dt")
	}

	env = newStubEnv()
	env.spec = nil
	if _, err := New(env, testOptions()); err == nil {
		t.Fatal("expected error for empty timing")
	}

	env = newStubEnv()
	delete(env.rewards, "correct")
	if _, err := New(env, testOptions()); err == nil {
		t.Fatal("expected error for missing correct reward")
	}
}

// #endregion construction

// #region phase-0
func TestPhaseZeroRewardsAlternationNotCorrectness(t *testing.T) {
	env := newStubEnv()
	env.script = []scriptStep{
		boundary(-1, 0), boundary(-1, 0), boundary(-1, 0),
		boundary(-1, 0), boundary(-1, 0),
	}
	ctrl, err := New(env, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	ctrl.Reset()

	// three repeats of the same side are tolerated
	for i := 0; i < 3; i++ {
		res := ctrl.Step(task.ActLeft)
		if !res.Info.NewTrial || res.Reward != 1 || res.Info.Performance != 1 {
			t.Fatalf("rep %d: reward %g perf %g boundary %v",
				i, res.Reward, res.Info.Performance, res.Info.NewTrial)
		}
	}

	// the fourth repeat gets nothing
	res := ctrl.Step(task.ActLeft)
	if res.Reward != 0 || res.Info.Performance != 0 {
		t.Fatalf("over-rep: reward %g perf %g", res.Reward, res.Info.Performance)
	}

	// switching sides restores the reward
	res = ctrl.Step(task.ActRight)
	if res.Reward != 1 || res.Info.Performance != 1 {
		t.Fatalf("after switch: reward %g perf %g", res.Reward, res.Info.Performance)
	}
}

// #endregion phase-0

// #region phase-1
func TestPhaseOneExtendsTrialUntilCorrect(t *testing.T) {
	env := newStubEnv()
	env.script = []scriptStep{
		boundary(-1, 0), // wrong first choice: boundary suppressed
		boundary(1, 1),  // correct retry: boundary stands
	}
	opts := testOptions()
	opts.InitPhase = 1
	ctrl, err := New(env, opts)
	if err != nil {
		t.Fatal(err)
	}
	ctrl.Reset()

	res := ctrl.Step(task.ActLeft)
	if res.Info.NewTrial {
		t.Fatal("boundary not suppressed on wrong first choice")
	}
	if res.Reward != 0 {
		t.Fatalf("suppressed step reward = %g, want 0", res.Reward)
	}
	if ctrl.WindowLen() != 0 {
		t.Fatal("suppressed boundary recorded an outcome")
	}

	res = ctrl.Step(task.ActRight)
	if !res.Info.NewTrial || res.Reward != 1 {
		t.Fatalf("retry: reward %g boundary %v", res.Reward, res.Info.NewTrial)
	}
	// the trial's outcome is the first choice's, not the retry's
	if res.Info.Performance != 0 {
		t.Fatalf("trial outcome = %g, want 0", res.Info.Performance)
	}
	if ctrl.WindowLen() != 1 {
		t.Fatalf("window fill = %d, want 1", ctrl.WindowLen())
	}
}

func TestPhaseOneCorrectFirstChoice(t *testing.T) {
	env := newStubEnv()
	env.script = []scriptStep{boundary(1, 1)}
	opts := testOptions()
	opts.InitPhase = 1
	ctrl, err := New(env, opts)
	if err != nil {
		t.Fatal(err)
	}
	ctrl.Reset()

	res := ctrl.Step(task.ActLeft)
	if !res.Info.NewTrial || res.Reward != 1 || res.Info.Performance != 1 {
		t.Fatalf("reward %g perf %g boundary %v",
			res.Reward, res.Info.Performance, res.Info.NewTrial)
	}
}

// #endregion phase-1

// #region timeout
func TestManualPathForcesBoundaryAtTimeBudget(t *testing.T) {
	env := newStubEnv()
	env.tmax = 300
	env.enqueue(3, task.StepResult{}, 0)
	ctrl, err := New(env, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	ctrl.Reset()

	for i := 0; i < 2; i++ {
		res := ctrl.Step(task.ActFixate)
		if res.Info.NewTrial {
			t.Fatalf("boundary fired at step %d", i)
		}
	}
	res := ctrl.Step(task.ActFixate)
	if !res.Info.NewTrial {
		t.Fatal("no forced boundary at the time budget")
	}
	if res.Reward != -1 {
		t.Fatalf("timeout reward = %g, want -1", res.Reward)
	}
	if res.Info.Performance != 0 {
		t.Fatalf("timeout outcome = %g, want 0", res.Info.Performance)
	}
	if env.newTrials != 1 {
		t.Fatalf("env NewTrial calls = %d, want 1", env.newTrials)
	}
}

// #endregion timeout

// #region reward-floor
func TestRewardFloorPerRegime(t *testing.T) {
	punish := scriptStep{res: task.StepResult{Reward: -1}}

	// short-variable regime masks punishing rewards
	env := newStubEnv()
	env.script = []scriptStep{punish}
	opts := testOptions()
	opts.InitPhase = 2
	ctrl, err := New(env, opts)
	if err != nil {
		t.Fatal(err)
	}
	ctrl.Reset()
	if res := ctrl.Step(task.ActLeft); res.Reward != 0 {
		t.Fatalf("phase 2 reward = %g, want 0", res.Reward)
	}

	// the full task passes rewards through untouched
	env = newStubEnv()
	env.script = []scriptStep{punish}
	opts.InitPhase = 4
	ctrl, err = New(env, opts)
	if err != nil {
		t.Fatal(err)
	}
	ctrl.Reset()
	if res := ctrl.Step(task.ActLeft); res.Reward != -1 {
		t.Fatalf("phase 4 reward = %g, want -1", res.Reward)
	}
}

// #endregion reward-floor

// #region advancement
func TestPhaseAdvancementInstallsRegimeTiming(t *testing.T) {
	env := newStubEnv()
	env.jitter = 30
	env.enqueue(8, task.StepResult{
		Reward: 1,
		Info:   task.Info{NewTrial: true, Performance: 1},
	}, 1)

	opts := testOptions()
	opts.Threshold = 0.5
	opts.PerfWindow = 2
	ctrl, err := New(env, opts)
	if err != nil {
		t.Fatal(err)
	}
	ctrl.Reset()

	original := ctrl.OriginalTiming()
	shortDur := float64(opts.ShortDurSteps) * env.DT()

	actions := []int{task.ActLeft, task.ActRight}
	prev := 0
	for trial := 1; trial <= 8; trial++ {
		res := ctrl.Step(actions[trial%2])
		if !res.Info.NewTrial {
			t.Fatalf("trial %d did not end", trial)
		}
		phase := ctrl.Phase()
		if phase < prev {
			t.Fatalf("phase decreased %d → %d at trial %d", prev, phase, trial)
		}
		prev = phase

		want := timing.Transform(original, phase, shortDur, env.DT())
		if !env.lastTiming.Equal(want) {
			t.Fatalf("trial %d phase %d: installed timing does not match transform", trial, phase)
		}
		if got := timing.JitterFor(phase, ctrl.OriginalJitter()); env.lastJitter != got {
			t.Fatalf("trial %d phase %d: jitter = %g, want %g", trial, phase, env.lastJitter, got)
		}
	}

	if ctrl.Phase() != 4 {
		t.Fatalf("final phase = %d, want 4", ctrl.Phase())
	}
	// at the terminal phase the original timing and jitter are restored
	if !env.spec.Equal(original) {
		t.Fatal("terminal phase did not restore the original timing")
	}
	if env.jitter != 30 {
		t.Fatalf("terminal jitter = %g, want 30", env.jitter)
	}
}

func TestWindowNeverOverfills(t *testing.T) {
	env := newStubEnv()
	env.enqueue(10, task.StepResult{Info: task.Info{NewTrial: true}}, 0)
	opts := testOptions()
	opts.InitPhase = 4
	opts.PerfWindow = 3
	ctrl, err := New(env, opts)
	if err != nil {
		t.Fatal(err)
	}
	ctrl.Reset()

	for i := 0; i < 10; i++ {
		ctrl.Step(task.ActLeft)
		if ctrl.WindowLen() > 3 {
			t.Fatalf("window fill %d exceeds capacity", ctrl.WindowLen())
		}
	}
}

// #endregion advancement

// #region observer
type eventLog struct {
	trials []TrialEvent
	phases []PhaseEvent
}

func (l *eventLog) TrialEnded(ev TrialEvent)    { l.trials = append(l.trials, ev) }
func (l *eventLog) PhaseAdvanced(ev PhaseEvent) { l.phases = append(l.phases, ev) }

func TestObserverSeesTrialAndPhaseEvents(t *testing.T) {
	env := newStubEnv()
	env.enqueue(2, task.StepResult{
		Reward: 1,
		Info:   task.Info{NewTrial: true, Performance: 1},
	}, 1)

	opts := testOptions()
	opts.Threshold = 0.5
	opts.PerfWindow = 2
	ctrl, err := New(env, opts)
	if err != nil {
		t.Fatal(err)
	}
	log := &eventLog{}
	ctrl.Observe(log)
	ctrl.Reset()

	ctrl.Step(task.ActLeft)
	ctrl.Step(task.ActRight)

	if len(log.trials) != 2 {
		t.Fatalf("trial events = %d, want 2", len(log.trials))
	}
	first := log.trials[0]
	if first.TrialNum != 1 || first.Phase != 0 || first.Performance != 1 || first.Steps != 1 {
		t.Fatalf("unexpected first trial event: %+v", first)
	}
	if len(log.phases) != 1 {
		t.Fatalf("phase events = %d, want 1", len(log.phases))
	}
	adv := log.phases[0]
	if adv.FromPhase != 0 || adv.ToPhase != 1 || adv.WindowMean != 1 || adv.TrialNum != 2 {
		t.Fatalf("unexpected phase event: %+v", adv)
	}
}

// #endregion observer

// #region composition
func TestNewTrialIdempotentWhileFresh(t *testing.T) {
	env := newStubEnv()
	env.script = []scriptStep{
		boundary(1, 1),
		{res: task.StepResult{}},
	}
	ctrl, err := New(env, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	ctrl.Reset()

	// fresh after Reset: an external NewTrial must not start a second trial
	ctrl.NewTrial()
	if env.newTrials != 0 {
		t.Fatalf("NewTrial ran on a fresh reset: %d calls", env.newTrials)
	}

	ctrl.Step(task.ActLeft) // boundary: controller starts the next trial itself
	if env.newTrials != 1 {
		t.Fatalf("env NewTrial calls = %d, want 1", env.newTrials)
	}
	ctrl.NewTrial() // redundant external call
	if env.newTrials != 1 {
		t.Fatalf("redundant NewTrial propagated: %d calls", env.newTrials)
	}

	ctrl.Step(task.ActFixate) // mid-trial step clears the guard
	ctrl.NewTrial()
	if env.newTrials != 2 {
		t.Fatalf("env NewTrial calls = %d, want 2", env.newTrials)
	}
}

func TestControllersStackWithoutDoubleTrials(t *testing.T) {
	env := newStubEnv()
	env.script = []scriptStep{boundary(1, 1)}

	opts := testOptions()
	opts.InitPhase = 4
	inner, err := New(env, opts)
	if err != nil {
		t.Fatal(err)
	}
	outer, err := New(inner, opts)
	if err != nil {
		t.Fatal(err)
	}
	outer.Reset()

	res := outer.Step(task.ActLeft)
	if !res.Info.NewTrial {
		t.Fatal("boundary lost through the stack")
	}
	if env.newTrials != 1 {
		t.Fatalf("env NewTrial calls = %d, want 1", env.newTrials)
	}
}

// #endregion composition
