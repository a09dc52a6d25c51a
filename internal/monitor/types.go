package monitor

import "time"

// #region records
// RunRecord is one curriculum run.
type RunRecord struct {
	RunID       string
	Task        string
	Policy      string
	Seed        int64
	InitPhase   int
	OptionsJSON string
	CreatedAt   time.Time
}

// TrialRecord is one completed trial within a run.
type TrialRecord struct {
	RunID       string
	TrialNum    int
	Phase       int
	Performance float64
	Reward      float64
	Steps       int
	CreatedAt   time.Time
}

// TransitionRecord is one phase advancement within a run.
type TransitionRecord struct {
	RunID      string
	TrialNum   int
	FromPhase  int
	ToPhase    int
	WindowMean float64
	CreatedAt  time.Time
}

// PhaseStat aggregates trials per phase.
type PhaseStat struct {
	Phase    int
	Trials   int
	MeanPerf float64
}

// #endregion records
