package shaping

import "github.com/tasklab/shaping-controller/internal/task"

// #region shaper
// rewardShaper reshapes the reward and trial-boundary signal per phase. It
// mutates only the controller-owned State; shaping never amplifies a reward
// beyond the base value, it only zeroes or caps it.
type rewardShaper struct {
	maxNumReps int
}

// floor masks punishing signals from the base environment.
func (rs *rewardShaper) floor(reward float64) float64 {
	if reward < 0 {
		return 0
	}
	return reward
}

// countStreak updates the consecutive-choice counter with a trial-ending
// action. Fixation does not touch the streak; a changed choice restarts it.
func (rs *rewardShaper) countStreak(st *State, action int) {
	if action == task.ActFixate {
		return
	}
	if action == st.PrevAction {
		st.Streak++
	} else {
		st.Streak = 1
		st.PrevAction = action
	}
}

// shapeBoundary applies the phase-specific rules at a natural trial
// boundary. It returns the shaped reward and whether the boundary stands;
// when suppressed (phase 1, non-positive env performance), the trial
// continues and the reward for the step is forced to 0.
//
// Phase 0 rewards any choice that keeps alternating, independent of factual
// correctness. Phase 1 records only the first choice's outcome as the
// trial's performance.
func (rs *rewardShaper) shapeBoundary(st *State, action int, reward, envPerf, correctReward float64) (float64, bool) {
	switch st.Phase {
	case 0:
		rs.countStreak(st, action)
		if st.Streak > rs.maxNumReps {
			st.Performance = 0
			return 0, true
		}
		st.Performance = 1
		return correctReward, true

	case 1:
		keep := true
		if envPerf <= 0 {
			reward = 0
			keep = false
		}
		if st.FirstChoice {
			st.Performance = envPerf
			st.FirstChoice = false
		}
		return reward, keep
	}
	return reward, true
}

// #endregion shaper
