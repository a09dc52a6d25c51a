// Package replay re-runs a scripted curriculum deterministically from a JSON
// fixture and verifies the resulting phase timeline.
package replay

import (
	"fmt"
	"math/rand"

	"github.com/tasklab/shaping-controller/internal/task"
)

// #region policy
// Policy chooses the next action from the previous step result.
type Policy interface {
	Act(prev task.StepResult) int
}

// NewPolicy builds a named scripted policy:
//
//	gt        answer the exposed ground truth
//	repeat    always answer left
//	alternate alternate left and right answers
//	fixate    never answer
//	random    answer a random side
func NewPolicy(name string, rng *rand.Rand) (Policy, error) {
	switch name {
	case "gt":
		return gtPolicy{}, nil
	case "repeat":
		return &repeatPolicy{action: task.ActLeft}, nil
	case "alternate":
		return &alternatePolicy{next: task.ActLeft}, nil
	case "fixate":
		return fixatePolicy{}, nil
	case "random":
		return &randomPolicy{rng: rng}, nil
	}
	return nil, fmt.Errorf("unknown policy %q", name)
}

// gtPolicy plays whatever action the environment expects right now, which
// means fixating outside the decision period.
type gtPolicy struct{}

func (gtPolicy) Act(prev task.StepResult) int {
	return prev.Info.GroundTruth
}

// repeatPolicy answers the same side at every decision.
type repeatPolicy struct {
	action int
}

func (p *repeatPolicy) Act(prev task.StepResult) int {
	if prev.Info.GroundTruth == task.ActFixate {
		return task.ActFixate
	}
	return p.action
}

// alternatePolicy flips sides between decisions.
type alternatePolicy struct {
	next int
}

func (p *alternatePolicy) Act(prev task.StepResult) int {
	if prev.Info.GroundTruth == task.ActFixate {
		return task.ActFixate
	}
	a := p.next
	if p.next == task.ActLeft {
		p.next = task.ActRight
	} else {
		p.next = task.ActLeft
	}
	return a
}

// fixatePolicy never responds; trials end on the time budget.
type fixatePolicy struct{}

func (fixatePolicy) Act(task.StepResult) int {
	return task.ActFixate
}

// randomPolicy answers a coin-flip side at decisions.
type randomPolicy struct {
	rng *rand.Rand
}

func (p *randomPolicy) Act(prev task.StepResult) int {
	if prev.Info.GroundTruth == task.ActFixate {
		return task.ActFixate
	}
	return task.ActLeft + p.rng.Intn(2)
}

// #endregion policy
