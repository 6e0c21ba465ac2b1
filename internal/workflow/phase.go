package workflow

import (
	"fmt"
)

// Phase identifies a side-effecting step of the start workflow. Phases are
// declared in execution order.
type Phase int

const (
	PhaseIssueCreated Phase = iota + 1
	PhaseStashed
	PhaseSwitchedToBase
	PhasePulledLatest
	PhaseBranchCreated
	PhasePushed
	PhaseStashPopped
	PhaseIssueUpdated
	PhaseMetadataSaved
)

var phaseNames = map[Phase]string{
	PhaseIssueCreated:   "issue_created",
	PhaseStashed:        "stashed",
	PhaseSwitchedToBase: "switched_to_base",
	PhasePulledLatest:   "pulled_latest",
	PhaseBranchCreated:  "branch_created",
	PhasePushed:         "pushed",
	PhaseStashPopped:    "stash_popped",
	PhaseIssueUpdated:   "issue_updated",
	PhaseMetadataSaved:  "metadata_saved",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// StepSet records completed phases in the order they completed. A phase can
// be marked once, and only after every phase already marked.
type StepSet struct {
	steps []Phase
}

// Mark records p as completed.
func (s *StepSet) Mark(p Phase) error {
	if _, ok := phaseNames[p]; !ok {
		return fmt.Errorf("unknown phase %d", int(p))
	}
	if s.Has(p) {
		return fmt.Errorf("phase %s already completed", p)
	}
	if n := len(s.steps); n > 0 && s.steps[n-1] > p {
		return fmt.Errorf("phase %s cannot complete after %s", p, s.steps[n-1])
	}
	s.steps = append(s.steps, p)
	return nil
}

// Has reports whether p was marked.
func (s *StepSet) Has(p Phase) bool {
	for _, step := range s.steps {
		if step == p {
			return true
		}
	}
	return false
}

// Steps returns the marked phases in completion order.
func (s *StepSet) Steps() []Phase {
	return append([]Phase(nil), s.steps...)
}

// Len returns the number of marked phases.
func (s *StepSet) Len() int {
	return len(s.steps)
}
