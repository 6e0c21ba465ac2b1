package workflow

import (
	"fmt"
)

// State tracks one run of the start workflow. It exists for rollback
// decisions and is discarded when the run ends.
type State struct {
	RunID string

	Steps StepSet

	// IssueIID is set once the issue exists; zero means none was created.
	IssueIID   int
	IssueTitle string
	IssueURL   string

	// BranchName is set exactly when PhaseBranchCreated is marked.
	BranchName string

	// OriginalBranch is "HEAD" when the run started detached; OriginalCommit
	// then holds the commit to return to.
	OriginalBranch string
	OriginalCommit string

	Stashed      bool
	StashedFiles []string

	// stashPending is true while a stash made by this run has not been
	// popped. Rollback may set it again when it re-stashes.
	stashPending bool

	IssueUpdated bool
	MetadataPath string
}

func (s *State) mark(p Phase) {
	// Phases are marked by the executor in a fixed order, so an error
	// here is a programming mistake.
	if err := s.Steps.Mark(p); err != nil {
		panic(err)
	}
}

// Result is the outcome of a run.
type Result struct {
	Success bool

	IssueIID   int
	IssueTitle string
	IssueURL   string

	Branch       string
	Remote       string
	Pushed       bool
	IssueUpdated bool

	// StashedFiles were moved aside and restored on the new branch.
	StashedFiles []string

	// MetadataPath is empty when the metadata write failed.
	MetadataPath string

	// Steps lists the phases that completed before the run ended.
	Steps []Phase

	// Err is the failure cause. It is nil exactly when Success is true.
	Err error
}

// OrphanedIssue reports whether a failed run left an issue behind.
func (r *Result) OrphanedIssue() bool {
	return !r.Success && r.IssueIID != 0
}

// Message returns a one-line description of a failure, naming the issue
// that must be closed by hand when one was created.
func (r *Result) Message() string {
	if r.Success {
		return ""
	}
	if r.OrphanedIssue() {
		return fmt.Sprintf("%v (issue #%d was created and must be closed manually)", r.Err, r.IssueIID)
	}
	return r.Err.Error()
}

func succeeded(s *State, remote string) *Result {
	return &Result{
		Success:      true,
		IssueIID:     s.IssueIID,
		IssueTitle:   s.IssueTitle,
		IssueURL:     s.IssueURL,
		Branch:       s.BranchName,
		Remote:       remote,
		Pushed:       s.Steps.Has(PhasePushed),
		IssueUpdated: s.IssueUpdated,
		StashedFiles: s.StashedFiles,
		MetadataPath: s.MetadataPath,
		Steps:        s.Steps.Steps(),
	}
}

func failed(s *State, err error) *Result {
	return &Result{
		IssueIID:   s.IssueIID,
		IssueTitle: s.IssueTitle,
		IssueURL:   s.IssueURL,
		Steps:      s.Steps.Steps(),
		Err:        err,
	}
}
