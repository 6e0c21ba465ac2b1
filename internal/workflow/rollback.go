package workflow

import (
	"context"
	"fmt"

	"github.com/chazuruo/glflow/internal/logging"
)

// rollback undoes the marked phases in reverse order. Every action is best
// effort: failures are narrated and logged at WARN, then the next action runs.
func (e *Executor) rollback(ctx context.Context, log *logging.ScopedLogger, state *State, tgt target) {
	ctx, span := e.tracer.Start(ctx, "workflow.rollback")
	defer span.End()

	steps := &state.Steps
	warn := func(action string, err error) {
		e.narrator.Warn("Rollback: %s failed: %v", action, err)
		log.Warn("rollback step failed", "action", action, "error", err)
	}

	if steps.Has(PhaseStashPopped) {
		e.restash(ctx, state, warn)
	}

	if steps.Has(PhasePushed) && state.BranchName != "" {
		if err := e.vcs.DeleteRemoteBranch(ctx, tgt.remote, state.BranchName); err != nil {
			warn("delete remote branch", err)
		} else {
			e.narrator.Info("Deleted remote branch %s/%s", tgt.remote, state.BranchName)
		}
	}

	if steps.Has(PhaseBranchCreated) && state.BranchName != "" {
		e.leaveBranch(ctx, state, tgt, warn)
		if err := e.vcs.DeleteBranch(ctx, state.BranchName, true); err != nil {
			warn("delete local branch", err)
		} else {
			e.narrator.Info("Deleted local branch %s", state.BranchName)
		}
	}

	if steps.Has(PhaseSwitchedToBase) && state.OriginalBranch != "" {
		if dest, ok := e.needsReturn(ctx, state); ok {
			if err := e.vcs.Checkout(ctx, dest); err != nil {
				warn("checkout "+dest, err)
			} else {
				e.narrator.Info("Returned to %s", dest)
			}
		}
	}

	if state.stashPending {
		if err := e.vcs.StashPop(ctx); err != nil {
			warn("restore stashed changes", err)
			if err := e.vcs.AbortStashPop(ctx); err != nil {
				warn("discard conflicted stash pop", err)
			}
			e.narrator.Info("Your changes are kept in the stash; run 'git stash pop' to restore them")
		} else {
			state.stashPending = false
			e.narrator.Info("Restored stashed changes")
		}
	}

	log.Info("rollback finished", "steps", phaseList(steps.Steps()))
}

// restash moves changes popped onto the new branch back into a stash so the
// branch can be removed. Nothing is stashed when the tree is already clean,
// which keeps the final pop from touching an unrelated stash entry.
func (e *Executor) restash(ctx context.Context, state *State, warn func(string, error)) {
	dirty, err := e.vcs.DirtyFiles(ctx)
	if err != nil {
		warn("re-stash changes", err)
		return
	}
	if len(dirty) == 0 {
		return
	}

	msg := fmt.Sprintf("glflow: rollback of run %s", state.RunID)
	if err := e.vcs.Stash(ctx, msg); err != nil {
		warn("re-stash changes", err)
		return
	}
	state.stashPending = true
	e.narrator.Info("Re-stashed %d changed file(s)", len(dirty))
}

// leaveBranch checks out the original branch or detached commit, or the base
// when there is neither, if the branch being deleted is checked out.
func (e *Executor) leaveBranch(ctx context.Context, state *State, tgt target, warn func(string, error)) {
	current, err := e.vcs.CurrentBranch(ctx)
	if err == nil && current != state.BranchName {
		return
	}

	dest := state.OriginalBranch
	switch {
	case dest == "HEAD" && state.OriginalCommit != "":
		dest = state.OriginalCommit
	case dest == "" || dest == state.BranchName || dest == "HEAD":
		dest = tgt.baseBranch
	}
	if err := e.vcs.Checkout(ctx, dest); err != nil {
		warn("checkout "+dest, err)
	}
}

// needsReturn reports where to check out to get back to the starting point,
// if the working copy is not already there.
func (e *Executor) needsReturn(ctx context.Context, state *State) (string, bool) {
	if state.OriginalBranch == "HEAD" {
		if state.OriginalCommit == "" {
			return "", false
		}
		current, err := e.vcs.CurrentBranch(ctx)
		if err == nil && current == "HEAD" {
			if head, err := e.vcs.HeadCommit(ctx); err == nil && head == state.OriginalCommit {
				return "", false
			}
		}
		return state.OriginalCommit, true
	}

	current, err := e.vcs.CurrentBranch(ctx)
	if err == nil && current == state.OriginalBranch {
		return "", false
	}
	return state.OriginalBranch, true
}
