package gitrepo

import (
	"context"
	"strings"
)

// Stash moves all local changes, untracked files included, into a new
// stash entry labeled with message.
func (r *gitRepo) Stash(ctx context.Context, message string) error {
	_, err := r.runGit(ctx, "stash", "push", "--include-untracked", "-m", message)
	return err
}

// StashPop applies the newest stash entry and drops it.
func (r *gitRepo) StashPop(ctx context.Context) error {
	_, err := r.runGit(ctx, "stash", "pop")
	return err
}

// AbortStashPop throws away what a failed StashPop left in the working
// copy: conflicted and staged paths go back to HEAD and files restored from
// the entry's untracked part are removed. git keeps the entry when a pop
// conflicts, so it remains the only copy of the changes.
func (r *gitRepo) AbortStashPop(ctx context.Context) error {
	if _, err := r.runGit(ctx, "reset", "--merge"); err != nil {
		return err
	}

	const untracked = "stash@{0}^3"
	if !r.RefExists(ctx, untracked) {
		return nil
	}
	out, err := r.runGitOutput(ctx, "ls-tree", "-r", "-z", "--name-only", untracked)
	if err != nil {
		return err
	}
	paths := strings.Split(strings.TrimRight(out, "\x00"), "\x00")
	if len(paths) == 0 || paths[0] == "" {
		return nil
	}
	_, err = r.runGit(ctx, append([]string{"clean", "-f", "-q", "--"}, paths...)...)
	return err
}
