package gitrepo

import (
	"context"
)

// Checkout switches the working copy to an existing branch.
func (r *gitRepo) Checkout(ctx context.Context, branch string) error {
	_, err := r.runGit(ctx, "checkout", branch)
	return err
}

// CreateBranch creates a branch and checks it out. An empty startPoint
// branches from HEAD.
func (r *gitRepo) CreateBranch(ctx context.Context, name, startPoint string) error {
	args := []string{"checkout", "-b", name}
	if startPoint != "" {
		args = append(args, startPoint)
	}
	_, err := r.runGit(ctx, args...)
	return err
}

// DeleteBranch deletes a local branch. force uses -D so unmerged
// branches are removed too.
func (r *gitRepo) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := r.runGit(ctx, "branch", flag, name)
	return err
}

// RefExists reports whether ref resolves to a commit.
func (r *gitRepo) RefExists(ctx context.Context, ref string) bool {
	_, err := r.runGitOutput(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	return err == nil
}
