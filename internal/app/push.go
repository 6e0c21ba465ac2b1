package app

import (
	"context"

	"github.com/chazuruo/glflow/internal/workflow"
)

// PushOptions names the branch to publish. Empty means the current branch.
type PushOptions struct {
	Branch string
}

// PushOutput reports a pushed branch.
type PushOutput struct {
	Branch string `json:"branch"`
	Remote string `json:"remote"`
}

// Push validates the branch name and pushes it with upstream tracking.
func Push(ctx context.Context, env Environment, opts PushOptions) (*PushOutput, error) {
	s, err := open(ctx, env, validateLocal)
	if err != nil {
		return nil, err
	}
	defer s.close()

	if err := s.lock(); err != nil {
		return nil, err
	}
	branch := opts.Branch
	if branch == "" {
		if branch, err = s.repo.CurrentBranch(ctx); err != nil {
			return nil, err
		}
	}
	if err := workflow.ValidateBranchName(branch); err != nil {
		return nil, err
	}

	remote, _, err := s.remote(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Push(ctx, remote, branch, true); err != nil {
		return nil, err
	}
	s.narrator.Success("Pushed %s to %s", branch, remote)

	return &PushOutput{Branch: branch, Remote: remote}, nil
}
