package app

import (
	"context"
	"fmt"
	"strings"

	glerrors "github.com/chazuruo/glflow/internal/errors"
	"github.com/chazuruo/glflow/internal/workflow"
)

// maxDirtyListed bounds the files named in a dirty-tree error.
const maxDirtyListed = 10

// BranchOptions describes a branch to create from the remote base.
type BranchOptions struct {
	Name string
	Base string
	Push bool

	// CommitMessage commits local changes on the current branch before
	// branching. Empty means the tree must be clean.
	CommitMessage string
}

// BranchOutput reports a created branch.
type BranchOutput struct {
	Branch string `json:"branch"`
	Base   string `json:"base"`
	Remote string `json:"remote"`
	Pushed bool   `json:"pushed"`

	// Committed is the commit made from local changes, if any.
	Committed string `json:"committed,omitempty"`
}

// Branch creates and checks out opts.Name from the freshly fetched remote
// base, optionally publishing it.
func Branch(ctx context.Context, env Environment, opts BranchOptions) (*BranchOutput, error) {
	if err := workflow.ValidateBranchName(opts.Name); err != nil {
		return nil, err
	}

	s, err := open(ctx, env, validateLocal)
	if err != nil {
		return nil, err
	}
	defer s.close()

	if err := s.lock(); err != nil {
		return nil, err
	}
	if s.repo.RefExists(ctx, "refs/heads/"+opts.Name) {
		return nil, fmt.Errorf("branch %q: %w", opts.Name, glerrors.ErrAlreadyExists)
	}
	committed, err := s.commitOrRequireClean(ctx, opts.CommitMessage)
	if err != nil {
		return nil, err
	}

	remote, remotes, err := s.remote(ctx)
	if err != nil {
		return nil, err
	}
	baseRemote, baseBranch := s.base(opts.Base, remotes, remote)
	baseRef := baseRemote + "/" + baseBranch

	s.narrator.Info("Fetching %s", baseRef)
	if err := s.repo.Fetch(ctx, baseRemote, baseBranch); err != nil {
		return nil, err
	}
	if !s.repo.RefExists(ctx, baseRef) {
		return nil, glerrors.Precondition("remote branch not found: %s", baseRef)
	}

	if err := s.repo.CreateBranch(ctx, opts.Name, baseRef); err != nil {
		return nil, err
	}
	s.narrator.Success("Created branch %s from %s", opts.Name, baseRef)

	out := &BranchOutput{Branch: opts.Name, Base: baseRef, Remote: remote, Committed: committed}
	if opts.Push {
		if err := s.repo.Push(ctx, remote, opts.Name, true); err != nil {
			return out, err
		}
		out.Pushed = true
		s.narrator.Success("Pushed %s to %s", opts.Name, remote)
	}
	return out, nil
}

// commitOrRequireClean commits every local change on the checked-out branch
// when message is set, returning the new commit. With no message a dirty
// tree is refused.
func (s *session) commitOrRequireClean(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", s.requireClean(ctx)
	}

	dirty, err := s.repo.DirtyFiles(ctx)
	if err != nil || len(dirty) == 0 {
		return "", err
	}
	if err := s.repo.AddAll(ctx); err != nil {
		return "", err
	}
	hash, err := s.repo.CommitAll(ctx, message)
	if err != nil {
		return "", err
	}
	s.narrator.Success("Committed %d file(s): %s", len(dirty), message)
	s.logs.For("commit").Info("local changes committed", "commit", hash, "files", len(dirty))
	return hash, nil
}

// dirtyTreeError names the first maxDirtyListed changed files.
func dirtyTreeError(files []string) error {
	var b strings.Builder
	for i, f := range files {
		if i == maxDirtyListed {
			fmt.Fprintf(&b, "\n  ... and %d more", len(files)-maxDirtyListed)
			break
		}
		b.WriteString("\n  " + f)
	}
	return glerrors.Precondition("working tree has uncommitted changes; commit or stash them first:%s", b.String())
}
