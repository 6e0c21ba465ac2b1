package gitrepo

import (
	"context"
	"strings"
)

// Remotes lists the configured remote names in git's order.
func (r *gitRepo) Remotes(ctx context.Context) ([]string, error) {
	output, err := r.runGitOutput(ctx, "remote")
	if err != nil {
		return nil, err
	}

	var remotes []string
	for _, line := range strings.Split(output, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			remotes = append(remotes, name)
		}
	}
	return remotes, nil
}

// RemoteURL returns the fetch URL of a remote.
func (r *gitRepo) RemoteURL(ctx context.Context, remote string) (string, error) {
	output, err := r.runGitOutput(ctx, "remote", "get-url", remote)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// Fetch fetches from a remote. A non-empty branch limits the fetch to it.
func (r *gitRepo) Fetch(ctx context.Context, remote, branch string) error {
	args := []string{"fetch", remote}
	if branch != "" {
		args = append(args, branch)
	}
	_, err := r.runGit(ctx, args...)
	return err
}

// Pull pulls a remote branch into the current branch.
func (r *gitRepo) Pull(ctx context.Context, remote, branch string) error {
	_, err := r.runGit(ctx, "pull", remote, branch)
	return err
}

// Push pushes a branch to a remote, setting it as upstream when requested.
func (r *gitRepo) Push(ctx context.Context, remote, branch string, setUpstream bool) error {
	args := []string{"push"}
	if setUpstream {
		args = append(args, "-u")
	}
	args = append(args, remote, branch)
	_, err := r.runGit(ctx, args...)
	return err
}

// DeleteRemoteBranch deletes a branch on a remote.
func (r *gitRepo) DeleteRemoteBranch(ctx context.Context, remote, branch string) error {
	_, err := r.runGit(ctx, "push", remote, "--delete", branch)
	return err
}

// ResolveRemote picks the remote to operate on. A non-empty override must
// name a configured remote; otherwise "origin" is preferred, then the first
// remote listed.
func ResolveRemote(remotes []string, override string) (string, bool) {
	if override != "" {
		for _, name := range remotes {
			if name == override {
				return name, true
			}
		}
		return "", false
	}
	for _, name := range remotes {
		if name == "origin" {
			return name, true
		}
	}
	if len(remotes) > 0 {
		return remotes[0], true
	}
	return "", false
}

// SplitBaseRef splits a base reference such as "origin/develop" into remote
// and branch when its first segment names a configured remote. Other
// references are returned unchanged with defaultRemote.
func SplitBaseRef(ref string, remotes []string, defaultRemote string) (remote, branch string) {
	if prefix, rest, ok := strings.Cut(ref, "/"); ok && rest != "" {
		for _, name := range remotes {
			if name == prefix {
				return name, rest
			}
		}
	}
	return defaultRemote, ref
}
