// Package gitrepo provides a Git working-copy abstraction.
// It shells out to the git binary for operations, making it
// a lightweight wrapper around standard Git functionality.
package gitrepo

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	glerrors "github.com/chazuruo/glflow/internal/errors"
)

// gitRepo represents a Git repository.
type gitRepo struct {
	path string
}

// Repo is the interface for Git working-copy operations.
type Repo interface {
	// Path returns the repository path.
	Path() string

	// IsRepository returns true if Path is inside a Git working copy.
	IsRepository(ctx context.Context) bool

	// GitDir returns the absolute path of the .git directory.
	GitDir(ctx context.Context) (string, error)

	// TopLevel returns the absolute path of the working-copy root.
	TopLevel(ctx context.Context) (string, error)

	// Status returns the current status of the working copy.
	Status(ctx context.Context) (Status, error)

	// DirtyFiles returns the paths of modified, staged, and untracked files.
	DirtyFiles(ctx context.Context) ([]string, error)

	// CurrentBranch returns the checked-out branch name, or "HEAD" when detached.
	CurrentBranch(ctx context.Context) (string, error)

	// HeadCommit returns the full hash HEAD points at.
	HeadCommit(ctx context.Context) (string, error)

	// Checkout switches to an existing branch.
	Checkout(ctx context.Context, branch string) error

	// CreateBranch creates and checks out a branch at startPoint (HEAD when empty).
	CreateBranch(ctx context.Context, name, startPoint string) error

	// DeleteBranch deletes a local branch.
	DeleteBranch(ctx context.Context, name string, force bool) error

	// RefExists reports whether ref resolves to an object.
	RefExists(ctx context.Context, ref string) bool

	// Remotes lists the configured remote names.
	Remotes(ctx context.Context) ([]string, error)

	// RemoteURL returns the fetch URL of a remote.
	RemoteURL(ctx context.Context, remote string) (string, error)

	// Fetch fetches from a remote, optionally limited to one branch.
	Fetch(ctx context.Context, remote, branch string) error

	// Pull pulls a remote branch into the current branch.
	Pull(ctx context.Context, remote, branch string) error

	// Push pushes a branch to a remote.
	Push(ctx context.Context, remote, branch string, setUpstream bool) error

	// DeleteRemoteBranch deletes a branch on a remote.
	DeleteRemoteBranch(ctx context.Context, remote, branch string) error

	// Stash moves all local changes, untracked files included, into a new stash entry.
	Stash(ctx context.Context, message string) error

	// StashPop applies and drops the newest stash entry.
	StashPop(ctx context.Context) error

	// AbortStashPop discards a conflicted pop, leaving the stash entry in place.
	AbortStashPop(ctx context.Context) error

	// AddAll stages all changes for commit.
	AddAll(ctx context.Context) error

	// CommitAll commits all staged changes with the given message.
	CommitAll(ctx context.Context, message string) (hash string, err error)

	// Log returns the commits reachable from head but not from base.
	Log(ctx context.Context, base, head string) ([]Commit, error)

	// ShortStat returns change counts between the merge base of base and head, and head.
	ShortStat(ctx context.Context, base, head string) (DiffStat, error)
}

// New creates a new Repo instance for the given path.
func New(path string) Repo {
	return &gitRepo{path: path}
}

// Path returns the repository path.
func (r *gitRepo) Path() string {
	return r.path
}

// runGit executes a git command with the given arguments.
func (r *gitRepo) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path

	output, err := cmd.CombinedOutput()
	if err != nil {
		op := ""
		if len(args) > 0 {
			op = args[0]
		}
		return string(output), &glerrors.GitError{
			Op:  op,
			Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output))),
			Cmd: "git " + strings.Join(args, " "),
		}
	}

	return string(output), nil
}

// runGitOutput runs git and returns stdout only, so warnings on stderr do not
// leak into parsed output.
func (r *gitRepo) runGitOutput(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path

	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return "", &glerrors.GitError{
			Op:  args[0],
			Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())),
			Cmd: "git " + strings.Join(args, " "),
		}
	}
	return string(output), nil
}

// CurrentBranch returns the current branch name.
func (r *gitRepo) CurrentBranch(ctx context.Context) (string, error) {
	output, err := r.runGitOutput(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// HeadCommit returns the full hash of HEAD.
func (r *gitRepo) HeadCommit(ctx context.Context) (string, error) {
	output, err := r.runGitOutput(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// AddAll stages all changes for commit.
func (r *gitRepo) AddAll(ctx context.Context) error {
	_, err := r.runGit(ctx, "add", "-A")
	return err
}

// CommitAll commits all staged changes.
func (r *gitRepo) CommitAll(ctx context.Context, message string) (string, error) {
	if _, err := r.runGit(ctx, "commit", "-m", message); err != nil {
		return "", err
	}

	return r.HeadCommit(ctx)
}
