package workflow

import (
	"context"

	"github.com/chazuruo/glflow/internal/gitlab"
	"github.com/chazuruo/glflow/internal/metadata"
)

// VersionControl is the subset of working-copy operations the executor
// needs. gitrepo.Repo satisfies it.
type VersionControl interface {
	IsRepository(ctx context.Context) bool
	Remotes(ctx context.Context) ([]string, error)
	RefExists(ctx context.Context, ref string) bool
	DirtyFiles(ctx context.Context) ([]string, error)
	CurrentBranch(ctx context.Context) (string, error)
	HeadCommit(ctx context.Context) (string, error)
	Checkout(ctx context.Context, branch string) error
	Pull(ctx context.Context, remote, branch string) error
	CreateBranch(ctx context.Context, name, startPoint string) error
	DeleteBranch(ctx context.Context, name string, force bool) error
	Push(ctx context.Context, remote, branch string, setUpstream bool) error
	DeleteRemoteBranch(ctx context.Context, remote, branch string) error
	Stash(ctx context.Context, message string) error
	StashPop(ctx context.Context) error
	AbortStashPop(ctx context.Context) error
}

// IssueTracker creates and updates issues. *gitlab.Client satisfies it.
type IssueTracker interface {
	CreateIssue(ctx context.Context, title, description string, labels []string) (*gitlab.Issue, error)
	UpdateIssue(ctx context.Context, iid int, update gitlab.IssueUpdate) (*gitlab.Issue, error)
}

// MetadataStore persists the branch record. *metadata.FileStore satisfies it.
type MetadataStore interface {
	Save(ctx context.Context, rec metadata.Record) (string, error)
}

// Narrator reports progress to the user. *ui.Narrator satisfies it.
type Narrator interface {
	Phase(i, total int, title string)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Fail(format string, args ...any)
	Info(format string, args ...any)
	Banner(title string)
}

type nopNarrator struct{}

func (nopNarrator) Phase(int, int, string) {}
func (nopNarrator) Success(string, ...any) {}
func (nopNarrator) Warn(string, ...any)    {}
func (nopNarrator) Fail(string, ...any)    {}
func (nopNarrator) Info(string, ...any)    {}
func (nopNarrator) Banner(string)          {}
