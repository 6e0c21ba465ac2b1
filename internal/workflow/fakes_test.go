package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/chazuruo/glflow/internal/gitlab"
	"github.com/chazuruo/glflow/internal/metadata"
)

// fakeVCS simulates a working copy: branches, a dirty-file set, a stash
// stack, and a remote. failOnce errors fire on the next call to the named
// operation only; failAlways errors fire on every call. popConflicts makes
// that many pops stop on conflicts the way git does, keeping the entry and
// blocking checkout until AbortStashPop.
type fakeVCS struct {
	notRepo bool
	remotes []string
	refs    map[string]bool

	current        string
	head           string
	commits        map[string]bool
	branches       map[string]bool
	remoteBranches map[string]bool
	dirty          []string
	stashes        [][]string
	popConflicts   int
	conflicted     []string

	failOnce   map[string]error
	failAlways map[string]error
	hooks      map[string]func()
	calls      []string
}

func newFakeVCS() *fakeVCS {
	return &fakeVCS{
		remotes:        []string{"origin"},
		refs:           map[string]bool{"origin/main": true},
		current:        "feature/wip",
		branches:       map[string]bool{"main": true, "feature/wip": true},
		remoteBranches: map[string]bool{"main": true},
		failOnce:       map[string]error{},
		failAlways:     map[string]error{},
		hooks:          map[string]func(){},
	}
}

func (f *fakeVCS) call(op string, args ...any) error {
	f.calls = append(f.calls, fmt.Sprint(append([]any{op}, args...)...))
	if hook, ok := f.hooks[op]; ok {
		hook()
	}
	if err, ok := f.failOnce[op]; ok {
		delete(f.failOnce, op)
		return err
	}
	if err, ok := f.failAlways[op]; ok {
		return err
	}
	return nil
}

func (f *fakeVCS) IsRepository(context.Context) bool { return !f.notRepo }

func (f *fakeVCS) Remotes(context.Context) ([]string, error) {
	return f.remotes, f.call("remotes")
}

func (f *fakeVCS) RefExists(_ context.Context, ref string) bool { return f.refs[ref] }

func (f *fakeVCS) DirtyFiles(context.Context) ([]string, error) {
	if err := f.call("dirty_files"); err != nil {
		return nil, err
	}
	return slices.Clone(f.dirty), nil
}

func (f *fakeVCS) CurrentBranch(context.Context) (string, error) {
	if err := f.call("current_branch"); err != nil {
		return "", err
	}
	return f.current, nil
}

func (f *fakeVCS) Checkout(_ context.Context, branch string) error {
	if err := f.call("checkout", " ", branch); err != nil {
		return err
	}
	if len(f.conflicted) > 0 {
		return fmt.Errorf("%v: needs merge", f.conflicted)
	}
	if f.commits[branch] {
		f.current, f.head = "HEAD", branch
		return nil
	}
	if !f.branches[branch] {
		return fmt.Errorf("pathspec %q did not match", branch)
	}
	f.current = branch
	return nil
}

// HeadCommit names a branch tip "tip-{branch}"; a detached HEAD reports head.
func (f *fakeVCS) HeadCommit(context.Context) (string, error) {
	if err := f.call("head_commit"); err != nil {
		return "", err
	}
	if f.current == "HEAD" {
		return f.head, nil
	}
	return "tip-" + f.current, nil
}

func (f *fakeVCS) Pull(_ context.Context, remote, branch string) error {
	return f.call("pull", " ", remote, " ", branch)
}

func (f *fakeVCS) CreateBranch(_ context.Context, name, _ string) error {
	if err := f.call("create_branch", " ", name); err != nil {
		return err
	}
	if f.branches[name] {
		return fmt.Errorf("branch %q already exists", name)
	}
	f.branches[name] = true
	f.current = name
	return nil
}

func (f *fakeVCS) DeleteBranch(_ context.Context, name string, _ bool) error {
	if err := f.call("delete_branch", " ", name); err != nil {
		return err
	}
	if f.current == name {
		return fmt.Errorf("cannot delete checked-out branch %q", name)
	}
	delete(f.branches, name)
	return nil
}

func (f *fakeVCS) Push(_ context.Context, remote, branch string, _ bool) error {
	if err := f.call("push", " ", remote, " ", branch); err != nil {
		return err
	}
	f.remoteBranches[branch] = true
	return nil
}

func (f *fakeVCS) DeleteRemoteBranch(_ context.Context, remote, branch string) error {
	if err := f.call("delete_remote_branch", " ", remote, " ", branch); err != nil {
		return err
	}
	if !f.remoteBranches[branch] {
		return fmt.Errorf("remote ref %q does not exist", branch)
	}
	delete(f.remoteBranches, branch)
	return nil
}

// Stash behaves like git: a clean tree creates no entry.
func (f *fakeVCS) Stash(context.Context, string) error {
	if err := f.call("stash"); err != nil {
		return err
	}
	if len(f.dirty) == 0 {
		return nil
	}
	f.stashes = append(f.stashes, f.dirty)
	f.dirty = nil
	return nil
}

func (f *fakeVCS) StashPop(context.Context) error {
	if err := f.call("stash_pop"); err != nil {
		return err
	}
	if len(f.stashes) == 0 {
		return errors.New("no stash entries found")
	}
	n := len(f.stashes) - 1
	if f.popConflicts > 0 {
		f.popConflicts--
		f.conflicted = slices.Clone(f.stashes[n])
		return errors.New("CONFLICT (content): The stash entry is kept in case you need it again")
	}
	f.dirty = append(f.dirty, f.stashes[n]...)
	f.stashes = f.stashes[:n]
	return nil
}

func (f *fakeVCS) AbortStashPop(context.Context) error {
	if err := f.call("abort_stash_pop"); err != nil {
		return err
	}
	f.conflicted = nil
	return nil
}

type fakeTracker struct {
	nextIID   int
	createErr error
	updateErr error

	created []string
	updates map[int]gitlab.IssueUpdate
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{nextIID: 42, updates: map[int]gitlab.IssueUpdate{}}
}

func (f *fakeTracker) CreateIssue(_ context.Context, title, description string, labels []string) (*gitlab.Issue, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, title)
	return &gitlab.Issue{
		IID:         f.nextIID,
		Title:       title,
		Description: description,
		Labels:      labels,
		State:       "opened",
		WebURL:      fmt.Sprintf("https://gitlab.example.com/g/p/-/issues/%d", f.nextIID),
	}, nil
}

func (f *fakeTracker) UpdateIssue(_ context.Context, iid int, update gitlab.IssueUpdate) (*gitlab.Issue, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates[iid] = update
	return &gitlab.Issue{IID: iid, Description: update.Description}, nil
}

type fakeStore struct {
	err     error
	records []metadata.Record
}

func (f *fakeStore) Save(_ context.Context, rec metadata.Record) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.records = append(f.records, rec)
	return "docs/requirements/" + rec.Branch + "/issue.json", nil
}
