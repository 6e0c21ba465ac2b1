package app

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	glerrors "github.com/chazuruo/glflow/internal/errors"
	"github.com/chazuruo/glflow/internal/lock"
	"github.com/chazuruo/glflow/internal/testutil"
)

func TestBranch_CreatesFromRemoteBaseAndPushes(t *testing.T) {
	work, remote := testutil.InitRepo(t)
	env, _ := testEnv(t, work, "")

	out, err := Branch(context.Background(), env, BranchOptions{Name: "vtm-1/7-add-logout", Push: true})
	require.NoError(t, err)

	assert.Equal(t, &BranchOutput{Branch: "vtm-1/7-add-logout", Base: "origin/main", Remote: "origin", Pushed: true}, out)
	assert.Equal(t, "vtm-1/7-add-logout", testutil.Git(t, work, "rev-parse", "--abbrev-ref", "HEAD"))
	assert.Equal(t, testutil.Git(t, work, "rev-parse", "origin/main"), testutil.Git(t, work, "rev-parse", "HEAD"))
	assert.Contains(t, testutil.RemoteBranches(t, remote), "vtm-1/7-add-logout")
}

func TestBranch_WithoutPushStaysLocal(t *testing.T) {
	work, remote := testutil.InitRepo(t)
	env, _ := testEnv(t, work, "")

	out, err := Branch(context.Background(), env, BranchOptions{Name: "vtm-1/8"})
	require.NoError(t, err)

	assert.False(t, out.Pushed)
	assert.NotContains(t, testutil.RemoteBranches(t, remote), "vtm-1/8")
}

func TestBranch_Refusals(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, work string)
		opts    BranchOptions
		check   func(error) bool
		wantErr string
	}{
		{
			name:    "invalid name",
			opts:    BranchOptions{Name: "feature-x"},
			check:   glerrors.IsPrecondition,
			wantErr: "{issue-code}/{issue-id}",
		},
		{
			name: "dirty tree",
			setup: func(t *testing.T, work string) {
				testutil.WriteFile(t, work, "README.md", "changed\n")
			},
			opts:    BranchOptions{Name: "vtm-1/7"},
			check:   glerrors.IsPrecondition,
			wantErr: "README.md",
		},
		{
			name: "existing branch",
			setup: func(t *testing.T, work string) {
				testutil.Git(t, work, "branch", "vtm-1/7")
			},
			opts:  BranchOptions{Name: "vtm-1/7"},
			check: glerrors.IsAlreadyExists,
		},
		{
			name:    "missing base",
			opts:    BranchOptions{Name: "vtm-1/7", Base: "origin/develop"},
			check:   func(err error) bool { return err != nil },
			wantErr: "develop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work, _ := testutil.InitRepo(t)
			if tt.setup != nil {
				tt.setup(t, work)
			}
			env, _ := testEnv(t, work, "")

			_, err := Branch(context.Background(), env, tt.opts)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
			assert.Equal(t, "main", testutil.Git(t, work, "rev-parse", "--abbrev-ref", "HEAD"))
		})
	}
}

func TestBranch_CommitsLocalChangesFirst(t *testing.T) {
	work, _ := testutil.InitRepo(t)
	testutil.Git(t, work, "checkout", "-b", "feature/wip")
	testutil.WriteFile(t, work, "README.md", "# test\n\nwork in progress\n")
	testutil.WriteFile(t, work, "notes/todo.txt", "untracked\n")
	env, _ := testEnv(t, work, "")

	out, err := Branch(context.Background(), env, BranchOptions{Name: "vtm-1/7", CommitMessage: "wip: save notes"})
	require.NoError(t, err)

	assert.Equal(t, testutil.Git(t, work, "rev-parse", "feature/wip"), out.Committed)
	assert.Equal(t, "wip: save notes", testutil.Git(t, work, "log", "-1", "--format=%s", "feature/wip"))
	assert.Equal(t, "README.md\nnotes/todo.txt",
		testutil.Git(t, work, "diff-tree", "--no-commit-id", "--name-only", "-r", "feature/wip"))

	// The new branch starts from the base, not from the commit.
	assert.Equal(t, "vtm-1/7", testutil.Git(t, work, "rev-parse", "--abbrev-ref", "HEAD"))
	assert.Equal(t, testutil.Git(t, work, "rev-parse", "origin/main"), testutil.Git(t, work, "rev-parse", "HEAD"))
	assert.Empty(t, testutil.Git(t, work, "status", "--porcelain"))
}

func TestBranch_CommitMessageOnCleanTreeCommitsNothing(t *testing.T) {
	work, _ := testutil.InitRepo(t)
	head := testutil.Git(t, work, "rev-parse", "HEAD")
	env, _ := testEnv(t, work, "")

	out, err := Branch(context.Background(), env, BranchOptions{Name: "vtm-1/7", CommitMessage: "wip"})
	require.NoError(t, err)

	assert.Empty(t, out.Committed)
	assert.Equal(t, head, testutil.Git(t, work, "rev-parse", "main"))
}

func TestDirtyTreeError_ListsAtMostTen(t *testing.T) {
	files := make([]string, 12)
	for i := range files {
		files[i] = fmt.Sprintf("file%02d.txt", i)
	}

	err := dirtyTreeError(files)
	assert.True(t, glerrors.IsPrecondition(err))
	assert.Contains(t, err.Error(), "file09.txt")
	assert.NotContains(t, err.Error(), "file10.txt")
	assert.Contains(t, err.Error(), "... and 2 more")
}

func TestPush_DefaultsToCurrentBranch(t *testing.T) {
	work, remote := testutil.InitRepo(t)
	testutil.Git(t, work, "checkout", "-b", "vtm-1/9-docs")
	env, _ := testEnv(t, work, "")

	out, err := Push(context.Background(), env, PushOptions{})
	require.NoError(t, err)

	assert.Equal(t, &PushOutput{Branch: "vtm-1/9-docs", Remote: "origin"}, out)
	assert.Contains(t, testutil.RemoteBranches(t, remote), "vtm-1/9-docs")
}

func TestPush_RejectsInvalidCurrentBranch(t *testing.T) {
	work, _ := testutil.InitRepo(t)
	env, _ := testEnv(t, work, "")

	_, err := Push(context.Background(), env, PushOptions{})
	require.Error(t, err)
	assert.True(t, glerrors.IsPrecondition(err))
}

func TestPush_RefusedWhileAnotherCommandRuns(t *testing.T) {
	work, remote := testutil.InitRepo(t)
	testutil.Git(t, work, "checkout", "-b", "vtm-1/9-docs")
	env, _ := testEnv(t, work, "")

	held, err := lock.Acquire(filepath.Join(work, ".git"))
	require.NoError(t, err)

	_, err = Push(context.Background(), env, PushOptions{})
	require.Error(t, err)
	assert.True(t, glerrors.IsPrecondition(err))
	assert.Contains(t, err.Error(), "another glflow command is running")
	assert.NotContains(t, testutil.RemoteBranches(t, remote), "vtm-1/9-docs")

	require.NoError(t, held.Release())
	_, err = Push(context.Background(), env, PushOptions{})
	require.NoError(t, err)
	assert.Contains(t, testutil.RemoteBranches(t, remote), "vtm-1/9-docs")
}

func TestOpen_OutsideRepository(t *testing.T) {
	env, _ := testEnv(t, t.TempDir(), "")

	_, err := Push(context.Background(), env, PushOptions{Branch: "vtm-1/1"})
	require.Error(t, err)
	assert.True(t, glerrors.IsPrecondition(err))
	assert.Contains(t, err.Error(), "not in a git repository")
}
