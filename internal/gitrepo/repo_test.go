package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	glerrors "github.com/chazuruo/glflow/internal/errors"
	"github.com/chazuruo/glflow/internal/testutil"
)

func TestNew(t *testing.T) {
	path := "/test/path"
	repo := New(path)

	if repo == nil {
		t.Fatal("New() returned nil")
	}

	if repo.Path() != path {
		t.Errorf("Path() = %s, want %s", repo.Path(), path)
	}
}

func TestGitRepo_IsRepository(t *testing.T) {
	tmpDir := t.TempDir()
	repo := New(tmpDir)
	ctx := context.Background()

	if repo.IsRepository(ctx) {
		t.Fatal("IsRepository() = true before git init")
	}

	testutil.Git(t, tmpDir, "init", "--initial-branch=main")

	if !repo.IsRepository(ctx) {
		t.Error("IsRepository() = false after git init")
	}

	got, err := repo.GitDir(ctx)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "GitDir() should be absolute, got %s", got)
	assert.Equal(t, filepath.Join(tmpDir, ".git"), got)
}

func TestGitRepo_BranchLifecycle(t *testing.T) {
	work, remote := testutil.InitRepo(t)
	repo := New(work)
	ctx := context.Background()

	branch, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	require.NoError(t, repo.CreateBranch(ctx, "vtm-1/7-add-logout", "origin/main"))
	branch, err = repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "vtm-1/7-add-logout", branch)

	require.NoError(t, repo.Push(ctx, "origin", "vtm-1/7-add-logout", true))
	assert.Contains(t, testutil.RemoteBranches(t, remote), "vtm-1/7-add-logout")

	require.NoError(t, repo.DeleteRemoteBranch(ctx, "origin", "vtm-1/7-add-logout"))
	assert.NotContains(t, testutil.RemoteBranches(t, remote), "vtm-1/7-add-logout")

	require.NoError(t, repo.Checkout(ctx, "main"))
	require.NoError(t, repo.DeleteBranch(ctx, "vtm-1/7-add-logout", true))
	assert.False(t, repo.RefExists(ctx, "refs/heads/vtm-1/7-add-logout"))
}

func TestGitRepo_RefExists(t *testing.T) {
	work, _ := testutil.InitRepo(t)
	repo := New(work)
	ctx := context.Background()

	assert.True(t, repo.RefExists(ctx, "origin/main"))
	assert.False(t, repo.RefExists(ctx, "origin/develop"))
}

func TestGitRepo_Remotes(t *testing.T) {
	work, remote := testutil.InitRepo(t)
	repo := New(work)
	ctx := context.Background()

	testutil.Git(t, work, "remote", "add", "gitlab", remote)

	remotes, err := repo.Remotes(ctx)
	require.NoError(t, err)
	sort.Strings(remotes)
	assert.Equal(t, []string{"gitlab", "origin"}, remotes)

	url, err := repo.RemoteURL(ctx, "origin")
	require.NoError(t, err)
	assert.Equal(t, remote, url)

	_, err = repo.RemoteURL(ctx, "missing")
	assert.True(t, glerrors.IsGit(err), "RemoteURL(missing) error = %v, want git error", err)
}

func TestGitRepo_StashRoundTrip(t *testing.T) {
	work, _ := testutil.InitRepo(t)
	repo := New(work)
	ctx := context.Background()

	testutil.WriteFile(t, work, "README.md", "# changed\n")
	testutil.WriteFile(t, work, "notes/todo.txt", "new file\n")

	before, err := repo.DirtyFiles(ctx)
	require.NoError(t, err)
	sort.Strings(before)
	assert.Equal(t, []string{"README.md", "notes/todo.txt"}, before)

	require.NoError(t, repo.Stash(ctx, "test stash"))

	status, err := repo.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Dirty, "working copy should be clean after stash, got %v", status.Files())

	require.NoError(t, repo.StashPop(ctx))

	after, err := repo.DirtyFiles(ctx)
	require.NoError(t, err)
	sort.Strings(after)
	assert.Equal(t, before, after)
}

func TestGitRepo_AbortStashPopAfterConflict(t *testing.T) {
	work, _ := testutil.InitRepo(t)
	repo := New(work)
	ctx := context.Background()

	testutil.WriteFile(t, work, "README.md", "# local\n")
	testutil.WriteFile(t, work, "notes/todo.txt", "new file\n")
	require.NoError(t, repo.Stash(ctx, "local work"))

	testutil.WriteFile(t, work, "README.md", "# committed\n")
	testutil.Git(t, work, "commit", "-am", "docs: conflicting change")

	err := repo.StashPop(ctx)
	require.Error(t, err)
	assert.True(t, glerrors.IsGit(err))

	require.NoError(t, repo.AbortStashPop(ctx))

	status, err := repo.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Dirty, "working copy should be clean, got %v", status.Files())
	assert.Equal(t, "stash@{0}: On main: local work", testutil.Git(t, work, "stash", "list"))

	// The kept entry still applies once the conflict is gone.
	testutil.Git(t, work, "reset", "--hard", "HEAD~1")
	require.NoError(t, repo.StashPop(ctx))
	data, err := os.ReadFile(filepath.Join(work, "notes", "todo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new file\n", string(data))
}

func TestGitRepo_PullFastForward(t *testing.T) {
	work, remote := testutil.InitRepo(t)
	ctx := context.Background()

	other := filepath.Join(t.TempDir(), "other")
	testutil.Git(t, filepath.Dir(other), "clone", remote, other)
	testutil.ConfigureUser(t, other)
	testutil.WriteFile(t, other, "CHANGELOG.md", "v2\n")
	testutil.Git(t, other, "add", "-A")
	testutil.Git(t, other, "commit", "-m", "docs: changelog")
	testutil.Git(t, other, "push", "origin", "main")

	repo := New(work)
	require.NoError(t, repo.Pull(ctx, "origin", "main"))

	_, err := os.Stat(filepath.Join(work, "CHANGELOG.md"))
	assert.NoError(t, err, "pulled file should exist")
}

func TestGitRepo_LogAndShortStat(t *testing.T) {
	work, _ := testutil.InitRepo(t)
	repo := New(work)
	ctx := context.Background()

	require.NoError(t, repo.CreateBranch(ctx, "vtm-2/9-search", ""))

	testutil.WriteFile(t, work, "search/index.go", "package search\n\nfunc Index() {}\n")
	require.NoError(t, repo.AddAll(ctx))
	_, err := repo.CommitAll(ctx, "feat: add search index\n\nBuilds the inverted index.")
	require.NoError(t, err)

	testutil.WriteFile(t, work, "README.md", "# search\n")
	require.NoError(t, repo.AddAll(ctx))
	hash, err := repo.CommitAll(ctx, "docs: describe search")
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	commits, err := repo.Log(ctx, "origin/main", "vtm-2/9-search")
	require.NoError(t, err)
	require.Len(t, commits, 2)

	assert.Equal(t, "docs: describe search", commits[0].Subject)
	assert.Equal(t, hash, commits[0].Hash)
	assert.Equal(t, "feat: add search index", commits[1].Subject)
	assert.Equal(t, "Builds the inverted index.", commits[1].Body)
	assert.Equal(t, "Test User", commits[1].Author)
	assert.Equal(t, "test@example.com", commits[1].Email)

	stat, err := repo.ShortStat(ctx, "origin/main", "vtm-2/9-search")
	require.NoError(t, err)
	assert.Equal(t, 2, stat.Files)
	assert.Equal(t, 4, stat.Insertions)
	assert.Equal(t, 1, stat.Deletions)
}

func TestResolveRemote(t *testing.T) {
	tests := []struct {
		name     string
		remotes  []string
		override string
		want     string
		wantOK   bool
	}{
		{"prefers origin", []string{"gitlab", "origin"}, "", "origin", true},
		{"falls back to first", []string{"gitlab", "upstream"}, "", "gitlab", true},
		{"override wins", []string{"gitlab", "origin"}, "gitlab", "gitlab", true},
		{"unknown override", []string{"origin"}, "gitlab", "", false},
		{"no remotes", nil, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveRemote(tt.remotes, tt.override)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ResolveRemote() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSplitBaseRef(t *testing.T) {
	remotes := []string{"origin", "gitlab"}

	tests := []struct {
		ref        string
		wantRemote string
		wantBranch string
	}{
		{"main", "origin", "main"},
		{"gitlab/develop", "gitlab", "develop"},
		{"origin/release/1.0", "origin", "release/1.0"},
		{"feature/x", "origin", "feature/x"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			remote, branch := SplitBaseRef(tt.ref, remotes, "origin")
			if remote != tt.wantRemote || branch != tt.wantBranch {
				t.Errorf("SplitBaseRef(%q) = %q, %q; want %q, %q", tt.ref, remote, branch, tt.wantRemote, tt.wantBranch)
			}
		})
	}
}
