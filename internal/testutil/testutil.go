// Package testutil provides helper functions for testing.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TempDir creates a temporary directory and registers a cleanup function.
// The directory is automatically deleted when the test completes.
func TempDir(t *testing.T) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "glflow-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	t.Cleanup(func() {
		if err := os.RemoveAll(dir); err != nil {
			t.Errorf("failed to cleanup temp dir %s: %v", dir, err)
		}
	})

	return dir
}

// Git runs git in dir and returns its trimmed stdout. The test fails if
// git exits non-zero.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// WriteRequest writes an issue request file and returns its path.
func WriteRequest(t *testing.T, name, content string) string {
	t.Helper()
	return WriteFile(t, TempDir(t), name, content)
}

// InitRepo creates a working copy on branch main with one commit and a
// bare remote named origin that already has main pushed. It returns the
// working-copy and remote paths.
func InitRepo(t *testing.T) (work, remote string) {
	t.Helper()

	root := TempDir(t)
	remote = filepath.Join(root, "remote.git")
	work = filepath.Join(root, "work")

	Git(t, root, "init", "--bare", "--initial-branch=main", remote)
	Git(t, root, "init", "--initial-branch=main", work)
	ConfigureUser(t, work)

	WriteFile(t, work, "README.md", "# test\n")
	WriteFile(t, work, "src/app.go", "package src\n")
	Git(t, work, "add", "-A")
	Git(t, work, "commit", "-m", "chore: initial commit")
	Git(t, work, "remote", "add", "origin", remote)
	Git(t, work, "push", "-u", "origin", "main")

	return work, remote
}

// ConfigureUser sets a local author identity and disables signing.
func ConfigureUser(t *testing.T, dir string) {
	t.Helper()

	Git(t, dir, "config", "user.email", "test@example.com")
	Git(t, dir, "config", "user.name", "Test User")
	Git(t, dir, "config", "commit.gpgsign", "false")
	Git(t, dir, "config", "pull.rebase", "false")
}

// RemoteBranches lists branch names on a bare remote.
func RemoteBranches(t *testing.T, remote string) []string {
	t.Helper()

	out := Git(t, remote, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}
