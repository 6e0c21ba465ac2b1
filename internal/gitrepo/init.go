package gitrepo

import (
	"context"
	"path/filepath"
	"strings"
)

// IsRepository returns true if the path is inside a Git working copy.
func (r *gitRepo) IsRepository(ctx context.Context) bool {
	_, err := r.runGitOutput(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// GitDir returns the absolute path of the repository's .git directory.
func (r *gitRepo) GitDir(ctx context.Context) (string, error) {
	output, err := r.runGitOutput(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return "", err
	}
	dir := strings.TrimSpace(output)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.path, dir)
	}
	return dir, nil
}

// TopLevel returns the absolute path of the working-copy root.
func (r *gitRepo) TopLevel(ctx context.Context) (string, error) {
	output, err := r.runGitOutput(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}
