package gitrepo

import (
	"context"
	"strconv"
	"strings"
)

// Status represents the status of a Git working copy.
type Status struct {
	// Branch is the current branch name.
	Branch string
	// Dirty is true if there are uncommitted changes or untracked files.
	Dirty bool
	// Ahead is the number of commits ahead of upstream.
	Ahead int
	// Behind is the number of commits behind upstream.
	Behind int
	// Entries contains detailed status entries for each changed file.
	Entries []StatusEntry
}

// StatusEntry represents a single file's status.
type StatusEntry struct {
	// Path is the file path relative to the repository root.
	Path string
	// X is the index status character (see git status --porcelain documentation).
	X byte
	// Y is the working-tree status character.
	Y byte
}

// Untracked reports whether the entry is an untracked file.
func (e StatusEntry) Untracked() bool {
	return e.X == '?' && e.Y == '?'
}

// Files returns the paths of all entries in status order.
func (s Status) Files() []string {
	files := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		files = append(files, e.Path)
	}
	return files
}

// Status returns the current status of the repository.
func (r *gitRepo) Status(ctx context.Context) (Status, error) {
	output, err := r.runGitOutput(ctx, "status", "--porcelain=v1", "--branch", "--untracked-files=all", "-z")
	if err != nil {
		return Status{}, err
	}
	return parseStatus(output), nil
}

// DirtyFiles returns the paths of modified, staged, and untracked files.
func (r *gitRepo) DirtyFiles(ctx context.Context) ([]string, error) {
	status, err := r.Status(ctx)
	if err != nil {
		return nil, err
	}
	return status.Files(), nil
}

// parseStatus parses NUL-separated porcelain v1 output:
//
//	## <branch>[...<upstream>][ [ahead N, behind M]]
//	XY <path>
//	R  <new path> NUL <old path>
func parseStatus(output string) Status {
	var status Status

	records := strings.Split(output, "\x00")
	for i := 0; i < len(records); i++ {
		rec := records[i]
		if rec == "" {
			continue
		}

		if strings.HasPrefix(rec, "## ") {
			status.Branch, status.Ahead, status.Behind = parseBranchHeader(strings.TrimPrefix(rec, "## "))
			continue
		}
		if len(rec) < 4 {
			continue
		}

		entry := StatusEntry{X: rec[0], Y: rec[1], Path: rec[3:]}
		if entry.X == 'R' || entry.X == 'C' {
			// The source path follows as its own record.
			i++
		}
		status.Entries = append(status.Entries, entry)
		status.Dirty = true
	}

	return status
}

func parseBranchHeader(header string) (branch string, ahead, behind int) {
	if rest, ok := strings.CutPrefix(header, "No commits yet on "); ok {
		return strings.TrimSpace(rest), 0, 0
	}

	head, tracking, _ := strings.Cut(header, " [")
	branch, _, _ = strings.Cut(head, "...")

	tracking = strings.TrimSuffix(tracking, "]")
	for _, part := range strings.Split(tracking, ", ") {
		if n, ok := strings.CutPrefix(part, "ahead "); ok {
			ahead, _ = strconv.Atoi(n)
		} else if n, ok := strings.CutPrefix(part, "behind "); ok {
			behind, _ = strconv.Atoi(n)
		}
	}
	return branch, ahead, behind
}
