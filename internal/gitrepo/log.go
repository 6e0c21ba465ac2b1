package gitrepo

import (
	"context"
	"strings"
)

// commitSentinel separates commits in Log output.
const commitSentinel = "---COMMIT---"

// logFormat prints one field per line: hash, subject, body (any number of
// lines), author name, author email, author date.
const logFormat = "%H%n%s%n%b%n%an%n%ae%n%ad%n" + commitSentinel

// Commit is a single commit as reported by Log.
type Commit struct {
	Hash    string
	Subject string
	Body    string
	Author  string
	Email   string
	Date    string
}

// ShortHash returns the first eight characters of the hash.
func (c Commit) ShortHash() string {
	if len(c.Hash) > 8 {
		return c.Hash[:8]
	}
	return c.Hash
}

// Log returns the commits in base..head, newest first.
func (r *gitRepo) Log(ctx context.Context, base, head string) ([]Commit, error) {
	output, err := r.runGitOutput(ctx, "log", base+".."+head, "--format="+logFormat)
	if err != nil {
		return nil, err
	}
	return parseLog(output), nil
}

// parseLog splits Log output on the sentinel. Chunks with fewer than six
// lines are skipped.
func parseLog(output string) []Commit {
	var commits []Commit
	for _, chunk := range strings.Split(strings.TrimSpace(output), commitSentinel) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		lines := strings.Split(chunk, "\n")
		if len(lines) < 6 {
			continue
		}

		n := len(lines)
		commits = append(commits, Commit{
			Hash:    lines[0],
			Subject: lines[1],
			Body:    strings.TrimSpace(strings.Join(lines[2:n-3], "\n")),
			Author:  lines[n-3],
			Email:   lines[n-2],
			Date:    lines[n-1],
		})
	}
	return commits
}
