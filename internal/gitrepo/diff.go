package gitrepo

import (
	"context"
	"regexp"
	"strconv"
)

var (
	filesChangedRegex = regexp.MustCompile(`(\d+) files? changed`)
	insertionsRegex   = regexp.MustCompile(`(\d+) insertions?\(\+\)`)
	deletionsRegex    = regexp.MustCompile(`(\d+) deletions?\(-\)`)
)

// DiffStat holds the counts reported by git diff --shortstat.
type DiffStat struct {
	Files      int `json:"files"`
	Insertions int `json:"insertions"`
	Deletions  int `json:"deletions"`
}

// ShortStat returns change counts for base...head.
func (r *gitRepo) ShortStat(ctx context.Context, base, head string) (DiffStat, error) {
	output, err := r.runGitOutput(ctx, "diff", "--shortstat", base+"..."+head)
	if err != nil {
		return DiffStat{}, err
	}
	return ParseShortStat(output), nil
}

// ParseShortStat extracts file, insertion, and deletion counts from
// --shortstat output. Counts that are absent are zero.
func ParseShortStat(output string) DiffStat {
	return DiffStat{
		Files:      firstInt(filesChangedRegex, output),
		Insertions: firstInt(insertionsRegex, output),
		Deletions:  firstInt(deletionsRegex, output),
	}
}

func firstInt(re *regexp.Regexp, s string) int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
