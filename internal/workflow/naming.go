package workflow

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	glerrors "github.com/chazuruo/glflow/internal/errors"
)

// MaxSlugLength bounds the title part of a branch name.
const MaxSlugLength = 50

var (
	// slugDropRegex matches characters removed from a slug.
	slugDropRegex = regexp.MustCompile(`[^a-z0-9\s\p{Zs}-]`)
	// whitespaceRegex matches runs of whitespace, Unicode spaces included
	whitespaceRegex = regexp.MustCompile(`[\s\p{Zs}]+`)
	// multiHyphenRegex matches multiple consecutive hyphens
	multiHyphenRegex = regexp.MustCompile(`-+`)

	branchNameRegex = regexp.MustCompile(`^.+/\d+.*$`)
	issueIDRegex    = regexp.MustCompile(`/(\d+)`)

	// refForbiddenRegex matches what git check-ref-format never accepts.
	refForbiddenRegex = regexp.MustCompile(`[\x00-\x20\x7f~^:?*\[\\]|\.\.|@\{|//`)
)

// Sanitize converts a title into a branch slug of at most maxLen characters
// drawn from [a-z0-9-]. A maxLen outside 1..MaxSlugLength means
// MaxSlugLength.
//
// Examples:
//
//	"Add logout"            -> "add-logout"
//	"Fix: Bug #123!"        -> "fix-bug-123"
//	"Résumé upload"         -> "resume-upload"
//	"로그아웃 추가"            -> ""
func Sanitize(title string, maxLen int) string {
	if maxLen <= 0 || maxLen > MaxSlugLength {
		maxLen = MaxSlugLength
	}

	// Fold accents so "é" survives as "e" instead of being dropped.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(fold, title)
	if err != nil {
		result = title
	}

	result = cases.Lower(language.Und).String(strings.TrimSpace(result))
	result = slugDropRegex.ReplaceAllString(result, "")
	result = whitespaceRegex.ReplaceAllString(strings.TrimSpace(result), "-")
	result = multiHyphenRegex.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > maxLen {
		result = strings.TrimRight(result[:maxLen], "-")
	}
	return result
}

// BranchName derives the branch for an issue: "{code}/{iid}-{slug}" with the
// code lowercased, or "{code}/{iid}" when the title yields no slug.
func BranchName(issueCode string, iid int, title string, maxSlug int) string {
	name := strings.ToLower(strings.TrimSpace(issueCode)) + "/" + strconv.Itoa(iid)
	if slug := Sanitize(title, maxSlug); slug != "" {
		name += "-" + slug
	}
	return name
}

// ValidBranchName reports whether name has the form
// {prefix}/{digits}[suffix] and is a legal git branch name.
func ValidBranchName(name string) bool {
	return branchNameRegex.MatchString(name) && validRefName(name)
}

func validRefName(name string) bool {
	if name == "" || name == "@" || refForbiddenRegex.MatchString(name) {
		return false
	}
	if strings.HasPrefix(name, "-") || strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".") {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".lock") {
			return false
		}
	}
	return true
}

// ValidateIssueCode checks that code can prefix a branch name. It is the
// only part of a derived name that is not sanitized.
func ValidateIssueCode(code string) error {
	name := BranchName(code, 1, "", MaxSlugLength)
	if ValidBranchName(name) {
		return nil
	}
	return glerrors.Precondition(
		"invalid issue code %q: %q is not a valid branch name; use letters, digits, and hyphens, e.g. VTM-1372",
		code, name,
	)
}

// ValidateBranchName returns a precondition error describing the required
// format when name is not valid.
func ValidateBranchName(name string) error {
	if ValidBranchName(name) {
		return nil
	}
	return glerrors.Precondition(
		"invalid branch name %q: expected {issue-code}/{issue-id}[-summary], e.g. VTM-1372/342-add-feature or 1372/305",
		name,
	)
}

// IssueIDFromBranch extracts the issue IID following the first slash.
func IssueIDFromBranch(name string) (int, bool) {
	m := issueIDRegex.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	iid, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return iid, true
}
