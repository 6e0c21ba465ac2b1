// Package summary renders the markdown bodies glflow writes to issues and
// merge requests.
//
// Three documents are produced from text/template sources:
//
//   - requirements-changes: the planned-changes list built from dirty files
//     at the start of a workflow
//   - requirements-commits: the requirements list built from branch commits
//   - merge-request: the merge request description
//
// Each built-in template can be replaced by a file of the same name with a
// .md extension in a repository's .glflow/templates directory.
package summary

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/chazuruo/glflow/internal/gitlab"
	"github.com/chazuruo/glflow/internal/gitrepo"
)

// Template names.
const (
	TemplateRequirementsChanges = "requirements-changes"
	TemplateRequirementsCommits = "requirements-commits"
	TemplateMergeRequest        = "merge-request"
)

// TemplateDir is the repo-relative directory searched for overrides.
var TemplateDir = filepath.Join(".glflow", "templates")

// conventionalTypes are the commit prefixes removed by StripCommitPrefix.
var conventionalTypes = map[string]bool{
	"feat":     true,
	"fix":      true,
	"refactor": true,
	"docs":     true,
	"style":    true,
	"test":     true,
	"chore":    true,
}

// StripCommitPrefix removes conventional commit prefixes such as "feat: "
// from a subject. Stacked prefixes are all removed, so the result is stable
// under repeated application.
func StripCommitPrefix(subject string) string {
	for {
		typ, rest, ok := strings.Cut(subject, ":")
		if !ok || !conventionalTypes[strings.TrimSpace(typ)] {
			return subject
		}
		subject = strings.TrimSpace(rest)
	}
}

// DirGroup is a directory and the base names of the files in it.
type DirGroup struct {
	Dir   string
	Files []string
}

// GroupByDirectory groups slash-separated paths by parent directory. Files in
// the repository root are grouped under ".". Groups and the files inside them
// are sorted.
func GroupByDirectory(files []string) []DirGroup {
	byDir := make(map[string][]string)
	for _, f := range files {
		f = filepath.ToSlash(f)
		dir := path.Dir(f)
		byDir[dir] = append(byDir[dir], path.Base(f))
	}

	groups := make([]DirGroup, 0, len(byDir))
	for dir, names := range byDir {
		sort.Strings(names)
		groups = append(groups, DirGroup{Dir: dir, Files: names})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Dir < groups[j].Dir })
	return groups
}

// ChangesData feeds the requirements-changes template.
type ChangesData struct {
	Title       string
	Description string
	FileCount   int
	Groups      []DirGroup
}

// CommitsData feeds the requirements-commits template.
type CommitsData struct {
	Branch  string
	Commits []gitrepo.Commit
}

// MergeRequestData feeds the merge-request template. Issue is optional.
// Commits are newest first, as returned by gitrepo.Repo.Log.
type MergeRequestData struct {
	Issue   *gitlab.Issue
	Commits []gitrepo.Commit
	Stat    gitrepo.DiffStat
}

// Renderer executes the summary templates.
type Renderer struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"strip": StripCommitPrefix,
	"inc":   func(i int) int { return i + 1 },
	"join":  strings.Join,
}

// NewRenderer returns a Renderer using the built-in templates, replaced by
// any overrides found in repoRoot's template directory. An empty repoRoot
// uses the built-ins only.
func NewRenderer(repoRoot string) (*Renderer, error) {
	tmpl := template.Must(template.New("summary").Funcs(funcs).Parse(builtinTemplates))
	if repoRoot == "" {
		return &Renderer{tmpl: tmpl}, nil
	}

	for _, name := range []string{TemplateRequirementsChanges, TemplateRequirementsCommits, TemplateMergeRequest} {
		file := filepath.Join(repoRoot, TemplateDir, name+".md")
		data, err := os.ReadFile(file)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading template file: %w", err)
		}
		if _, err := tmpl.New(name).Parse(string(data)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", file, err)
		}
	}

	return &Renderer{tmpl: tmpl}, nil
}

var defaultRenderer, _ = NewRenderer("")

// Default returns the renderer with built-in templates only.
func Default() *Renderer {
	return defaultRenderer
}

// RequirementsFromChanges renders the planned-changes document for the files
// that were dirty when a workflow started.
func (r *Renderer) RequirementsFromChanges(title, description string, files []string) (string, error) {
	return r.execute(TemplateRequirementsChanges, ChangesData{
		Title:       title,
		Description: strings.TrimSpace(description),
		FileCount:   len(files),
		Groups:      GroupByDirectory(files),
	})
}

// RequirementsFromCommits renders the requirements document for a branch.
func (r *Renderer) RequirementsFromCommits(branch string, commits []gitrepo.Commit) (string, error) {
	return r.execute(TemplateRequirementsCommits, CommitsData{Branch: branch, Commits: commits})
}

// MergeRequestDescription renders a merge request description.
func (r *Renderer) MergeRequestDescription(data MergeRequestData) (string, error) {
	return r.execute(TemplateMergeRequest, data)
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// WithClosingReference appends a "Closes #iid" line so GitLab closes the
// issue when the merge request is merged.
func WithClosingReference(description string, iid int) string {
	description = strings.TrimRight(description, "\n ")
	if description == "" {
		return fmt.Sprintf("Closes #%d", iid)
	}
	return fmt.Sprintf("%s\n\nCloses #%d", description, iid)
}
