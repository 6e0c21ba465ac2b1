package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazuruo/glflow/internal/gitrepo"
)

// Check statuses.
const (
	CheckOK   = "ok"
	CheckWarn = "warn"
	CheckFail = "fail"
	CheckSkip = "skip"
)

// DoctorCheck is the outcome of one environment check.
type DoctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// DoctorOutput lists every check in the order it ran.
type DoctorOutput struct {
	Checks  []DoctorCheck `json:"checks"`
	Healthy bool          `json:"healthy"`
}

// Doctor checks configuration, the working copy, and GitLab access. It
// works outside a repository; the repository checks then fail or skip.
// Only failures make the output unhealthy.
func Doctor(ctx context.Context, env Environment) (*DoctorOutput, error) {
	dir := env.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}

	repo := gitrepo.New(dir)
	isRepo := repo.IsRepository(ctx)
	var root string
	if isRepo {
		var err error
		if root, err = repo.TopLevel(ctx); err != nil {
			return nil, err
		}
		repo = gitrepo.New(root)
	}

	s, err := newSession(ctx, env, root, validateNone)
	if err != nil {
		return nil, err
	}
	defer s.close()
	s.repo = repo
	s.root = root

	out := &DoctorOutput{}
	add := func(name, status, format string, args ...any) {
		out.Checks = append(out.Checks, DoctorCheck{Name: name, Status: status, Detail: fmt.Sprintf(format, args...)})
	}

	if missing := s.cfg.MissingGitLab(); len(missing) > 0 {
		add("config", CheckFail, "missing %s", strings.Join(missing, ", "))
	} else if err := s.cfg.Validate(); err != nil {
		add("config", CheckFail, "%v", err)
	} else {
		add("config", CheckOK, "%s", configSources(s.cfg.Sources))
	}

	if isRepo {
		add("git repository", CheckOK, "%s", root)
	} else {
		add("git repository", CheckFail, "not in a git repository")
	}

	if !isRepo {
		add("git remote", CheckSkip, "no repository")
	} else if remote, _, err := s.remote(ctx); err != nil {
		add("git remote", CheckFail, "%v", err)
	} else if url, err := repo.RemoteURL(ctx, remote); err != nil {
		add("git remote", CheckFail, "%s: %v", remote, err)
	} else {
		add("git remote", CheckOK, "%s: %s", remote, url)
	}

	apiOK := false
	if s.client == nil {
		add("gitlab api", CheckSkip, "GitLab is not configured")
	} else if project, err := s.client.GetProject(ctx); err != nil {
		add("gitlab api", CheckFail, "%v", err)
	} else {
		apiOK = true
		add("gitlab api", CheckOK, "%s (%s)", project.NameWithNamespace, project.WebURL)
	}

	if !apiOK {
		add("token permissions", CheckSkip, "API not connected")
	} else if _, err := s.client.ListIssues(ctx, 1); err != nil {
		add("token permissions", CheckFail, "cannot read issues: %v (the token needs api scope)", err)
	} else if user, err := s.client.CurrentUser(ctx); err != nil {
		add("token permissions", CheckFail, "cannot read user: %v", err)
	} else {
		add("token permissions", CheckOK, "can read issues as @%s", user.Username)
	}

	issueDir := s.cfg.Workflow.IssueDir
	if root != "" && !filepath.IsAbs(issueDir) {
		issueDir = filepath.Join(root, issueDir)
	}
	if info, err := os.Stat(issueDir); err == nil && info.IsDir() {
		add("issue directory", CheckOK, "%s", issueDir)
	} else {
		add("issue directory", CheckWarn, "%s not found; created on first save", issueDir)
	}

	if !isRepo {
		add("working tree", CheckSkip, "no repository")
	} else if dirty, err := repo.DirtyFiles(ctx); err != nil {
		add("working tree", CheckFail, "%v", err)
	} else if len(dirty) > 0 {
		add("working tree", CheckWarn, "%d changed file(s)", len(dirty))
	} else {
		add("working tree", CheckOK, "clean")
	}

	out.Healthy = true
	for _, c := range out.Checks {
		if c.Status == CheckFail {
			out.Healthy = false
		}
	}
	return out, nil
}

func configSources(sources []string) string {
	if len(sources) == 0 {
		return "environment"
	}
	return strings.Join(sources, ", ")
}

// Rows returns the checks as table rows.
func (o *DoctorOutput) Rows() [][]string {
	rows := make([][]string, 0, len(o.Checks))
	for _, c := range o.Checks {
		rows = append(rows, []string{statusIcon(c.Status), c.Name, c.Detail})
	}
	return rows
}

func statusIcon(status string) string {
	switch status {
	case CheckOK:
		return "✅"
	case CheckWarn:
		return "⚠️"
	case CheckFail:
		return "❌"
	default:
		return "⏭️"
	}
}
