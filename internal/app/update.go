package app

import (
	"context"
	"strconv"

	glerrors "github.com/chazuruo/glflow/internal/errors"
	"github.com/chazuruo/glflow/internal/gitlab"
	"github.com/chazuruo/glflow/internal/metadata"
	"github.com/chazuruo/glflow/internal/summary"
	"github.com/chazuruo/glflow/internal/workflow"
)

// UpdateIssueOptions selects the issue to regenerate from branch history.
type UpdateIssueOptions struct {
	// IssueIID defaults to the iid in the branch name.
	IssueIID int

	// Branch defaults to the current branch.
	Branch string

	// Base defaults to the configured base branch.
	Base string

	// UpdateTitle replaces the issue title with the newest commit subject.
	UpdateTitle bool
}

// UpdateIssueOutput reports an updated issue.
type UpdateIssueOutput struct {
	IssueIID     int    `json:"issue_iid"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Branch       string `json:"branch"`
	Commits      int    `json:"commits"`
	TitleUpdated bool   `json:"title_updated"`
}

// UpdateIssue rewrites an issue's description from the commits on a branch.
func UpdateIssue(ctx context.Context, env Environment, opts UpdateIssueOptions) (*UpdateIssueOutput, error) {
	s, err := open(ctx, env, validateAll)
	if err != nil {
		return nil, err
	}
	defer s.close()

	client, err := s.requireGitLab()
	if err != nil {
		return nil, err
	}

	branch := opts.Branch
	if branch != "" {
		if err := workflow.ValidateBranchName(branch); err != nil {
			return nil, err
		}
	} else if branch, err = s.repo.CurrentBranch(ctx); err != nil {
		return nil, err
	}

	iid := opts.IssueIID
	if iid == 0 {
		iid = s.recordedIssue(ctx, branch)
	}
	if iid == 0 {
		var ok bool
		if iid, ok = workflow.IssueIDFromBranch(branch); !ok {
			return nil, glerrors.Precondition("cannot extract an issue id from branch name: %s", branch)
		}
		s.narrator.Info("Issue #%d (from branch name)", iid)
	}

	remote, remotes, err := s.remote(ctx)
	if err != nil {
		return nil, err
	}
	baseRemote, baseBranch := s.base(opts.Base, remotes, remote)
	baseRef := baseRemote + "/" + baseBranch

	s.narrator.Info("Analyzing %s against %s", branch, baseRef)
	commits, err := s.repo.Log(ctx, baseRef, branch)
	if err != nil {
		return nil, err
	}

	// The issue must exist before it is rewritten.
	if _, err := client.GetIssue(ctx, iid); err != nil {
		return nil, err
	}

	renderer, err := summary.NewRenderer(s.root)
	if err != nil {
		return nil, err
	}
	description, err := renderer.RequirementsFromCommits(branch, commits)
	if err != nil {
		return nil, err
	}

	update := gitlab.IssueUpdate{Description: description}
	if opts.UpdateTitle && len(commits) > 0 {
		update.Title = summary.StripCommitPrefix(commits[0].Subject)
	}

	issue, err := client.UpdateIssue(ctx, iid, update)
	if err != nil {
		return nil, err
	}
	s.narrator.Success("Updated issue #%d: %s", iid, issue.Title)
	if issue.WebURL != "" {
		s.narrator.Info("URL: %s", issue.WebURL)
	}
	s.logs.For("update").Info("issue updated", "issue_iid", iid, "branch", branch, "commits", len(commits))

	return &UpdateIssueOutput{
		IssueIID:     iid,
		Title:        issue.Title,
		URL:          issue.WebURL,
		Branch:       branch,
		Commits:      len(commits),
		TitleUpdated: update.Title != "",
	}, nil
}

// recordedIssue returns the issue saved in the branch's metadata record by
// start, or zero when there is no usable record.
func (s *session) recordedIssue(ctx context.Context, branch string) int {
	store := metadata.NewFileStore(s.issueDir())
	rec, err := store.Load(ctx, branch)
	if err != nil {
		if !glerrors.IsNotFound(err) {
			s.logs.For("update").Warn("metadata record unreadable", "branch", branch, "error", err)
		}
		return 0
	}
	iid, err := strconv.Atoi(rec.ID)
	if err != nil || iid <= 0 {
		return 0
	}
	path, _ := store.Path(branch)
	s.narrator.Info("Issue #%d (from %s)", iid, path)
	return iid
}
