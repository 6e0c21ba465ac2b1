package app

import (
	"context"

	glerrors "github.com/chazuruo/glflow/internal/errors"
	"github.com/chazuruo/glflow/internal/gitlab"
	"github.com/chazuruo/glflow/internal/gitrepo"
	"github.com/chazuruo/glflow/internal/logging"
	"github.com/chazuruo/glflow/internal/summary"
	"github.com/chazuruo/glflow/internal/workflow"
)

// MergeRequestOptions describes a merge request to open.
type MergeRequestOptions struct {
	// Title defaults to the stripped subject of the branch's first commit.
	Title string

	// Description replaces the generated description when set.
	Description string

	// IssueIID is closed by the merge. Zero means the iid in the source
	// branch name; a negative value links no issue.
	IssueIID int

	// Source defaults to the current branch.
	Source string

	// Target defaults to the configured base branch.
	Target string

	// KeepBranch keeps the source branch after merge.
	KeepBranch bool

	// CommitMessage commits local changes on the source branch and pushes
	// it before drafting. It requires the source to be checked out.
	CommitMessage string
}

// MergeRequestOutput reports a created merge request.
type MergeRequestOutput struct {
	IID          int    `json:"iid"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	IssueIID     int    `json:"issue_iid,omitempty"`
	Commits      int    `json:"commits"`
	Committed    string `json:"committed,omitempty"`
}

// MergeRequestDraft is what a merge request would be created with.
type MergeRequestDraft struct {
	Title        string
	Description  string
	Source       string
	Target       string
	IssueIID     int
	Commits      []gitrepo.Commit
	RemoveSource bool

	// Committed is the commit made from local changes, if any.
	Committed string
}

// DraftMergeRequest switches to the source branch and prepares the merge
// request without creating it. The interactive flow edits the draft before
// calling CreateMergeRequest.
func DraftMergeRequest(ctx context.Context, env Environment, opts MergeRequestOptions) (*MergeRequestDraft, error) {
	s, err := open(ctx, env, validateAll)
	if err != nil {
		return nil, err
	}
	defer s.close()

	if err := s.lock(); err != nil {
		return nil, err
	}
	return s.draftMergeRequest(ctx, opts)
}

// MergeRequest drafts and creates a merge request in one step.
func MergeRequest(ctx context.Context, env Environment, opts MergeRequestOptions) (*MergeRequestOutput, error) {
	s, err := open(ctx, env, validateAll)
	if err != nil {
		return nil, err
	}
	defer s.close()

	if err := s.lock(); err != nil {
		return nil, err
	}
	draft, err := s.draftMergeRequest(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s.createMergeRequest(ctx, draft)
}

// CreateMergeRequest creates a merge request from a draft.
func CreateMergeRequest(ctx context.Context, env Environment, draft *MergeRequestDraft) (*MergeRequestOutput, error) {
	s, err := open(ctx, env, validateAll)
	if err != nil {
		return nil, err
	}
	defer s.close()

	return s.createMergeRequest(ctx, draft)
}

func (s *session) draftMergeRequest(ctx context.Context, opts MergeRequestOptions) (*MergeRequestDraft, error) {
	client, err := s.requireGitLab()
	if err != nil {
		return nil, err
	}

	current, err := s.repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	source := opts.Source
	if source == "" {
		source = current
	}
	if err := workflow.ValidateBranchName(source); err != nil {
		return nil, err
	}
	if opts.CommitMessage != "" && source != current {
		return nil, glerrors.Precondition("changes can only be committed on the checked-out branch %s, not %s", current, source)
	}
	committed, err := s.commitOrRequireClean(ctx, opts.CommitMessage)
	if err != nil {
		return nil, err
	}
	if source != current {
		if err := s.repo.Checkout(ctx, source); err != nil {
			return nil, err
		}
		s.narrator.Info("Switched to %s", source)
	}

	remote, remotes, err := s.remote(ctx)
	if err != nil {
		return nil, err
	}
	baseRemote, baseBranch := s.base(opts.Target, remotes, remote)
	baseRef := baseRemote + "/" + baseBranch

	log := s.logs.For("mr").With("source", source, "target", baseRef)
	if committed != "" {
		if err := s.repo.Push(ctx, remote, source, true); err != nil {
			return nil, err
		}
		s.narrator.Success("Pushed %s to %s", source, remote)
	}
	if err := s.repo.Fetch(ctx, baseRemote, baseBranch); err != nil {
		s.narrator.Warn("Could not fetch %s: %v", baseRef, err)
		log.Warn("fetch failed", "error", err)
	}

	commits, err := s.repo.Log(ctx, baseRef, source)
	if err != nil {
		return nil, err
	}

	iid := opts.IssueIID
	if iid == 0 {
		iid, _ = workflow.IssueIDFromBranch(source)
	}
	if iid < 0 {
		iid = 0
	}

	title := opts.Title
	if title == "" {
		if len(commits) == 0 {
			return nil, glerrors.Precondition("a title is required: %s has no commits ahead of %s", source, baseRef)
		}
		title = summary.StripCommitPrefix(commits[len(commits)-1].Subject)
	}

	description := opts.Description
	if description == "" {
		description = s.describeMergeRequest(ctx, client, log, baseRef, source, iid, commits)
	}
	if iid > 0 {
		description = summary.WithClosingReference(description, iid)
	}

	return &MergeRequestDraft{
		Title:        title,
		Description:  description,
		Source:       source,
		Target:       baseBranch,
		IssueIID:     iid,
		Commits:      commits,
		RemoveSource: !opts.KeepBranch,
		Committed:    committed,
	}, nil
}

// describeMergeRequest renders the generated description. Failures are
// narrated and yield an empty description.
func (s *session) describeMergeRequest(ctx context.Context, client *gitlab.Client, log *logging.ScopedLogger, baseRef, source string, iid int, commits []gitrepo.Commit) string {
	data := summary.MergeRequestData{Commits: commits}

	stat, err := s.repo.ShortStat(ctx, baseRef, source)
	if err != nil {
		log.Warn("diff stat failed", "error", err)
	}
	data.Stat = stat

	if iid > 0 {
		issue, err := client.GetIssue(ctx, iid)
		if err != nil {
			s.narrator.Warn("Could not fetch issue #%d: %v", iid, err)
			log.Warn("issue lookup failed", "issue_iid", iid, "error", err)
		} else {
			data.Issue = issue
		}
	}

	renderer, err := summary.NewRenderer(s.root)
	if err != nil {
		s.narrator.Warn("Could not generate description: %v", err)
		return ""
	}
	description, err := renderer.MergeRequestDescription(data)
	if err != nil {
		s.narrator.Warn("Could not generate description: %v", err)
		return ""
	}
	s.narrator.Success("Generated description from %d commit(s)", len(commits))
	return description
}

func (s *session) createMergeRequest(ctx context.Context, draft *MergeRequestDraft) (*MergeRequestOutput, error) {
	client, err := s.requireGitLab()
	if err != nil {
		return nil, err
	}
	if draft.Title == "" {
		return nil, glerrors.Precondition("a merge request title is required")
	}

	mr, err := client.CreateMergeRequest(ctx, gitlab.MergeRequestInput{
		SourceBranch:       draft.Source,
		TargetBranch:       draft.Target,
		Title:              draft.Title,
		Description:        draft.Description,
		RemoveSourceBranch: draft.RemoveSource,
	})
	if err != nil {
		return nil, err
	}

	s.narrator.Success("Created merge request !%d: %s", mr.IID, mr.Title)
	s.narrator.Info("URL: %s", mr.WebURL)
	s.logs.For("mr").Info("merge request created", "iid", mr.IID, "source", draft.Source, "target", draft.Target)

	return &MergeRequestOutput{
		IID:          mr.IID,
		Title:        mr.Title,
		URL:          mr.WebURL,
		SourceBranch: draft.Source,
		TargetBranch: draft.Target,
		IssueIID:     draft.IssueIID,
		Commits:      len(draft.Commits),
		Committed:    draft.Committed,
	}, nil
}
