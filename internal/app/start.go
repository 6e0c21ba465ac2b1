package app

import (
	"context"

	glerrors "github.com/chazuruo/glflow/internal/errors"
	"github.com/chazuruo/glflow/internal/metadata"
	"github.com/chazuruo/glflow/internal/summary"
	"github.com/chazuruo/glflow/internal/workflow"
)

// StartOptions selects the issue a start run creates. Request takes
// precedence over RequestPath.
type StartOptions struct {
	RequestPath string
	Request     *workflow.Request

	// Base overrides both the request and the configured base branch.
	Base string
}

// StartOutput reports a start run.
type StartOutput struct {
	Success       bool     `json:"success"`
	IssueIID      int      `json:"issue_iid,omitempty"`
	IssueTitle    string   `json:"issue_title,omitempty"`
	IssueURL      string   `json:"issue_url,omitempty"`
	Branch        string   `json:"branch,omitempty"`
	Remote        string   `json:"remote,omitempty"`
	IssueUpdated  bool     `json:"issue_updated"`
	StashedFiles  []string `json:"stashed_files,omitempty"`
	MetadataPath  string   `json:"metadata_path,omitempty"`
	Steps         []string `json:"steps"`
	OrphanedIssue bool     `json:"orphaned_issue,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Start runs the forced issue-to-branch workflow. On failure the returned
// output still describes what happened, including any orphaned issue.
func Start(ctx context.Context, env Environment, opts StartOptions) (*StartOutput, error) {
	req, err := startRequest(opts)
	if err != nil {
		return nil, err
	}

	s, err := open(ctx, env, validateAll)
	if err != nil {
		return nil, err
	}
	defer s.close()

	if err := s.lock(); err != nil {
		return nil, err
	}

	if req.IssueCode == "" {
		req.IssueCode = s.cfg.Workflow.IssueCode
	}
	if opts.Base != "" {
		req.Base = opts.Base
	}

	client, err := s.requireGitLab()
	if err != nil {
		return nil, err
	}
	renderer, err := summary.NewRenderer(s.root)
	if err != nil {
		return nil, err
	}

	exec := workflow.NewExecutor(
		s.settings(),
		s.repo,
		client,
		metadata.NewFileStore(s.issueDir()),
		workflow.WithNarrator(s.narrator),
		workflow.WithLogger(s.logs.For("workflow")),
		workflow.WithRenderer(renderer),
	)

	result, runErr := exec.Run(ctx, *req)
	return startOutput(result), runErr
}

// StartDefaults are the configured values an interactive start pre-fills.
type StartDefaults struct {
	IssueCode  string `json:"issue_code"`
	BaseBranch string `json:"base_branch"`
}

// LoadStartDefaults reads the issue code and base branch from the merged
// configuration without requiring GitLab settings.
func LoadStartDefaults(ctx context.Context, env Environment) (*StartDefaults, error) {
	s, err := open(ctx, env, validateNone)
	if err != nil {
		return nil, err
	}
	defer s.close()

	return &StartDefaults{
		IssueCode:  s.cfg.Workflow.IssueCode,
		BaseBranch: s.cfg.Workflow.BaseBranch,
	}, nil
}

func startRequest(opts StartOptions) (*workflow.Request, error) {
	if opts.Request != nil {
		req := *opts.Request
		return &req, nil
	}
	if opts.RequestPath == "" {
		return nil, glerrors.Precondition("an issue request is required (--from-file or -i)")
	}
	return workflow.LoadRequest(opts.RequestPath)
}

func startOutput(r *workflow.Result) *StartOutput {
	if r == nil {
		return nil
	}

	steps := make([]string, 0, len(r.Steps))
	for _, p := range r.Steps {
		steps = append(steps, p.String())
	}

	out := &StartOutput{
		Success:       r.Success,
		IssueIID:      r.IssueIID,
		IssueTitle:    r.IssueTitle,
		IssueURL:      r.IssueURL,
		Branch:        r.Branch,
		Remote:        r.Remote,
		IssueUpdated:  r.IssueUpdated,
		StashedFiles:  r.StashedFiles,
		MetadataPath:  r.MetadataPath,
		Steps:         steps,
		OrphanedIssue: r.OrphanedIssue(),
	}
	if !r.Success {
		out.Error = r.Message()
	}
	return out
}
