package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/chazuruo/glflow/internal/app"
)

// MROptions contains the options for the mr command.
type MROptions struct {
	Description string
	Issue       int
	NoIssue     bool
	Source      string
	Target      string
	KeepBranch  bool
	Commit      string
	Interactive bool
	JSON        bool
}

// NewMRCommand creates the mr command.
func NewMRCommand() *cobra.Command {
	opts := &MROptions{}

	cmd := &cobra.Command{
		Use:   "mr [title]",
		Short: "Open a merge request with a generated description",
		Long: `Open a merge request from the source branch.

Unless --description is given, the description is generated from the linked
issue and the branch history: issue summary, requirements, key changes, a
change summary, and the detailed commit history. The linked issue (by default
the id in the branch name) is closed when the merge request is merged.

The title defaults to the subject of the branch's first commit. A dirty tree
is refused; --commit commits local changes on the source branch and pushes it
before the merge request is opened.`,
		Example: `  glflow mr
  glflow mr "Remove action assignee" --target develop --keep-branch
  glflow mr -i`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var title string
			if len(args) == 1 {
				title = args[0]
			}
			return runMR(cmd, title, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Description, "description", "", "merge request description (default: generated)")
	cmd.Flags().IntVar(&opts.Issue, "issue", 0, "issue id to close on merge (default: from the branch name)")
	cmd.Flags().BoolVar(&opts.NoIssue, "no-issue", false, "do not link an issue")
	cmd.Flags().StringVar(&opts.Source, "source", "", "source branch (default: current branch)")
	cmd.Flags().StringVar(&opts.Target, "target", "", "target branch (default from config)")
	cmd.Flags().BoolVar(&opts.KeepBranch, "keep-branch", false, "keep the source branch after merge")
	cmd.Flags().StringVar(&opts.Commit, "commit", "", "commit local changes with this message and push before opening")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "review the title and description before creating")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output in JSON format")
	cmd.MarkFlagsMutuallyExclusive("issue", "no-issue")

	return cmd
}

func runMR(cmd *cobra.Command, title string, opts *MROptions) error {
	ctx := cmd.Context()
	env := environment(cmd, opts.JSON)

	mrOpts := app.MergeRequestOptions{
		Title:       title,
		Description: opts.Description,
		IssueIID:    opts.Issue,
		Source:      opts.Source,
		Target:      opts.Target,
		KeepBranch:  opts.KeepBranch,

		CommitMessage: opts.Commit,
	}
	if opts.NoIssue {
		mrOpts.IssueIID = -1
	}

	var (
		out *app.MergeRequestOutput
		err error
	)
	if opts.Interactive {
		if err := requireInteractive("mr"); err != nil {
			return err
		}
		out, err = runMRInteractive(cmd, env, mrOpts)
	} else {
		out, err = app.MergeRequest(ctx, env, mrOpts)
	}
	if err != nil || out == nil {
		return err
	}

	if opts.JSON {
		return printJSON(cmd.OutOrStdout(), out)
	}
	return nil
}

// runMRInteractive drafts the merge request, lets the user edit it, and
// creates it on confirmation. A declined review returns a nil output.
func runMRInteractive(cmd *cobra.Command, env app.Environment, opts app.MergeRequestOptions) (*app.MergeRequestOutput, error) {
	draft, err := app.DraftMergeRequest(cmd.Context(), env, opts)
	if err != nil {
		return nil, err
	}

	confirmed := true
	if err := runForm(cmd.Context(), huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&draft.Title).
				Validate(notBlank("title")),
			huh.NewText().
				Title("Description").
				Description(fmt.Sprintf("%s → %s, %d commit(s)", draft.Source, draft.Target, len(draft.Commits))).
				CharLimit(0).
				Lines(12).
				Value(&draft.Description),
			huh.NewConfirm().
				Title("Create this merge request?").
				Affirmative("Create").
				Negative("Cancel").
				Value(&confirmed),
		),
	)); err != nil {
		return nil, err
	}
	if !confirmed {
		fmt.Fprintln(cmd.OutOrStdout(), "Merge request not created.")
		return nil, nil
	}

	return app.CreateMergeRequest(cmd.Context(), env, draft)
}
