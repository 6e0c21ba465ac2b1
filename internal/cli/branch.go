package cli

import (
	"github.com/spf13/cobra"

	"github.com/chazuruo/glflow/internal/app"
)

// BranchOptions contains the options for the branch command.
type BranchOptions struct {
	Base   string
	Push   bool
	Commit string
	JSON   bool
}

// NewBranchCommand creates the branch command.
func NewBranchCommand() *cobra.Command {
	opts := &BranchOptions{}

	cmd := &cobra.Command{
		Use:   "branch <name>",
		Short: "Create a branch from the latest remote base",
		Long: `Fetch the base branch and create <name> from it.

The name must follow {issue-code}/{issue-id}-{summary}. The working tree must
be clean unless --commit is given, which first commits local changes on the
current branch.`,
		Example: `  glflow branch 1372/307-action-assignee-removal --push`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBranch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Base, "base", "", "base branch, optionally remote-qualified (default from config)")
	cmd.Flags().BoolVar(&opts.Push, "push", false, "push the new branch with upstream tracking")
	cmd.Flags().StringVar(&opts.Commit, "commit", "", "commit local changes on the current branch with this message first")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output in JSON format")

	return cmd
}

func runBranch(cmd *cobra.Command, name string, opts *BranchOptions) error {
	out, err := app.Branch(cmd.Context(), environment(cmd, opts.JSON), app.BranchOptions{
		Name: name,
		Base: opts.Base,
		Push: opts.Push,

		CommitMessage: opts.Commit,
	})
	if err != nil {
		return err
	}
	if opts.JSON {
		return printJSON(cmd.OutOrStdout(), out)
	}
	return nil
}
