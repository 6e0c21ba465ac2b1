package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chazuruo/glflow/internal/app"
	glerrors "github.com/chazuruo/glflow/internal/errors"
)

// UpdateOptions contains the options for the update command.
type UpdateOptions struct {
	Branch      string
	Base        string
	UpdateTitle bool
	JSON        bool
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	opts := &UpdateOptions{}

	cmd := &cobra.Command{
		Use:   "update [issue-id]",
		Short: "Rewrite an issue's description from the branch history",
		Long: `Regenerate the issue description from the commits on a branch.

The issue id defaults to the one in the branch name. With --update-title the
title becomes the subject of the newest commit, without its type prefix.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var iid int
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return glerrors.Precondition("invalid issue id %q", args[0])
				}
				iid = n
			}
			return runUpdate(cmd, iid, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Branch, "branch", "", "branch to analyze (default: current branch)")
	cmd.Flags().StringVar(&opts.Base, "base", "", "base branch, optionally remote-qualified (default from config)")
	cmd.Flags().BoolVar(&opts.UpdateTitle, "update-title", false, "also replace the issue title")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output in JSON format")

	return cmd
}

func runUpdate(cmd *cobra.Command, iid int, opts *UpdateOptions) error {
	out, err := app.UpdateIssue(cmd.Context(), environment(cmd, opts.JSON), app.UpdateIssueOptions{
		IssueIID:    iid,
		Branch:      opts.Branch,
		Base:        opts.Base,
		UpdateTitle: opts.UpdateTitle,
	})
	if err != nil {
		return err
	}
	if opts.JSON {
		return printJSON(cmd.OutOrStdout(), out)
	}
	return nil
}
