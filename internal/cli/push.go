package cli

import (
	"github.com/spf13/cobra"

	"github.com/chazuruo/glflow/internal/app"
)

// PushOptions contains the options for the push command.
type PushOptions struct {
	JSON bool
}

// NewPushCommand creates the push command.
func NewPushCommand() *cobra.Command {
	opts := &PushOptions{}

	cmd := &cobra.Command{
		Use:   "push [branch]",
		Short: "Push a branch with upstream tracking",
		Long:  `Validate the branch name and push it to the remote. Defaults to the current branch.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var branch string
			if len(args) == 1 {
				branch = args[0]
			}
			return runPush(cmd, branch, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output in JSON format")

	return cmd
}

func runPush(cmd *cobra.Command, branch string, opts *PushOptions) error {
	out, err := app.Push(cmd.Context(), environment(cmd, opts.JSON), app.PushOptions{Branch: branch})
	if err != nil {
		return err
	}
	if opts.JSON {
		return printJSON(cmd.OutOrStdout(), out)
	}
	return nil
}
