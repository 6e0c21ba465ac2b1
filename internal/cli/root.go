package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazuruo/glflow/internal/app"
)

// NewRootCommand builds the glflow command tree.
func NewRootCommand(info VersionInfo) *cobra.Command {
	app.Version = info.Version

	rootCmd := &cobra.Command{
		Use:   "glflow",
		Short: "GitLab issue-to-branch workflow",
		Long: `glflow turns work in progress into a tracked GitLab issue and branch.

It creates issues, names branches {issue-code}/{issue-id}-{slug}, carries
uncommitted changes onto the new branch, and opens merge requests with
descriptions generated from the branch history. A failed run is rolled back.

Settings come from ~/.config/glflow/config.toml, the repository's
.claude/.env.gitlab-workflow file, GITLAB_* environment variables, and flags.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	AddGlobalFlags(rootCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewBranchCommand())
	rootCmd.AddCommand(NewPushCommand())
	rootCmd.AddCommand(NewMRCommand())
	rootCmd.AddCommand(NewUpdateCommand())
	rootCmd.AddCommand(NewDoctorCommand())
	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewVersionCommand(info.Version, info.Commit, info.Date, info.BuiltBy))

	return rootCmd
}
