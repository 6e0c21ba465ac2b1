package cli

import (
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/chazuruo/glflow/internal/app"
	"github.com/chazuruo/glflow/internal/config"
	"github.com/chazuruo/glflow/internal/ui"
)

// InitOptions contains the options for the init command.
type InitOptions struct {
	// Scriptable/flag options for --no-tui mode. GitLab values come from
	// the global --url, --token, --project, and --remote flags.
	IssueDir   string
	BaseBranch string
	JSON       bool
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the repository's GitLab settings",
		Long: `Write GitLab settings to .claude/.env.gitlab-workflow in the current repository.

The wizard asks for the GitLab URL, a personal access token with api scope,
the project, and optional remote, issue directory, and base branch. An existing
file is kept as a timestamped backup. The file is written with mode 0600.

Use --no-tui with --url, --token, and --project for scripted setup.`,
		Example: `  glflow init
  glflow init --no-tui --url https://gitlab.example.com --token glpat-xxxx --project group/app`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.IssueDir, "issue-dir", "", "directory for issue.json files (default docs/requirements)")
	cmd.Flags().StringVar(&opts.BaseBranch, "base", "", "base branch for new branches (default main)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output in JSON format")

	return cmd
}

func runInit(cmd *cobra.Command, opts *InitOptions) error {
	globalsMutex.RLock()
	initOpts := app.InitOptions{
		URL:        globals.URL,
		Token:      globals.Token,
		Project:    globals.Project,
		Remote:     globals.Remote,
		IssueDir:   opts.IssueDir,
		BaseBranch: opts.BaseBranch,
	}
	globalsMutex.RUnlock()

	if !IsNoTUI() {
		if err := promptInit(cmd, &initOpts); err != nil {
			return err
		}
	}

	env := environment(cmd, opts.JSON)
	out, err := app.Init(cmd.Context(), env, initOpts)
	if err != nil {
		return err
	}
	if opts.JSON {
		return printJSON(cmd.OutOrStdout(), out)
	}

	n := ui.NewNarrator(cmd.OutOrStdout(), !env.NoColor)
	n.Success("Configuration saved to %s", out.Path)
	if out.Backup != "" {
		n.Info("Previous file kept as %s", out.Backup)
	}
	n.Info("Token: %s", out.MaskedToken)
	if out.ConfigFile != "" {
		n.Info("Created %s with default log, telemetry, and UI settings", out.ConfigFile)
	}
	if out.TokenWarning {
		n.Warn("The token does not start with glpat-; check that it is a personal access token")
	}
	n.Info("Next: run 'glflow doctor' to verify the setup")
	return nil
}

// promptInit fills opts with the wizard, using current values as defaults.
func promptInit(cmd *cobra.Command, opts *app.InitOptions) error {
	if opts.IssueDir == "" {
		opts.IssueDir = config.DefaultConfig().Workflow.IssueDir
	}
	if opts.BaseBranch == "" {
		opts.BaseBranch = config.DefaultConfig().Workflow.BaseBranch
	}

	return runForm(cmd.Context(), huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GitLab URL").
				Placeholder("https://gitlab.example.com").
				Value(&opts.URL).
				Validate(func(s string) error {
					_, err := app.NormalizeGitLabURL(s)
					return err
				}),
			huh.NewInput().
				Title("Personal access token").
				Description("Needs the api scope").
				EchoMode(huh.EchoModePassword).
				Value(&opts.Token).
				Validate(notBlank("token")),
			huh.NewInput().
				Title("Project").
				Description("Numeric ID or namespace/project-name").
				Value(&opts.Project).
				Validate(app.ValidateProject),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Git remote").
				Description("Optional; empty means origin, or the first remote").
				Value(&opts.Remote),
			huh.NewInput().
				Title("Issue directory").
				Value(&opts.IssueDir).
				Validate(notBlank("issue directory")),
			huh.NewInput().
				Title("Base branch").
				Description("A remote prefix selects the remote, e.g. origin/develop").
				Value(&opts.BaseBranch).
				Validate(notBlank("base branch")),
		),
	))
}
