package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/chazuruo/glflow/internal/app"
	"github.com/chazuruo/glflow/internal/ui"
)

// errUnhealthy is returned when a doctor check fails.
var errUnhealthy = errors.New("some checks failed")

// DoctorOptions contains the options for the doctor command.
type DoctorOptions struct {
	JSON bool
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, repository, and GitLab access",
		Long: `Run seven checks: GitLab settings, git repository, git remote, API
connectivity, token permissions, issue directory, and working tree.

A missing issue directory and uncommitted changes are warnings. Any failed
check makes the command exit non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output in JSON format")

	return cmd
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	env := environment(cmd, opts.JSON)
	out, err := app.Doctor(cmd.Context(), env)
	if err != nil {
		return err
	}

	if opts.JSON {
		if err := printJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	} else {
		n := ui.NewNarrator(cmd.OutOrStdout(), !env.NoColor)
		n.Table([]string{"", "CHECK", "DETAIL"}, out.Rows())
		if out.Healthy {
			n.Success("All required checks passed")
		} else {
			n.Fail("Some checks failed")
			n.Info("Set GitLab values with 'glflow init' or in %s", ".claude/.env.gitlab-workflow")
		}
	}

	if !out.Healthy {
		return errUnhealthy
	}
	return nil
}
