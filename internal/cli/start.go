package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/chazuruo/glflow/internal/app"
	"github.com/chazuruo/glflow/internal/ui"
	"github.com/chazuruo/glflow/internal/workflow"
)

// StartOptions contains the options for the start command.
type StartOptions struct {
	FromFile    string
	Interactive bool
	Base        string
	JSON        bool
}

// NewStartCommand creates the start command.
func NewStartCommand() *cobra.Command {
	opts := &StartOptions{}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Create an issue and a branch for it, carrying local changes along",
		Long: `Create a GitLab issue, then a branch named {issue-code}/{issue-id}-{slug}
from the latest base branch, push it, and move any uncommitted changes onto it.

The issue is read from a JSON or YAML file:

  {"issueCode": "VTM-1", "title": "Add logout", "description": "...", "labels": ["auth"]}

or collected with -i. If any step fails, completed steps are undone and the
repository is left as it was. An issue created before the failure is reported
so it can be closed by hand.`,
		Example: `  glflow start --from-file issue.json
  glflow start -i --base origin/develop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.FromFile, "from-file", "f", "", "issue request file (.json, .yaml, .yml)")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "enter the issue in a form")
	cmd.Flags().StringVar(&opts.Base, "base", "", "base branch, optionally remote-qualified (default from config)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output the result in JSON format")
	cmd.MarkFlagsMutuallyExclusive("from-file", "interactive")

	return cmd
}

func runStart(cmd *cobra.Command, opts *StartOptions) error {
	ctx := cmd.Context()
	env := environment(cmd, opts.JSON)
	startOpts := app.StartOptions{RequestPath: opts.FromFile, Base: opts.Base}

	if opts.Interactive {
		if err := requireInteractive("start"); err != nil {
			return err
		}
		defaults, err := app.LoadStartDefaults(ctx, env)
		if err != nil {
			return err
		}
		req, err := promptRequest(cmd, defaults.IssueCode, opts.Base)
		if err != nil {
			return err
		}
		if req == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing was created.")
			return nil
		}
		startOpts.Request = req
	}

	out, err := app.Start(ctx, env, startOpts)
	if opts.JSON && out != nil {
		if jsonErr := printJSON(cmd.OutOrStdout(), out); jsonErr != nil {
			return jsonErr
		}
	}
	if !opts.JSON && err == nil && out != nil {
		ui.NewNarrator(cmd.OutOrStdout(), !env.NoColor).Table([]string{"", ""}, startRows(out))
	}
	return err
}

// startRows summarizes a successful run.
func startRows(out *app.StartOutput) [][]string {
	rows := [][]string{
		{"Issue", fmt.Sprintf("#%d %s", out.IssueIID, out.IssueTitle)},
		{"URL", out.IssueURL},
		{"Branch", out.Branch},
		{"Remote", out.Remote},
	}
	if len(out.StashedFiles) > 0 {
		rows = append(rows, []string{"Carried over", fmt.Sprintf("%d file(s)", len(out.StashedFiles))})
	}
	if out.MetadataPath != "" {
		rows = append(rows, []string{"Metadata", out.MetadataPath})
	}
	return rows
}

// promptRequest collects an issue request, starting from the configured
// issueCode. It returns nil when the user declines the review.
func promptRequest(cmd *cobra.Command, issueCode, base string) (*workflow.Request, error) {
	var title, description, labels string
	if err := runForm(cmd.Context(), huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Issue code").
				Description("Tracking code used as the branch prefix (e.g., VTM-1 or 1372)").
				Value(&issueCode).
				Validate(func(s string) error {
					if err := notBlank("issue code")(s); err != nil {
						return err
					}
					return workflow.ValidateIssueCode(strings.TrimSpace(s))
				}),
			huh.NewInput().
				Title("Title").
				Value(&title).
				Validate(notBlank("title")),
			huh.NewText().
				Title("Description").
				Description("Markdown, optional").
				CharLimit(10000).
				Value(&description),
			huh.NewInput().
				Title("Labels").
				Description("Comma-separated, optional").
				Placeholder("e.g., backend, auth").
				Value(&labels),
		),
	)); err != nil {
		return nil, err
	}

	req := &workflow.Request{
		IssueCode:   issueCode,
		Title:       title,
		Description: description,
		Labels:      splitLabels(labels),
		Base:        base,
	}
	req.Normalize()

	slug := workflow.Sanitize(req.Title, workflow.MaxSlugLength)
	preview := strings.ToLower(req.IssueCode) + "/{issue-id}"
	if slug != "" {
		preview += "-" + slug
	}

	confirmed := true
	if err := runForm(cmd.Context(), huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Create this issue and branch?").
				Description(fmt.Sprintf("Title:  %s\nLabels: %s\nBranch: %s", req.Title, labelList(req.Labels), preview)).
				Affirmative("Create").
				Negative("Cancel").
				Value(&confirmed),
		),
	)); err != nil {
		return nil, err
	}
	if !confirmed {
		return nil, nil
	}
	return req, nil
}

func labelList(labels []string) string {
	if len(labels) == 0 {
		return "none"
	}
	return strings.Join(labels, ", ")
}
