// Package cli provides Cobra command definitions for glflow.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/chazuruo/glflow/internal/app"
	"github.com/chazuruo/glflow/internal/config"
	glerrors "github.com/chazuruo/glflow/internal/errors"
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	NoColor    bool

	// NoTUI disables huh forms; commands then take all input from flags.
	NoTUI bool

	URL       string
	Token     string
	Project   string
	Remote    string
	IssueCode string
}

var (
	globals GlobalOptions

	// globalsMutex protects globals for concurrent access.
	globalsMutex sync.RWMutex
)

// AddGlobalFlags adds global flags to a command.
func AddGlobalFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&globals.ConfigPath, "config", "", "config file path (default ~/.config/glflow/config.toml)")
	f.BoolVar(&globals.NoColor, "no-color", false, "disable styled output")
	f.BoolVar(&globals.NoTUI, "no-tui", false, "disable interactive forms; take all input from flags")
	f.StringVar(&globals.URL, "url", "", "GitLab instance URL (overrides "+config.EnvGitLabURL+")")
	f.StringVar(&globals.Token, "token", "", "GitLab personal access token (overrides "+config.EnvGitLabToken+")")
	f.StringVar(&globals.Project, "project", "", "GitLab project ID or path (overrides "+config.EnvGitLabProject+")")
	f.StringVar(&globals.Remote, "remote", "", "git remote to use (default: origin, else the first remote)")
	f.StringVar(&globals.IssueCode, "issue-code", "", "default issue code for new issues (overrides "+config.EnvIssueCode+")")
}

// IsNoTUI returns true if interactive forms are disabled.
func IsNoTUI() bool {
	globalsMutex.RLock()
	defer globalsMutex.RUnlock()
	return globals.NoTUI
}

// environment builds the app environment from the global flags. JSON output
// moves narration to stderr so stdout stays parseable.
func environment(cmd *cobra.Command, jsonOutput bool) app.Environment {
	globalsMutex.RLock()
	g := globals
	globalsMutex.RUnlock()

	out := cmd.OutOrStdout()
	if jsonOutput {
		out = cmd.ErrOrStderr()
	}

	return app.Environment{
		ConfigPath: g.ConfigPath,
		Overrides: config.Overrides{
			URL:       g.URL,
			Token:     g.Token,
			Project:   g.Project,
			Remote:    g.Remote,
			IssueCode: g.IssueCode,
		},
		Out:     out,
		NoColor: g.NoColor,
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// Exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitPrecondition = 2
	ExitCanceled     = 130
)

// ExitCode maps an error to the process exit status. Precondition failures
// changed nothing; any other failure may have been rolled back.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case glerrors.IsCanceled(err):
		return ExitCanceled
	case glerrors.IsPrecondition(err):
		return ExitPrecondition
	default:
		return ExitFailure
	}
}
