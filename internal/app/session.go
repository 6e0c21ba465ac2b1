// Package app provides high-level application logic for glflow commands.
//
// Each operation takes an XOptions struct, opens a session (config, working
// copy, GitLab client, loggers), does its work, and returns an *XOutput that
// the CLI renders as text or JSON.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/chazuruo/glflow/internal/config"
	glerrors "github.com/chazuruo/glflow/internal/errors"
	"github.com/chazuruo/glflow/internal/gitlab"
	"github.com/chazuruo/glflow/internal/gitrepo"
	"github.com/chazuruo/glflow/internal/lock"
	"github.com/chazuruo/glflow/internal/logging"
	"github.com/chazuruo/glflow/internal/telemetry"
	"github.com/chazuruo/glflow/internal/ui"
	"github.com/chazuruo/glflow/internal/workflow"
)

// Version is reported in telemetry resources. The CLI sets it from ldflags.
var Version = "dev"

// Environment holds the inputs shared by every operation.
type Environment struct {
	// ConfigPath is the TOML config file. Empty means the default location.
	ConfigPath string

	// Dir is the working directory. Empty means the process directory.
	Dir string

	// Overrides are command-line values applied over every other source.
	Overrides config.Overrides

	// Out receives narration. Nil means os.Stdout.
	Out io.Writer

	// NoColor disables styled output.
	NoColor bool

	// Logs overrides the file logger built from config.
	Logs logging.Provider

	// GitLab overrides the client built from config.
	GitLab *gitlab.Client
}

// validation selects which config sections must be valid.
type validation int

const (
	validateNone validation = iota
	validateLocal
	validateAll
)

// session is an opened environment.
type session struct {
	cfg      *config.Config
	repo     gitrepo.Repo
	root     string
	gitDir   string
	client   *gitlab.Client
	narrator *ui.Narrator
	logs     logging.Provider

	closers []func() error
}

// open loads config for the repository containing env.Dir and validates it.
// The working directory must be inside a git repository.
func open(ctx context.Context, env Environment, v validation) (*session, error) {
	dir := env.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}

	repo := gitrepo.New(dir)
	if !repo.IsRepository(ctx) {
		return nil, glerrors.Precondition("not in a git repository: %s", dir)
	}
	root, err := repo.TopLevel(ctx)
	if err != nil {
		return nil, err
	}
	gitDir, err := repo.GitDir(ctx)
	if err != nil {
		return nil, err
	}

	s, err := newSession(ctx, env, root, v)
	if err != nil {
		return nil, err
	}
	s.repo = gitrepo.New(root)
	s.root = root
	s.gitDir = gitDir
	return s, nil
}

// newSession loads and validates config with repoRoot's dotenv file, then
// builds the narrator, loggers, tracer provider, and GitLab client.
func newSession(ctx context.Context, env Environment, repoRoot string, v validation) (*session, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: env.ConfigPath,
		RepoRoot:   repoRoot,
		Overrides:  env.Overrides,
	})
	if err != nil {
		return nil, err
	}

	switch v {
	case validateAll:
		err = cfg.Validate()
	case validateLocal:
		err = cfg.ValidateLocal()
	}
	if err != nil {
		return nil, err
	}

	out := env.Out
	if out == nil {
		out = os.Stdout
	}

	s := &session{
		cfg:      cfg,
		narrator: ui.NewNarrator(out, cfg.UI.Color && !env.NoColor),
		logs:     env.Logs,
		client:   env.GitLab,
	}

	if s.logs == nil {
		s.logs = logging.NopProvider{}
		if cfg.Log.Enabled && cfg.Log.File != "" {
			mgr, err := logging.NewManager(logging.Config{
				FilePath:   cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				Level:      cfg.Log.Level,
			})
			// The log file is diagnostics only; an unwritable path is not fatal.
			if err == nil {
				s.logs = mgr
				s.closers = append(s.closers, mgr.Close)
			}
		}
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Options{
		Exporter:    cfg.Telemetry.Exporter,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: "glflow",
		Version:     Version,
	})
	if err != nil {
		s.close()
		return nil, err
	}
	s.closers = append(s.closers, func() error { return shutdown(context.Background()) })

	if s.client == nil && len(cfg.MissingGitLab()) == 0 {
		s.client = gitlab.NewClient(cfg.GitLab.Token, cfg.GitLab.URL, cfg.GitLab.Project)
	}

	return s, nil
}

// close releases resources in reverse order of acquisition.
func (s *session) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// lock takes the repository lock until the session closes.
func (s *session) lock() error {
	l, err := lock.Acquire(s.gitDir)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, l.Release)
	return nil
}

// requireGitLab returns the client or a precondition error naming the
// missing settings.
func (s *session) requireGitLab() (*gitlab.Client, error) {
	if s.client != nil {
		return s.client, nil
	}
	return nil, glerrors.Precondition("GitLab is not configured (missing %v)", s.cfg.MissingGitLab())
}

// remote resolves the remote to operate on.
func (s *session) remote(ctx context.Context) (string, []string, error) {
	remotes, err := s.repo.Remotes(ctx)
	if err != nil {
		return "", nil, err
	}
	name, ok := gitrepo.ResolveRemote(remotes, s.cfg.GitLab.Remote)
	if !ok {
		if s.cfg.GitLab.Remote != "" {
			return "", remotes, glerrors.Precondition("remote %q is not configured", s.cfg.GitLab.Remote)
		}
		return "", remotes, glerrors.Precondition("no git remote configured")
	}
	return name, remotes, nil
}

// base resolves a base reference, defaulting to the configured base branch.
func (s *session) base(ref string, remotes []string, remote string) (baseRemote, baseBranch string) {
	if ref == "" {
		ref = s.cfg.Workflow.BaseBranch
	}
	return gitrepo.SplitBaseRef(ref, remotes, remote)
}

// issueDir returns the metadata directory, resolved against the repo root.
func (s *session) issueDir() string {
	if filepath.IsAbs(s.cfg.Workflow.IssueDir) {
		return s.cfg.Workflow.IssueDir
	}
	return filepath.Join(s.root, s.cfg.Workflow.IssueDir)
}

func (s *session) settings() workflow.Settings {
	return workflow.Settings{
		BaseBranch:    s.cfg.Workflow.BaseBranch,
		Remote:        s.cfg.GitLab.Remote,
		SlugMaxLength: s.cfg.Workflow.SlugMaxLength,
	}
}

// requireClean fails when the working tree has changes, listing up to
// maxDirtyListed files.
func (s *session) requireClean(ctx context.Context) error {
	dirty, err := s.repo.DirtyFiles(ctx)
	if err != nil {
		return err
	}
	if len(dirty) == 0 {
		return nil
	}
	return dirtyTreeError(dirty)
}
