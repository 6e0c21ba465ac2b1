package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	glerrors "github.com/chazuruo/glflow/internal/errors"
	"github.com/chazuruo/glflow/internal/gitlab"
	"github.com/chazuruo/glflow/internal/gitrepo"
	"github.com/chazuruo/glflow/internal/logging"
	"github.com/chazuruo/glflow/internal/metadata"
	"github.com/chazuruo/glflow/internal/summary"
	"github.com/chazuruo/glflow/internal/telemetry"
)

// totalPhases is the number of narrated phases.
const totalPhases = 8

// maxListedFiles bounds the dirty files printed before stashing.
const maxListedFiles = 5

// Settings are the executor's fixed inputs, taken from config.Config.
type Settings struct {
	// BaseBranch is used when a request names no base. It may be
	// remote-qualified ("origin/develop").
	BaseBranch string

	// Remote overrides remote detection when set.
	Remote string

	// SlugMaxLength bounds the title slug in branch names.
	SlugMaxLength int
}

// Executor runs the start workflow.
type Executor struct {
	settings Settings
	vcs      VersionControl
	tracker  IssueTracker
	store    MetadataStore

	narrator Narrator
	logger   *logging.ScopedLogger
	tracer   trace.Tracer
	renderer *summary.Renderer
	newRunID func() string
}

// Option configures an Executor.
type Option func(*Executor)

// WithNarrator sets where progress is reported.
func WithNarrator(n Narrator) Option {
	return func(e *Executor) {
		if n != nil {
			e.narrator = n
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *logging.ScopedLogger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracer sets the tracer used for phase spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithRenderer sets the renderer for the issue description update.
func WithRenderer(r *summary.Renderer) Option {
	return func(e *Executor) {
		if r != nil {
			e.renderer = r
		}
	}
}

// NewExecutor creates an executor over the given collaborators.
func NewExecutor(settings Settings, vcs VersionControl, tracker IssueTracker, store MetadataStore, opts ...Option) *Executor {
	e := &Executor{
		settings: settings,
		vcs:      vcs,
		tracker:  tracker,
		store:    store,
		narrator: nopNarrator{},
		logger:   logging.NopLogger(),
		tracer:   telemetry.Tracer("workflow"),
		renderer: summary.Default(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// target is the resolved remote and base of a run.
type target struct {
	remote     string
	baseRemote string
	baseBranch string
}

func (t target) baseRef() string {
	return t.baseRemote + "/" + t.baseBranch
}

// Run executes the workflow for req. The returned error is nil exactly when
// the result reports success. Precondition failures return before anything
// is changed; later failures are rolled back first.
func (e *Executor) Run(ctx context.Context, req Request) (*Result, error) {
	state := &State{RunID: e.newRunID()}
	log := e.logger.With("run_id", state.RunID)

	ctx, span := e.tracer.Start(ctx, "workflow.start", trace.WithAttributes(
		attribute.String("glflow.run_id", state.RunID),
		attribute.String("glflow.issue_code", req.IssueCode),
	))
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return e.fail(span, state, err)
	}

	e.narrator.Phase(1, totalPhases, "Pre-flight validation")
	tgt, err := e.preflight(ctx, req)
	if err != nil {
		e.narrator.Fail("%v", err)
		log.Warn("preflight failed", "error", err)
		return e.fail(span, state, err)
	}
	log.Info("workflow started", "issue_code", req.IssueCode, "remote", tgt.remote, "base", tgt.baseRef())

	if err := e.execute(ctx, log, state, req, tgt); err != nil {
		e.narrator.Fail("%v", err)
		e.narrator.Info("Rolling back completed steps")
		// Undo must run even when ctx was canceled.
		e.rollback(context.WithoutCancel(ctx), log, state, tgt)

		e.narrator.Banner("❌ Workflow failed and rolled back")
		if state.IssueIID != 0 {
			e.narrator.Warn("Issue #%d was created but the workflow failed", state.IssueIID)
			e.narrator.Info("Close it manually in GitLab: %s", state.IssueURL)
		}
		log.Error("workflow failed", "error", err, "steps", phaseList(state.Steps.Steps()))
		return e.fail(span, state, err)
	}

	result := succeeded(state, tgt.remote)
	e.narrator.Banner("✅ Workflow completed successfully")
	e.narrator.Info("Issue:  #%d - %s", result.IssueIID, result.IssueTitle)
	e.narrator.Info("Branch: %s", result.Branch)
	e.narrator.Info("Status: pushed to %s/%s", tgt.remote, result.Branch)
	if result.IssueURL != "" {
		e.narrator.Info("URL:    %s", result.IssueURL)
	}
	if result.IssueUpdated {
		e.narrator.Info("Issue description updated with the planned changes")
	}
	log.Info("workflow completed", "issue_iid", result.IssueIID, "branch", result.Branch)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (e *Executor) fail(span trace.Span, state *State, err error) (*Result, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	result := failed(state, err)
	return result, err
}

// preflight checks the repository, remote, and base ref. It changes nothing.
func (e *Executor) preflight(ctx context.Context, req Request) (target, error) {
	if err := ValidateIssueCode(req.IssueCode); err != nil {
		return target{}, err
	}
	if !e.vcs.IsRepository(ctx) {
		return target{}, glerrors.Precondition("not in a git repository")
	}
	e.narrator.Success("Git repository validated")

	remotes, err := e.vcs.Remotes(ctx)
	if err != nil {
		return target{}, err
	}
	remote, ok := gitrepo.ResolveRemote(remotes, e.settings.Remote)
	if !ok {
		if e.settings.Remote != "" {
			return target{}, glerrors.Precondition("remote %q is not configured (available: %s)",
				e.settings.Remote, strings.Join(remotes, ", "))
		}
		return target{}, glerrors.Precondition("no git remote configured")
	}
	e.narrator.Success("Remote: %s", remote)

	base := req.Base
	if base == "" {
		base = e.settings.BaseBranch
	}
	if base == "" {
		return target{}, glerrors.Precondition("no base branch configured")
	}
	baseRemote, baseBranch := gitrepo.SplitBaseRef(base, remotes, remote)
	tgt := target{remote: remote, baseRemote: baseRemote, baseBranch: baseBranch}

	if !e.vcs.RefExists(ctx, tgt.baseRef()) {
		return target{}, glerrors.Precondition("remote branch not found: %s", tgt.baseRef())
	}
	e.narrator.Success("Remote branch exists: %s", tgt.baseRef())

	return tgt, nil
}

// execute runs phases 2 to 8, marking state as each succeeds.
func (e *Executor) execute(ctx context.Context, log *logging.ScopedLogger, state *State, req Request, tgt target) error {
	e.narrator.Phase(2, totalPhases, "Creating GitLab issue")
	err := e.phase(ctx, log, PhaseIssueCreated, func(ctx context.Context) error {
		issue, err := e.tracker.CreateIssue(ctx, req.Title, req.Description, req.Labels)
		if err != nil {
			return err
		}
		state.IssueIID = issue.IID
		state.IssueTitle = issue.Title
		if state.IssueTitle == "" {
			state.IssueTitle = req.Title
		}
		state.IssueURL = issue.WebURL
		state.mark(PhaseIssueCreated)
		e.narrator.Success("Created issue #%d: %s", issue.IID, state.IssueTitle)
		if issue.WebURL != "" {
			e.narrator.Info("URL: %s", issue.WebURL)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.narrator.Phase(3, totalPhases, "Preparing working directory")
	err = e.phase(ctx, log, PhaseStashed, func(ctx context.Context) error {
		dirty, err := e.vcs.DirtyFiles(ctx)
		if err != nil {
			return err
		}
		if len(dirty) == 0 {
			e.narrator.Success("Working directory is clean")
			return nil
		}

		e.narrator.Warn("Found %d uncommitted change(s)", len(dirty))
		for i, f := range dirty {
			if i == maxListedFiles {
				e.narrator.Info("   ... and %d more", len(dirty)-maxListedFiles)
				break
			}
			e.narrator.Info("   - %s", f)
		}

		msg := fmt.Sprintf("glflow: auto-stash for issue #%d (run %s)", state.IssueIID, state.RunID)
		if err := e.vcs.Stash(ctx, msg); err != nil {
			return err
		}
		state.Stashed = true
		state.StashedFiles = dirty
		state.stashPending = true
		state.mark(PhaseStashed)
		e.narrator.Success("Stashed: %s", msg)
		return nil
	})
	if err != nil {
		return err
	}

	err = e.phase(ctx, log, PhaseSwitchedToBase, func(ctx context.Context) error {
		current, err := e.vcs.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		state.OriginalBranch = current
		if current == "HEAD" {
			if state.OriginalCommit, err = e.vcs.HeadCommit(ctx); err != nil {
				return err
			}
		}

		if err := e.vcs.Checkout(ctx, tgt.baseBranch); err != nil {
			return err
		}
		state.mark(PhaseSwitchedToBase)
		e.narrator.Success("Now on %s", tgt.baseBranch)
		return nil
	})
	if err != nil {
		return err
	}

	err = e.phase(ctx, log, PhasePulledLatest, func(ctx context.Context) error {
		if err := e.vcs.Pull(ctx, tgt.baseRemote, tgt.baseBranch); err != nil {
			return err
		}
		state.mark(PhasePulledLatest)
		e.narrator.Success("Updated to latest %s", tgt.baseRef())
		return nil
	})
	if err != nil {
		return err
	}

	e.narrator.Phase(4, totalPhases, "Creating branch")
	name := BranchName(req.IssueCode, state.IssueIID, req.Title, e.settings.SlugMaxLength)
	err = e.phase(ctx, log, PhaseBranchCreated, func(ctx context.Context) error {
		if err := ValidateBranchName(name); err != nil {
			return err
		}
		if err := e.vcs.CreateBranch(ctx, name, ""); err != nil {
			return err
		}
		state.BranchName = name
		state.mark(PhaseBranchCreated)
		e.narrator.Success("Created and checked out: %s", name)
		return nil
	})
	if err != nil {
		return err
	}

	e.narrator.Phase(5, totalPhases, "Pushing to remote")
	err = e.phase(ctx, log, PhasePushed, func(ctx context.Context) error {
		if err := e.vcs.Push(ctx, tgt.remote, name, true); err != nil {
			return err
		}
		state.mark(PhasePushed)
		e.narrator.Success("Pushed: %s/%s", tgt.remote, name)
		return nil
	})
	if err != nil {
		return err
	}

	e.narrator.Phase(6, totalPhases, "Restoring stashed changes")
	err = e.phase(ctx, log, PhaseStashPopped, func(ctx context.Context) error {
		if !state.Stashed {
			e.narrator.Info("Nothing was stashed")
			return nil
		}
		if err := e.vcs.StashPop(ctx); err != nil {
			// A conflicted pop keeps the entry; clear the tree so rollback
			// can leave the branch and pop it where it came from.
			if abortErr := e.vcs.AbortStashPop(context.WithoutCancel(ctx)); abortErr != nil {
				log.Warn("conflicted stash pop not discarded", "error", abortErr)
			}
			return err
		}
		state.stashPending = false
		state.mark(PhaseStashPopped)
		e.narrator.Success("Applied stashed changes to %s", name)
		return nil
	})
	if err != nil {
		return err
	}

	e.narrator.Phase(7, totalPhases, "Updating issue")
	err = e.phase(ctx, log, PhaseIssueUpdated, func(ctx context.Context) error {
		if len(state.StashedFiles) == 0 {
			e.narrator.Info("No changes to summarize; keeping the original description")
			return nil
		}
		desc, err := e.renderer.RequirementsFromChanges(req.Title, req.Description, state.StashedFiles)
		if err != nil {
			return err
		}
		if _, err := e.tracker.UpdateIssue(ctx, state.IssueIID, gitlab.IssueUpdate{Description: desc}); err != nil {
			return err
		}
		state.IssueUpdated = true
		state.mark(PhaseIssueUpdated)
		e.narrator.Success("Updated issue #%d with %d changed file(s)", state.IssueIID, len(state.StashedFiles))
		return nil
	})
	if err != nil {
		return err
	}

	e.narrator.Phase(8, totalPhases, "Saving metadata")
	err = e.phase(ctx, log, PhaseMetadataSaved, func(ctx context.Context) error {
		path, err := e.store.Save(ctx, metadata.Record{
			ID:          strconv.Itoa(state.IssueIID),
			IssueCode:   req.IssueCode,
			Branch:      name,
			Title:       req.Title,
			Description: req.Description,
			Labels:      req.Labels,
			Push:        true,
		})
		if err != nil {
			return err
		}
		state.MetadataPath = path
		state.mark(PhaseMetadataSaved)
		e.narrator.Success("Saved: %s", path)
		return nil
	})
	if err != nil {
		// The remote state is already consistent.
		e.narrator.Warn("Could not save metadata: %v", err)
		log.Warn("metadata not saved", "branch", name, "error", err)
	}

	return nil
}

// phase runs fn in its own span. Errors are attributed to p.
func (e *Executor) phase(ctx context.Context, log *logging.ScopedLogger, p Phase, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &glerrors.PhaseError{Phase: p.String(), Err: fmt.Errorf("%w: %w", glerrors.ErrCanceled, err)}
	}

	ctx, span := e.tracer.Start(ctx, "phase."+p.String())
	defer span.End()

	log.Debug("phase started", "phase", p.String())
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("phase failed", "phase", p.String(), "error", err)
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", glerrors.ErrCanceled, err)
		}
		return &glerrors.PhaseError{Phase: p.String(), Err: err}
	}
	log.Debug("phase finished", "phase", p.String())
	return nil
}

func phaseList(phases []Phase) string {
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = p.String()
	}
	return strings.Join(names, ",")
}
