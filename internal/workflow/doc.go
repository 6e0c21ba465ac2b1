// Package workflow implements the start workflow: it creates a GitLab issue,
// moves local changes aside, creates and publishes the issue branch from the
// latest base, restores the changes onto it, and records metadata.
//
// Each side-effecting step is marked in a StepSet once it succeeds. When a
// later step fails, rollback undoes the marked steps in reverse order:
//
//	stash_popped      re-stash the restored changes
//	pushed            delete the remote branch
//	branch_created    leave and force-delete the local branch
//	switched_to_base  check out the original branch
//	stashed           pop the outstanding stash
//
// The created issue is never deleted; the failure result names it so it can
// be closed by hand. Rollback failures are logged as warnings and never
// returned.
package workflow
