// Package errors provides the structured error types used across glflow.
//
// Errors fall into three groups:
//
//   - precondition errors (ErrPrecondition, ErrInvalid, ConfigError) are reported
//     before any repository or tracker mutation is attempted
//   - external-call errors (GitError, APIError, wrapped in PhaseError) abort the
//     running workflow and trigger rollback
//   - rollback errors are logged as warnings and never returned
//
// # Usage
//
//	// Use sentinel errors directly
//	return errors.ErrNotFound
//
//	// Wrap with context using fmt.Errorf
//	return fmt.Errorf("load request: %w", err)
//
//	// Attribute a failure to a workflow phase
//	return &errors.PhaseError{Phase: "pushed", Err: err}
//
//	// Check error types
//	if errors.IsPrecondition(err) {
//	    // nothing was changed
//	}
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Base error types (sentinel errors).
var (
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = baseError("not found")

	// ErrAlreadyExists indicates a duplicate resource.
	ErrAlreadyExists = baseError("already exists")

	// ErrInvalid indicates validation failed.
	ErrInvalid = baseError("invalid")

	// ErrGit indicates a git operation failed.
	ErrGit = baseError("git operation failed")

	// ErrIO indicates a file I/O error.
	ErrIO = baseError("I/O error")

	// ErrCanceled indicates the user canceled an operation.
	ErrCanceled = baseError("canceled")

	// ErrPrecondition indicates a required condition for starting an operation was not met.
	ErrPrecondition = baseError("precondition failed")

	// ErrAPI indicates the issue tracker rejected a request.
	ErrAPI = baseError("issue tracker request failed")
)

// baseError is a string that implements error.
type baseError string

func (e baseError) Error() string { return string(e) }

// PhaseError attributes an error to the workflow phase that produced it.
type PhaseError struct {
	// Phase is the phase identifier (e.g., "stashed", "pushed").
	Phase string
	// Err is the underlying error.
	Err error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s: %s", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// GitError represents an error that occurred during a git operation.
type GitError struct {
	// Op is the git operation being performed (e.g., "checkout", "pull", "push").
	Op string
	// Err is the underlying error.
	Err error
	// Cmd is the full git command that was executed (optional).
	Cmd string
}

func (e *GitError) Error() string {
	if e.Cmd != "" {
		return fmt.Sprintf("git %s: %s\n  cmd: %s", e.Op, e.Err, e.Cmd)
	}
	return fmt.Sprintf("git %s: %s", e.Op, e.Err)
}

func (e *GitError) Unwrap() error { return e.Err }

// Is makes every GitError match ErrGit.
func (e *GitError) Is(target error) bool { return target == ErrGit }

// ConfigError represents an error related to configuration.
type ConfigError struct {
	// Path is the configuration file path (optional).
	Path string
	// Err is the underlying error.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is makes every ConfigError a precondition failure.
func (e *ConfigError) Is(target error) bool { return target == ErrPrecondition }

// APIError is a non-2xx response from the GitLab REST API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Body is the raw response body, surfaced as the error detail.
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitLab API error (%d): %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *APIError) Unwrap() error { return ErrAPI }

// Precondition returns an error wrapping ErrPrecondition with a formatted message.
func Precondition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err is or wraps ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalid reports whether err is or wraps ErrInvalid.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

// IsGit reports whether err is or wraps ErrGit.
func IsGit(err error) bool {
	return errors.Is(err, ErrGit)
}

// IsCanceled reports whether err is or wraps ErrCanceled.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsPrecondition reports whether err is or wraps ErrPrecondition.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsAPI reports whether err is or wraps ErrAPI.
func IsAPI(err error) bool {
	return errors.Is(err, ErrAPI)
}

// AsPhaseError reports whether err can be typed as a *PhaseError.
func AsPhaseError(err error) (*PhaseError, bool) {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// AsConfigError reports whether err can be typed as a *ConfigError.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// AsAPIError reports whether err can be typed as an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
