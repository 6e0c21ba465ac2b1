// Package lock keeps two glflow runs from mutating the same checkout.
package lock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	glerrors "github.com/chazuruo/glflow/internal/errors"
)

// FileName is the lock file created inside the .git directory.
const FileName = "glflow.lock"

// Lock is a held repository lock.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes a non-blocking exclusive lock in gitDir. It fails with a
// precondition error when another process holds it.
func Acquire(gitDir string) (*Lock, error) {
	lockPath := filepath.Join(gitDir, FileName)
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, glerrors.Precondition("another glflow command is running in this repository (%s)", lockPath)
	}
	return &Lock{fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Release unlocks. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
