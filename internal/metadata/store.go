// Package metadata persists a JSON record for each issue branch.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	glerrors "github.com/chazuruo/glflow/internal/errors"
)

// FileName is the record file written inside each branch directory.
const FileName = "issue.json"

// Record is the metadata kept for a branch.
type Record struct {
	ID          string   `json:"id"`
	IssueCode   string   `json:"issueCode"`
	Branch      string   `json:"branch"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
	Push        bool     `json:"push"`
}

// FileStore writes records to {dir}/{branch}/issue.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the store root.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the record path for a branch.
func (s *FileStore) Path(branch string) (string, error) {
	if branch == "" {
		return "", fmt.Errorf("%w: empty branch name", glerrors.ErrInvalid)
	}
	clean := filepath.Clean(filepath.FromSlash(branch))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: branch %q escapes the metadata directory", glerrors.ErrInvalid, branch)
	}
	return filepath.Join(s.dir, clean, FileName), nil
}

// Save writes the record, creating directories as needed, and returns the
// file path.
func (s *FileStore) Save(_ context.Context, rec Record) (string, error) {
	path, err := s.Path(rec.Branch)
	if err != nil {
		return "", err
	}

	if rec.Labels == nil {
		rec.Labels = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create directory: %v", glerrors.ErrIO, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("%w: failed to write %s: %v", glerrors.ErrIO, path, err)
	}

	return path, nil
}

// Load reads the record for a branch.
func (s *FileStore) Load(_ context.Context, branch string) (*Record, error) {
	path, err := s.Path(branch)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", glerrors.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", glerrors.ErrIO, path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", glerrors.ErrInvalid, path, err)
	}
	return &rec, nil
}
