package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Write writes the config to a file in TOML format.
func Write(path string, cfg *Config) error {
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// The file can hold a token.
	if err := os.WriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// EnvValues are the settings written to the dotenv file.
type EnvValues struct {
	URL        string
	Token      string
	Project    string
	Remote     string
	IssueDir   string
	BaseBranch string
}

// WriteEnvFile writes the dotenv file under repoRoot with mode 0600. An
// existing file is first renamed to <file>.backup.<timestamp>, and that
// path is returned.
func WriteEnvFile(repoRoot string, values EnvValues, now time.Time) (backup string, err error) {
	path := EnvFilePath(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	if _, err := os.Stat(path); err == nil {
		backup = path + ".backup." + now.Format("20060102-150405")
		if err := os.Rename(path, backup); err != nil {
			return "", fmt.Errorf("failed to back up %s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, []byte(renderEnvFile(values, now)), 0600); err != nil {
		return backup, fmt.Errorf("failed to write %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file; enforce it.
	if err := os.Chmod(path, 0600); err != nil {
		return backup, fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	return backup, nil
}

func renderEnvFile(v EnvValues, now time.Time) string {
	if v.IssueDir == "" {
		v.IssueDir = "docs/requirements"
	}
	if v.BaseBranch == "" {
		v.BaseBranch = "main"
	}

	var b strings.Builder
	b.WriteString("# GitLab Workflow Environment Configuration\n")
	fmt.Fprintf(&b, "# Generated by: glflow init on %s\n\n", now.Format("2006-01-02"))

	b.WriteString("# Required - GitLab instance URL\n")
	fmt.Fprintf(&b, "%s=%s\n\n", EnvGitLabURL, v.URL)
	b.WriteString("# Required - Personal Access Token (must have 'api' scope)\n")
	fmt.Fprintf(&b, "%s=%s\n\n", EnvGitLabToken, v.Token)
	b.WriteString("# Required - Project ID or path (format: namespace/project-name)\n")
	fmt.Fprintf(&b, "%s=%s\n", EnvGitLabProject, v.Project)

	if v.Remote != "" {
		b.WriteString("\n# Optional - Git remote name (default: auto-detect)\n")
		fmt.Fprintf(&b, "%s=%s\n", EnvGitLabRemote, v.Remote)
	}

	b.WriteString("\n# Optional - Directory to save issue.json files (default: docs/requirements)\n")
	fmt.Fprintf(&b, "%s=%s\n", EnvIssueDir, v.IssueDir)
	b.WriteString("\n# Optional - Base branch for new branches (default: main)\n")
	b.WriteString("# A remote prefix selects the remote, e.g. origin/main or gitlab/develop\n")
	fmt.Fprintf(&b, "%s=%s\n", EnvBaseBranch, v.BaseBranch)

	return b.String()
}
