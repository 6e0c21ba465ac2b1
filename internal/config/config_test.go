package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	glerrors "github.com/chazuruo/glflow/internal/errors"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.GitLab = GitLabConfig{
		URL:     "https://gitlab.example.com",
		Token:   "glpat-abcdefghijklmnop",
		Project: "group/project",
	}
	return cfg
}

// TestDefaultConfig verifies that default values are correctly set.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"gitlab.url", cfg.GitLab.URL, ""},
		{"gitlab.remote", cfg.GitLab.Remote, ""},
		{"workflow.issue_dir", cfg.Workflow.IssueDir, "docs/requirements"},
		{"workflow.base_branch", cfg.Workflow.BaseBranch, "main"},
		{"workflow.slug_max_length", cfg.Workflow.SlugMaxLength, 50},
		{"log.enabled", cfg.Log.Enabled, true},
		{"log.level", cfg.Log.Level, "info"},
		{"log.max_size_mb", cfg.Log.MaxSizeMB, 10},
		{"telemetry.exporter", cfg.Telemetry.Exporter, "none"},
		{"ui.color", cfg.UI.Color, true},
		{"ui.interactive", cfg.UI.Interactive, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	assert.True(t, strings.HasSuffix(cfg.Log.File, "glflow.log"), "log.file = %q", cfg.Log.File)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing url", func(c *Config) { c.GitLab.URL = "" }, "gitlab.url is required"},
		{"bad url", func(c *Config) { c.GitLab.URL = "not a url" }, "gitlab.url must be a URL"},
		{"missing token", func(c *Config) { c.GitLab.Token = "" }, "gitlab.token is required"},
		{"missing project", func(c *Config) { c.GitLab.Project = "" }, "gitlab.project is required"},
		{"missing issue dir", func(c *Config) { c.Workflow.IssueDir = "" }, "workflow.issue_dir is required"},
		{"slug too long", func(c *Config) { c.Workflow.SlugMaxLength = 80 }, "workflow.slug_max_length must be <= 50"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level must be one of: debug, info, warn, error"},
		{"otlp needs endpoint", func(c *Config) { c.Telemetry.Exporter = "otlp" }, "telemetry.endpoint is required"},
		{"bad exporter", func(c *Config) { c.Telemetry.Exporter = "jaeger" }, "telemetry.exporter must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, glerrors.IsPrecondition(err), "config errors are preconditions")
			assert.True(t, glerrors.IsInvalid(err))
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gitlab.url is required")
	assert.Contains(t, err.Error(), "gitlab.token is required")
	assert.Contains(t, err.Error(), "gitlab.project is required")
}

func TestValidateLocal_IgnoresGitLab(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.ValidateLocal())

	cfg.Workflow.BaseBranch = ""
	assert.Error(t, cfg.ValidateLocal())
}

func TestMissingGitLab(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, cfg.MissingGitLab())

	cfg.GitLab.URL = ""
	cfg.GitLab.Project = ""
	assert.Equal(t, []string{EnvGitLabURL, EnvGitLabProject}, cfg.MissingGitLab())
}

func TestMaskedToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"glpat-abcdefghijklmnop", "glpat-a************nop"},
		{"short", "*****"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			cfg := &Config{GitLab: GitLabConfig{Token: tt.token}}
			assert.Equal(t, tt.want, cfg.MaskedToken())
		})
	}
}
