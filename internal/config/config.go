// Package config provides configuration management for glflow.
//
// A Config is assembled once at startup from defaults, an optional TOML
// file, the per-repository dotenv file, the process environment, and CLI
// flags, in that order of precedence. It is not modified after Load returns.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	glerrors "github.com/chazuruo/glflow/internal/errors"
)

// Config is the top-level configuration struct for glflow.
type Config struct {
	GitLab    GitLabConfig    `toml:"gitlab"`
	Workflow  WorkflowConfig  `toml:"workflow"`
	Log       LogConfig       `toml:"log"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	UI        UIConfig        `toml:"ui"`

	// Sources lists the files that contributed values, in load order.
	Sources []string `toml:"-"`
}

// GitLabConfig identifies the GitLab instance and project.
type GitLabConfig struct {
	// URL is the instance URL (e.g., "https://gitlab.example.com").
	URL string `toml:"url" validate:"required,url"`

	// Token is a personal access token with api scope.
	Token string `toml:"token" validate:"required"`

	// Project is the numeric project ID or its path ("group/project").
	Project string `toml:"project" validate:"required"`

	// Remote overrides remote auto-detection when set.
	Remote string `toml:"remote"`
}

// WorkflowConfig contains settings for issue and branch workflows.
type WorkflowConfig struct {
	// IssueCode is the default tracking label for new issues.
	IssueCode string `toml:"issue_code"`

	// IssueDir is the repo-relative directory for issue metadata.
	IssueDir string `toml:"issue_dir" validate:"required"`

	// BaseBranch is the default base branch, optionally remote-qualified
	// ("main", "origin/develop").
	BaseBranch string `toml:"base_branch" validate:"required"`

	// SlugMaxLength bounds the title slug in branch names.
	SlugMaxLength int `toml:"slug_max_length" validate:"gte=1,lte=50"`
}

// LogConfig controls the structured diagnostics log.
type LogConfig struct {
	// Enabled turns file logging on.
	Enabled bool `toml:"enabled"`

	// Level is the minimum level written.
	Level string `toml:"level" validate:"oneof=debug info warn error"`

	// File is the log file path.
	File string `toml:"file" validate:"required_if=Enabled true"`

	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int `toml:"max_size_mb" validate:"gte=1"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `toml:"max_backups" validate:"gte=0"`
}

// TelemetryConfig controls tracing of workflow phases.
type TelemetryConfig struct {
	// Exporter selects where spans go.
	Exporter string `toml:"exporter" validate:"oneof=none stdout otlp"`

	// Endpoint is the OTLP/HTTP collector address (host:port).
	Endpoint string `toml:"endpoint" validate:"required_if=Exporter otlp"`
}

// UIConfig contains terminal output settings.
type UIConfig struct {
	// Color enables styled output.
	Color bool `toml:"color"`

	// Interactive enables huh forms; when false, flags must supply all input.
	Interactive bool `toml:"interactive"`
}

// DefaultConfig returns a Config with all default values set.
func DefaultConfig() *Config {
	return &Config{
		Workflow: WorkflowConfig{
			IssueDir:      "docs/requirements",
			BaseBranch:    "main",
			SlugMaxLength: 50,
		},
		Log: LogConfig{
			Enabled:    true,
			Level:      "info",
			File:       defaultLogFile(),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Telemetry: TelemetryConfig{
			Exporter: "none",
		},
		UI: UIConfig{
			Color:       true,
			Interactive: true,
		},
	}
}

// defaultLogFile returns $XDG_STATE_HOME/glflow/glflow.log.
func defaultLogFile() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "glflow", "glflow.log")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "glflow.log")
	}
	return filepath.Join(homeDir, ".local", "state", "glflow", "glflow.log")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every section, including the GitLab connection settings.
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateLocal checks every section except GitLab. It is used by commands
// that only touch the local repository.
func (c *Config) ValidateLocal() error {
	return c.validate(false)
}

func (c *Config) validate(withGitLab bool) error {
	sections := []struct {
		name  string
		value any
	}{
		{"workflow", c.Workflow},
		{"log", c.Log},
		{"telemetry", c.Telemetry},
	}
	if withGitLab {
		sections = append([]struct {
			name  string
			value any
		}{{"gitlab", c.GitLab}}, sections...)
	}

	var problems []string
	for _, s := range sections {
		problems = append(problems, validateSection(s.name, s.value)...)
	}
	if len(problems) == 0 {
		return nil
	}

	return &glerrors.ConfigError{
		Path: c.source(),
		Err:  fmt.Errorf("%w: %s", glerrors.ErrInvalid, strings.Join(problems, "; ")),
	}
}

func validateSection(section string, v any) []string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{fmt.Sprintf("%s: %v", section, err)}
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(section+"."+fe.Field(), fe))
	}
	return problems
}

func describe(key string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return key + " is required"
	case "url":
		return fmt.Sprintf("%s must be a URL; got %q", key, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s; got %q", key, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s; got %v", key, map[string]string{"gte": ">=", "lte": "<="}[fe.Tag()], fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}

func (c *Config) source() string {
	if len(c.Sources) == 0 {
		return ""
	}
	return c.Sources[len(c.Sources)-1]
}

// MissingGitLab returns the environment names of required GitLab settings
// that are empty, in GITLAB_URL, GITLAB_TOKEN, GITLAB_PROJECT order.
func (c *Config) MissingGitLab() []string {
	var missing []string
	if c.GitLab.URL == "" {
		missing = append(missing, EnvGitLabURL)
	}
	if c.GitLab.Token == "" {
		missing = append(missing, EnvGitLabToken)
	}
	if c.GitLab.Project == "" {
		missing = append(missing, EnvGitLabProject)
	}
	return missing
}

// MaskedToken returns the token with its middle replaced by asterisks.
func (c *Config) MaskedToken() string {
	token := c.GitLab.Token
	if len(token) <= 10 {
		return strings.Repeat("*", len(token))
	}
	return token[:7] + strings.Repeat("*", len(token)-10) + token[len(token)-3:]
}
