package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	glerrors "github.com/chazuruo/glflow/internal/errors"
)

// Environment variable names.
const (
	EnvGitLabURL     = "GITLAB_URL"
	EnvGitLabToken   = "GITLAB_TOKEN"
	EnvGitLabProject = "GITLAB_PROJECT"
	EnvGitLabRemote  = "GITLAB_REMOTE"
	EnvIssueCode     = "ISSUE_CODE"
	EnvAsanaIssue    = "ASANA_ISSUE"
	EnvIssueDir      = "ISSUE_DIR"
	EnvBaseBranch    = "BASE_BRANCH"
)

// EnvFile is the repo-relative path of the per-repository dotenv file.
var EnvFile = filepath.Join(".claude", ".env.gitlab-workflow")

// Overrides holds values given on the command line. Empty fields are ignored.
type Overrides struct {
	URL       string
	Token     string
	Project   string
	Remote    string
	IssueCode string
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// ConfigPath is the TOML file. Empty means DetectConfigPath().
	ConfigPath string

	// RepoRoot is the working-copy root holding the dotenv file. Empty
	// skips the dotenv file.
	RepoRoot string

	// Overrides are applied last.
	Overrides Overrides
}

// UserConfigPath returns where the user TOML file lives:
// $XDG_CONFIG_HOME/glflow/config.toml, else ~/.config/glflow/config.toml.
func UserConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "glflow", "config.toml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "glflow", "config.toml")
}

// DetectConfigPath returns the user TOML file if it exists, or an empty
// string.
func DetectConfigPath() string {
	path := UserConfigPath()
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// EnvFilePath returns the dotenv path for a repository root.
func EnvFilePath(repoRoot string) string {
	return filepath.Join(repoRoot, EnvFile)
}

// Load builds a Config from defaults, the TOML file, the dotenv file, the
// environment, and overrides. It does not validate; callers pick Validate or
// ValidateLocal depending on what they need.
func Load(opts LoadOptions) (*Config, error) {
	cfg := DefaultConfig()

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = DetectConfigPath()
	}
	if configPath != "" {
		if err := loadTOML(configPath, cfg); err != nil {
			return nil, err
		}
		cfg.Sources = append(cfg.Sources, configPath)
	}

	if opts.RepoRoot != "" {
		envPath := EnvFilePath(opts.RepoRoot)
		found, err := loadEnvFile(envPath, cfg)
		if err != nil {
			return nil, err
		}
		if found {
			cfg.Sources = append(cfg.Sources, envPath)
		}
	}

	applyEnvOverrides(cfg)
	applyOverrides(cfg, opts.Overrides)
	expandPath(cfg)

	return cfg, nil
}

func loadTOML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &glerrors.ConfigError{Path: path, Err: fmt.Errorf("%w: %v", glerrors.ErrIO, err)}
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return &glerrors.ConfigError{Path: path, Err: fmt.Errorf("%w: %v", glerrors.ErrInvalid, err)}
	}
	return nil
}

// loadEnvFile reads KEY=VALUE pairs from the dotenv file. A missing file is
// not an error.
func loadEnvFile(path string, cfg *Config) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return false, &glerrors.ConfigError{Path: path, Err: fmt.Errorf("%w: %v", glerrors.ErrInvalid, err)}
	}

	// viper lowercases keys.
	set := func(key string, target *string) {
		if val := strings.TrimSpace(v.GetString(strings.ToLower(key))); val != "" {
			*target = val
		}
	}
	set(EnvGitLabURL, &cfg.GitLab.URL)
	set(EnvGitLabToken, &cfg.GitLab.Token)
	set(EnvGitLabProject, &cfg.GitLab.Project)
	set(EnvGitLabRemote, &cfg.GitLab.Remote)
	set(EnvAsanaIssue, &cfg.Workflow.IssueCode)
	set(EnvIssueCode, &cfg.Workflow.IssueCode)
	set(EnvIssueDir, &cfg.Workflow.IssueDir)
	set(EnvBaseBranch, &cfg.Workflow.BaseBranch)

	return true, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// The GitLab and workflow keys share names with the dotenv file; ambient
// settings use GLFLOW_<SECTION>_<FIELD>.
func applyEnvOverrides(c *Config) {
	applyString := func(key string, target *string) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			*target = val
		}
	}

	applyBool := func(key string, target *bool) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				*target = b
			}
		}
	}

	applyInt := func(key string, target *int) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				*target = i
			}
		}
	}

	applyString(EnvGitLabURL, &c.GitLab.URL)
	applyString(EnvGitLabToken, &c.GitLab.Token)
	applyString(EnvGitLabProject, &c.GitLab.Project)
	applyString(EnvGitLabRemote, &c.GitLab.Remote)

	applyString(EnvAsanaIssue, &c.Workflow.IssueCode)
	applyString(EnvIssueCode, &c.Workflow.IssueCode)
	applyString(EnvIssueDir, &c.Workflow.IssueDir)
	applyString(EnvBaseBranch, &c.Workflow.BaseBranch)
	applyInt("GLFLOW_WORKFLOW_SLUG_MAX_LENGTH", &c.Workflow.SlugMaxLength)

	applyBool("GLFLOW_LOG_ENABLED", &c.Log.Enabled)
	applyString("GLFLOW_LOG_LEVEL", &c.Log.Level)
	applyString("GLFLOW_LOG_FILE", &c.Log.File)

	applyString("GLFLOW_TELEMETRY_EXPORTER", &c.Telemetry.Exporter)
	applyString("GLFLOW_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)

	applyBool("GLFLOW_UI_COLOR", &c.UI.Color)
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.UI.Color = false
	}
}

func applyOverrides(c *Config, o Overrides) {
	apply := func(val string, target *string) {
		if val != "" {
			*target = val
		}
	}
	apply(o.URL, &c.GitLab.URL)
	apply(o.Token, &c.GitLab.Token)
	apply(o.Project, &c.GitLab.Project)
	apply(o.Remote, &c.GitLab.Remote)
	apply(o.IssueCode, &c.Workflow.IssueCode)
}

// expandPath expands ~ in the log file path.
func expandPath(c *Config) {
	if strings.HasPrefix(c.Log.File, "~/") || c.Log.File == "~" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			c.Log.File = filepath.Join(homeDir, strings.TrimPrefix(c.Log.File, "~"))
		}
	}
	c.GitLab.URL = strings.TrimRight(c.GitLab.URL, "/")
}
