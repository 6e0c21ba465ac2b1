package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/chazuruo/glflow/internal/config"
	glerrors "github.com/chazuruo/glflow/internal/errors"
)

// InitOptions are the values written to the repository's dotenv file.
type InitOptions struct {
	URL        string
	Token      string
	Project    string
	Remote     string
	IssueDir   string
	BaseBranch string

	// Now stamps the file header and backup name. Zero means time.Now.
	Now time.Time
}

// InitOutput reports the written file.
type InitOutput struct {
	Path        string `json:"path"`
	Backup      string `json:"backup,omitempty"`
	MaskedToken string `json:"masked_token"`

	// TokenWarning is set when the token does not look like a personal
	// access token.
	TokenWarning bool `json:"token_warning,omitempty"`

	// ConfigFile is the user TOML file, set only when Init created it.
	ConfigFile string `json:"config_file,omitempty"`
}

// NormalizeGitLabURL trims whitespace and trailing slashes, and requires an
// http or https scheme.
func NormalizeGitLabURL(raw string) (string, error) {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return "", glerrors.Precondition("GitLab URL must start with http:// or https://: %q", raw)
	}
	return u, nil
}

// ValidateProject accepts a numeric project ID or a namespace/project path.
func ValidateProject(project string) error {
	project = strings.TrimSpace(project)
	if _, err := strconv.Atoi(project); err == nil {
		return nil
	}
	if !strings.Contains(project, "/") || strings.HasPrefix(project, "/") || strings.HasSuffix(project, "/") {
		return glerrors.Precondition("project must be a numeric ID or namespace/project-name: %q", project)
	}
	return nil
}

// TokenLooksValid reports whether token has the personal access token prefix.
func TokenLooksValid(token string) bool {
	return strings.HasPrefix(token, "glpat-")
}

// Init writes the dotenv file at the root of the current repository,
// backing up any existing file.
func Init(ctx context.Context, env Environment, opts InitOptions) (*InitOutput, error) {
	url, err := NormalizeGitLabURL(opts.URL)
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, glerrors.Precondition("a GitLab token is required")
	}
	if err := ValidateProject(opts.Project); err != nil {
		return nil, err
	}

	s, err := open(ctx, env, validateNone)
	if err != nil {
		return nil, err
	}
	defer s.close()

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	values := config.EnvValues{
		URL:        url,
		Token:      token,
		Project:    strings.TrimSpace(opts.Project),
		Remote:     strings.TrimSpace(opts.Remote),
		IssueDir:   strings.TrimSpace(opts.IssueDir),
		BaseBranch: strings.TrimSpace(opts.BaseBranch),
	}
	backup, err := config.WriteEnvFile(s.root, values, now)
	if err != nil {
		return nil, err
	}

	masked := (&config.Config{GitLab: config.GitLabConfig{Token: token}}).MaskedToken()
	path := config.EnvFilePath(s.root)
	s.logs.For("init").Info("dotenv file written", "path", path, "backup", backup)

	out := &InitOutput{
		Path:         path,
		Backup:       backup,
		MaskedToken:  masked,
		TokenWarning: !TokenLooksValid(token),
	}

	// Seed the user file with defaults on first run. GitLab values stay in
	// the repository's dotenv file.
	if env.ConfigPath == "" && config.DetectConfigPath() == "" {
		if userPath := config.UserConfigPath(); userPath != "" {
			if err := config.Write(userPath, config.DefaultConfig()); err != nil {
				s.narrator.Warn("Could not create %s: %v", userPath, err)
				s.logs.For("init").Warn("user config not written", "path", userPath, "error", err)
			} else {
				out.ConfigFile = userPath
			}
		}
	}

	return out, nil
}
