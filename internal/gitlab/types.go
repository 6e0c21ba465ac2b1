// Package gitlab provides client and data types for the GitLab REST API.
//
// Only the calls glflow needs are covered: issues, merge requests, the
// configured project, and the token's user.
package gitlab

import (
	"net/http"
	"time"
)

// API configuration constants.
const (
	// DefaultAPIEndpoint is the GitLab API v4 endpoint suffix.
	DefaultAPIEndpoint = "/api/v4"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryElapsed bounds the total time spent retrying a GET.
	DefaultRetryElapsed = 10 * time.Second

	// MaxPageSize is the largest per_page GitLab accepts.
	MaxPageSize = 100
)

// Client provides methods to interact with the GitLab REST API.
type Client struct {
	Token      string       // GitLab personal access token
	BaseURL    string       // GitLab instance URL (e.g., "https://gitlab.com")
	ProjectID  string       // Project ID or path (e.g., "group/project")
	HTTPClient *http.Client // Optional custom HTTP client

	// RetryElapsed bounds GET retries. Zero disables retrying.
	RetryElapsed time.Duration
}

// Issue represents an issue from the GitLab API.
type Issue struct {
	ID          int        `json:"id"`  // Global issue ID
	IID         int        `json:"iid"` // Project-scoped issue ID
	ProjectID   int        `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	State       string     `json:"state"` // "opened", "closed", "reopened"
	Labels      []string   `json:"labels"`
	WebURL      string     `json:"web_url"`
	Author      *User      `json:"author,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// IssueUpdate holds the fields of a partial issue update. Empty fields are
// left unchanged.
type IssueUpdate struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// MergeRequest represents a merge request from the GitLab API.
type MergeRequest struct {
	ID           int    `json:"id"`
	IID          int    `json:"iid"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	State        string `json:"state"`
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	WebURL       string `json:"web_url"`
}

// MergeRequestInput is the body of a create-merge-request call.
type MergeRequestInput struct {
	SourceBranch       string `json:"source_branch"`
	TargetBranch       string `json:"target_branch"`
	Title              string `json:"title"`
	Description        string `json:"description,omitempty"`
	RemoveSourceBranch bool   `json:"remove_source_branch"`
}

// User represents a GitLab user.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	State    string `json:"state,omitempty"`
}

// Project represents a GitLab project.
type Project struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	NameWithNamespace string `json:"name_with_namespace"`
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
	DefaultBranch     string `json:"default_branch,omitempty"`
}
