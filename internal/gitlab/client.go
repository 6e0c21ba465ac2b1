package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cenkalti/backoff/v4"

	glerrors "github.com/chazuruo/glflow/internal/errors"
)

// NewClient creates a client for one project on a GitLab instance.
func NewClient(token, baseURL, projectID string) *Client {
	return &Client{
		Token:        token,
		BaseURL:      baseURL,
		ProjectID:    projectID,
		HTTPClient:   &http.Client{Timeout: DefaultTimeout},
		RetryElapsed: DefaultRetryElapsed,
	}
}

// WithHTTPClient returns a copy of the client that uses httpClient.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	clone := *c
	clone.HTTPClient = httpClient
	return &clone
}

// CreateIssue creates an issue. Labels are sent comma-joined.
func (c *Client) CreateIssue(ctx context.Context, title, description string, labels []string) (*Issue, error) {
	body := map[string]string{"title": title}
	if description != "" {
		body["description"] = description
	}
	if len(labels) > 0 {
		body["labels"] = strings.Join(labels, ",")
	}

	var issue Issue
	if err := c.do(ctx, http.MethodPost, c.projectURL("/issues"), nil, body, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// UpdateIssue applies a partial update to the issue with the given IID.
func (c *Client) UpdateIssue(ctx context.Context, iid int, update IssueUpdate) (*Issue, error) {
	var issue Issue
	path := c.projectURL("/issues/" + strconv.Itoa(iid))
	if err := c.do(ctx, http.MethodPut, path, nil, update, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetIssue fetches a single issue by its project-scoped IID.
func (c *Client) GetIssue(ctx context.Context, iid int) (*Issue, error) {
	var issue Issue
	path := c.projectURL("/issues/" + strconv.Itoa(iid))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListIssues returns the first page of project issues.
func (c *Client) ListIssues(ctx context.Context, perPage int) ([]Issue, error) {
	if perPage <= 0 || perPage > MaxPageSize {
		perPage = MaxPageSize
	}

	var issues []Issue
	params := map[string]string{"per_page": strconv.Itoa(perPage)}
	if err := c.do(ctx, http.MethodGet, c.projectURL("/issues"), params, nil, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// CreateMergeRequest opens a merge request.
func (c *Client) CreateMergeRequest(ctx context.Context, input MergeRequestInput) (*MergeRequest, error) {
	var mr MergeRequest
	if err := c.do(ctx, http.MethodPost, c.projectURL("/merge_requests"), nil, input, &mr); err != nil {
		return nil, err
	}
	return &mr, nil
}

// GetProject fetches the configured project.
func (c *Client) GetProject(ctx context.Context) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodGet, c.projectURL(""), nil, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CurrentUser returns the user that owns the token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// projectPath returns the URL-encoded project ID.
func (c *Client) projectPath() string {
	return url.PathEscape(c.ProjectID)
}

func (c *Client) projectURL(suffix string) string {
	return "/projects/" + c.projectPath() + suffix
}

// buildURL joins the instance URL, the API endpoint, path, and query params.
func (c *Client) buildURL(path string, params map[string]string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if !strings.HasSuffix(base, DefaultAPIEndpoint) {
		base += DefaultAPIEndpoint
	}

	u := base + path
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}
	return u
}

// do sends one API request and decodes the response into out. GET requests
// are retried on transport errors, 5xx, and 429; other methods are sent once.
func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	attempt := func() error {
		err := c.send(ctx, method, path, params, payload, out)
		if err == nil {
			return nil
		}
		if retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	if method != http.MethodGet || c.RetryElapsed <= 0 {
		return c.send(ctx, method, path, params, payload, out)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.RetryElapsed
	return backoff.Retry(attempt, backoff.WithContext(bo, ctx))
}

func (c *Client) send(ctx context.Context, method, path string, params map[string]string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, params), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", c.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "glflow")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &transportError{err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &glerrors.APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if resp.StatusCode == http.StatusNoContent || out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// transportError marks a failure before a response was read.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "GitLab request failed: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func retryable(err error) bool {
	if _, ok := err.(*transportError); ok {
		return true
	}
	if apiErr, ok := glerrors.AsAPIError(err); ok {
		return apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
