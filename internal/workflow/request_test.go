package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	glerrors "github.com/chazuruo/glflow/internal/errors"
	"github.com/chazuruo/glflow/internal/testutil"
)

func TestLoadRequest_JSON(t *testing.T) {
	path := testutil.WriteRequest(t, "issue.json", `{
  "issueCode": "VTM-1",
  "title": "  Add logout ",
  "description": "Users need to sign out.",
  "labels": ["auth", " ", "frontend"],
  "base": "develop"
}`)

	req, err := LoadRequest(path)
	require.NoError(t, err)

	assert.Equal(t, &Request{
		IssueCode:   "VTM-1",
		Title:       "Add logout",
		Description: "Users need to sign out.",
		Labels:      []string{"auth", "frontend"},
		Base:        "develop",
	}, req)
}

func TestLoadRequest_YAML(t *testing.T) {
	path := testutil.WriteRequest(t, "issue.yaml", `
issueCode: "1372"
title: Search index
labels:
  - backend
`)

	req, err := LoadRequest(path)
	require.NoError(t, err)

	assert.Equal(t, "1372", req.IssueCode)
	assert.Equal(t, "Search index", req.Title)
	assert.Equal(t, []string{"backend"}, req.Labels)
}

func TestLoadRequest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantMsg string
	}{
		{"missing title", "a.json", `{"issueCode": "VTM-1"}`, "title"},
		{"missing issue code", "a.json", `{"title": "x"}`, "issueCode"},
		{"blank title", "a.json", `{"issueCode": "VTM-1", "title": "   "}`, "title"},
		{"labels not a list", "a.json", `{"issueCode": "VTM-1", "title": "x", "labels": "a,b"}`, "labels"},
		{"numeric issue code", "a.json", `{"issueCode": 1372, "title": "x"}`, "issueCode"},
		{"not json", "a.json", `{issueCode`, "not valid JSON"},
		{"not yaml", "a.yml", "title: [unclosed", "not valid YAML"},
		{"empty yaml", "a.yaml", "", "invalid request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteRequest(t, tt.file, tt.content)

			_, err := LoadRequest(path)
			require.Error(t, err)
			assert.True(t, glerrors.IsPrecondition(err), "err = %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadRequest_MissingFile(t *testing.T) {
	_, err := LoadRequest("/nonexistent/issue.json")
	require.Error(t, err)
	assert.True(t, glerrors.IsPrecondition(err))
	assert.Contains(t, err.Error(), "request file not found")
}

func TestRequest_Validate(t *testing.T) {
	req := Request{IssueCode: " ", Title: "x"}
	req.Normalize()

	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issueCode is required")
}
