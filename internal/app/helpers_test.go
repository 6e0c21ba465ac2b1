package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chazuruo/glflow/internal/config"
	"github.com/chazuruo/glflow/internal/gitlab"
	"github.com/chazuruo/glflow/internal/logging"
)

// testEnv isolates config discovery from the host and points GitLab at
// gitlabURL for project 42.
func testEnv(t *testing.T, dir, gitlabURL string) (Environment, *bytes.Buffer) {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	for _, key := range []string{
		config.EnvGitLabURL, config.EnvGitLabToken, config.EnvGitLabProject, config.EnvGitLabRemote,
		config.EnvIssueCode, config.EnvAsanaIssue, config.EnvIssueDir, config.EnvBaseBranch,
	} {
		t.Setenv(key, "")
	}

	var out bytes.Buffer
	return Environment{
		Dir: dir,
		Overrides: config.Overrides{
			URL:     gitlabURL,
			Token:   "glpat-test-token",
			Project: "42",
		},
		Out:     &out,
		NoColor: true,
		Logs:    logging.NopProvider{},
	}, &out
}

// fakeGitLab serves the project 42 endpoints glflow calls.
type fakeGitLab struct {
	mu      sync.Mutex
	nextIID int
	issues  map[int]gitlab.Issue
	updates map[int]gitlab.IssueUpdate
	mrs     []gitlab.MergeRequestInput
}

func newFakeGitLab(t *testing.T) (*fakeGitLab, *httptest.Server) {
	t.Helper()

	f := &fakeGitLab{
		nextIID: 7,
		issues:  map[int]gitlab.Issue{},
		updates: map[int]gitlab.IssueUpdate{},
	}
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	notFound := func(w http.ResponseWriter) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "404 Not found"})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v4/projects/42", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, gitlab.Project{
			ID:                42,
			NameWithNamespace: "Group / Project",
			WebURL:            "https://gitlab.example.com/group/project",
		})
	})
	mux.HandleFunc("GET /api/v4/projects/42/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		writeJSON(w, http.StatusOK, []gitlab.Issue{})
	})
	mux.HandleFunc("POST /api/v4/projects/42/issues", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		f.mu.Lock()
		issue := gitlab.Issue{
			IID:         f.nextIID,
			Title:       body["title"],
			Description: body["description"],
			State:       "opened",
			WebURL:      "https://gitlab.example.com/group/project/-/issues/" + strconv.Itoa(f.nextIID),
		}
		f.issues[issue.IID] = issue
		f.nextIID++
		f.mu.Unlock()

		writeJSON(w, http.StatusCreated, issue)
	})
	mux.HandleFunc("GET /api/v4/projects/42/issues/{iid}", func(w http.ResponseWriter, r *http.Request) {
		iid, _ := strconv.Atoi(r.PathValue("iid"))
		f.mu.Lock()
		issue, ok := f.issues[iid]
		f.mu.Unlock()
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, issue)
	})
	mux.HandleFunc("PUT /api/v4/projects/42/issues/{iid}", func(w http.ResponseWriter, r *http.Request) {
		iid, _ := strconv.Atoi(r.PathValue("iid"))
		var update gitlab.IssueUpdate
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&update))

		f.mu.Lock()
		defer f.mu.Unlock()
		issue, ok := f.issues[iid]
		if !ok {
			notFound(w)
			return
		}
		f.updates[iid] = update
		if update.Title != "" {
			issue.Title = update.Title
		}
		issue.Description = update.Description
		f.issues[iid] = issue
		writeJSON(w, http.StatusOK, issue)
	})
	mux.HandleFunc("POST /api/v4/projects/42/merge_requests", func(w http.ResponseWriter, r *http.Request) {
		var input gitlab.MergeRequestInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&input))

		f.mu.Lock()
		f.mrs = append(f.mrs, input)
		iid := len(f.mrs)
		f.mu.Unlock()

		writeJSON(w, http.StatusCreated, gitlab.MergeRequest{
			IID:          iid,
			Title:        input.Title,
			Description:  input.Description,
			State:        "opened",
			SourceBranch: input.SourceBranch,
			TargetBranch: input.TargetBranch,
			WebURL:       "https://gitlab.example.com/group/project/-/merge_requests/" + strconv.Itoa(iid),
		})
	})
	mux.HandleFunc("GET /api/v4/user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, gitlab.User{ID: 1, Username: "tester"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeGitLab) seedIssue(iid int, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[iid] = gitlab.Issue{
		IID:    iid,
		Title:  title,
		State:  "opened",
		Labels: []string{"backend"},
		WebURL: "https://gitlab.example.com/group/project/-/issues/" + strconv.Itoa(iid),
	}
}

func (f *fakeGitLab) issue(iid int) gitlab.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issues[iid]
}

func (f *fakeGitLab) update(iid int) gitlab.IssueUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates[iid]
}

func (f *fakeGitLab) mergeRequests() []gitlab.MergeRequestInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gitlab.MergeRequestInput(nil), f.mrs...)
}
