package hosting

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileContent(t *testing.T) {
	var gotAuth, gotRef string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/billing/contents/src/pay.ts", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotRef = r.URL.Query().Get("ref")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"type": "file",
			"name": "pay.ts",
			"path": "src/pay.ts",
			"encoding": "base64",
			"content": "` + base64.StdEncoding.EncodeToString([]byte("export function pay() {}\n")) + `"
		}`))
	}))
	defer srv.Close()

	client := NewGitHubClient(srv.URL, nil, WithToken("tok-123"))
	content, err := client.FileContent(context.Background(), "acme", "billing", "src/pay.ts", "main")
	require.NoError(t, err)
	assert.Equal(t, "export function pay() {}\n", content)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "main", gotRef)
}

func TestFileContent_Absent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewGitHubClient(srv.URL, nil).FileContent(context.Background(), "acme", "billing", "gone.ts", "")
	assert.True(t, errors.Is(err, ErrFileAbsent))
}

func TestFileContent_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewGitHubClient(srv.URL, nil).FileContent(context.Background(), "acme", "billing", "a.ts", "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrFileAbsent), "transport errors are not absence")
}

func TestCommits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/billing/commits", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("sha"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		assert.Equal(t, "2026-08-01T00:00:00Z", r.URL.Query().Get("since"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"sha": "abc", "commit": {"message": "fix pay", "author": {"name": "Dev", "email": "d@acme.io", "date": "2026-08-02T10:00:00Z"}}},
			{"sha": "def", "commit": {"message": "add refund", "author": {"name": "Dev", "email": "d@acme.io", "date": "2026-08-01T09:00:00Z"}}}
		]`))
	}))
	defer srv.Close()

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	commits, err := NewGitHubClient(srv.URL, nil).Commits(context.Background(), "acme", "billing", CommitOptions{
		Since:   &since,
		SHA:     "main",
		PerPage: 50,
	})
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "abc", commits[0].SHA)
	assert.Equal(t, "fix pay", commits[0].Message)
	assert.Equal(t, "Dev", commits[0].Author.Name)
}

func TestListDirectory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"type": "file", "name": "pay.ts", "path": "src/pay.ts", "size": 120},
			{"type": "dir", "name": "util", "path": "src/util"}
		]`))
	}))
	defer srv.Close()

	entries, err := NewGitHubClient(srv.URL, nil).ListDirectory(context.Background(), "acme", "billing", "src", "main")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "file", entries[0].Type)
	assert.Equal(t, int64(120), entries[0].Size)
	assert.Equal(t, "dir", entries[1].Type)
}
