package hosting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedRepo creates a local git repository with two commits and returns its
// path and the commit SHAs, oldest first.
func seedRepo(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	var shas []string
	commit := func(path, content, msg string, when time.Time) {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, path)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, path), []byte(content), 0o644))
		_, err := wt.Add(path)
		require.NoError(t, err)
		hash, err := wt.Commit(msg, &gogit.CommitOptions{
			Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: when},
		})
		require.NoError(t, err)
		shas = append(shas, hash.String())
	}

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	commit("src/charge.js", "function charge(amount) {\n  return amount;\n}\n", "add charge", base)
	commit("docs/guide.md", "# Guide\n", "add guide", base.Add(time.Hour))

	return dir, shas
}

func TestMirror_SyncCloneThenFetch(t *testing.T) {
	src, _ := seedRepo(t)
	m := NewMirror(t.TempDir(), nil)
	ctx := context.Background()

	require.NoError(t, m.Sync(ctx, "acme", "billing", src))

	// Second sync takes the fetch path against the existing clone.
	require.NoError(t, m.Sync(ctx, "acme", "billing", src))
}

func TestMirror_CommitsSince(t *testing.T) {
	src, shas := seedRepo(t)
	m := NewMirror(t.TempDir(), nil)
	ctx := context.Background()
	require.NoError(t, m.Sync(ctx, "acme", "billing", src))

	commits, err := m.CommitsSince(ctx, "acme", "billing", "", nil)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, shas[1], commits[0].SHA)
	assert.Equal(t, shas[0], commits[1].SHA)
	assert.Equal(t, "dev", commits[0].Author.Name)

	cutoff := time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)
	recent, err := m.CommitsSince(ctx, "acme", "billing", "", &cutoff)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, shas[1], recent[0].SHA)
}

func TestMirror_FileAt(t *testing.T) {
	src, shas := seedRepo(t)
	m := NewMirror(t.TempDir(), nil)
	ctx := context.Background()
	require.NoError(t, m.Sync(ctx, "acme", "billing", src))

	content, err := m.FileAt(ctx, "acme", "billing", shas[0], "src/charge.js")
	require.NoError(t, err)
	assert.Contains(t, content, "function charge(amount)")

	// guide.md does not exist yet at the first commit.
	_, err = m.FileAt(ctx, "acme", "billing", shas[0], "docs/guide.md")
	assert.True(t, errors.Is(err, ErrFileAbsent))

	_, err = m.FileAt(ctx, "acme", "billing", shas[1], "docs/guide.md")
	require.NoError(t, err)
}

func TestMirror_ListTree(t *testing.T) {
	src, shas := seedRepo(t)
	m := NewMirror(t.TempDir(), nil)
	ctx := context.Background()
	require.NoError(t, m.Sync(ctx, "acme", "billing", src))

	entries, err := m.ListTree(ctx, "acme", "billing", shas[1], "")
	require.NoError(t, err)

	byPath := map[string]DirEntry{}
	for _, e := range entries {
		byPath[e.Path] = e
	}
	require.Contains(t, byPath, "src")
	require.Contains(t, byPath, "docs")
	assert.Equal(t, "dir", byPath["src"].Type)

	files, err := m.ListTree(ctx, "acme", "billing", shas[1], "src")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "src/charge.js", files[0].Path)
	assert.Equal(t, "file", files[0].Type)
	assert.Positive(t, files[0].Size)
}

func TestLocalClient_ServesHostSurface(t *testing.T) {
	src, shas := seedRepo(t)
	ctx := context.Background()

	client := NewLocalClient(t.TempDir(), func(_ context.Context, owner, repo string) (string, error) {
		require.Equal(t, "acme", owner)
		require.Equal(t, "billing", repo)
		return src, nil
	}, nil)

	commits, err := client.Commits(ctx, "acme", "billing", CommitOptions{PerPage: 1})
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, shas[1], commits[0].SHA)

	content, err := client.FileContent(ctx, "acme", "billing", "src/charge.js", commits[0].SHA)
	require.NoError(t, err)
	assert.Contains(t, content, "charge")

	entries, err := client.ListDirectory(ctx, "acme", "billing", "", commits[0].SHA)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestLocalClient_ResolverError(t *testing.T) {
	client := NewLocalClient(t.TempDir(), func(context.Context, string, string) (string, error) {
		return "", errors.New("unknown repository")
	}, nil)

	_, err := client.Commits(context.Background(), "acme", "billing", CommitOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve remote")
}
