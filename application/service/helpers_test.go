package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codecite/codecite/application/service"
	"github.com/codecite/codecite/infrastructure/hosting"
	"github.com/codecite/codecite/infrastructure/persistence"
	"github.com/codecite/codecite/internal/testdb"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed
}

// fakeHost serves file trees per ref from memory.
type fakeHost struct {
	files      map[string]map[string]string // ref -> path -> content
	commits    []hosting.Commit
	commitsErr error
}

func (f *fakeHost) FileContent(_ context.Context, _, _, path, ref string) (string, error) {
	tree, ok := f.files[ref]
	if !ok {
		return "", hosting.ErrFileAbsent
	}
	content, ok := tree[path]
	if !ok {
		return "", hosting.ErrFileAbsent
	}
	return content, nil
}

func (f *fakeHost) Commits(_ context.Context, _, _ string, _ hosting.CommitOptions) ([]hosting.Commit, error) {
	if f.commitsErr != nil {
		return nil, f.commitsErr
	}
	return f.commits, nil
}

func (f *fakeHost) ListDirectory(_ context.Context, _, _, dir, ref string) ([]hosting.DirEntry, error) {
	tree := f.files[ref]
	seen := make(map[string]bool)
	var entries []hosting.DirEntry
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}
	for path := range tree {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		if name, _, nested := strings.Cut(rest, "/"); nested {
			sub := prefix + name
			if !seen[sub] {
				seen[sub] = true
				entries = append(entries, hosting.DirEntry{Name: name, Path: sub, Type: "dir"})
			}
		} else {
			entries = append(entries, hosting.DirEntry{Name: rest, Path: path, Type: "file"})
		}
	}
	return entries, nil
}

// recordingNotifier captures conflicts for assertions.
type recordingNotifier struct {
	mu        sync.Mutex
	conflicts []service.Conflict
}

func (n *recordingNotifier) NotifyConflict(_ context.Context, c service.Conflict) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.conflicts = append(n.conflicts, c)
}

func (n *recordingNotifier) all() []service.Conflict {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]service.Conflict(nil), n.conflicts...)
}

// stores bundles the sqlite-backed stores the service tests share.
type stores struct {
	repositories persistence.RepositoryStore
	structures   persistence.StructureStore
	references   persistence.ReferenceStore
	events       persistence.EventStore
	jobs         persistence.SyncJobStore
}

func newStores(t *testing.T) stores {
	t.Helper()
	db := testdb.New(t)
	return stores{
		repositories: persistence.NewRepositoryStore(db),
		structures:   persistence.NewStructureStore(db),
		references:   persistence.NewReferenceStore(db),
		events:       persistence.NewEventStore(db),
		jobs:         persistence.NewSyncJobStore(db),
	}
}
