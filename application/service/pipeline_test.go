package service_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecite/codecite/application/service"
	"github.com/codecite/codecite/domain/citation"
	"github.com/codecite/codecite/domain/event"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/infrastructure/hosting"
)

const webhookSecret = "hunter2"

const pushBody = `{
  "ref": "refs/heads/main",
  "before": "c1",
  "after": "c2",
  "repository": {"full_name": "acme/billing", "default_branch": "main"},
  "commits": [
    {
      "id": "c2",
      "message": "rework charge",
      "timestamp": "2026-03-01T12:00:00Z",
      "modified": ["src/charge.js", "src/other.js"],
      "removed": ["src/old.js"]
    }
  ]
}`

func newPipeline(t *testing.T, s stores, host hosting.Client, notifier service.Notifier) *service.Pipeline {
	t.Helper()
	return service.NewPipeline(webhookSecret, s.events, s.references, nil, host, notifier, slog.Default())
}

func TestPipeline_HandleWebhook_RejectsBadSignature(t *testing.T) {
	s := newStores(t)
	pipeline := newPipeline(t, s, &fakeHost{}, nil)
	ctx := context.Background()

	body := []byte(pushBody)

	_, err := pipeline.HandleWebhook(ctx, "push", body, "sha256=deadbeef")
	assert.True(t, errors.Is(err, event.ErrSignatureMismatch))

	_, err = pipeline.HandleWebhook(ctx, "push", body, "")
	assert.True(t, errors.Is(err, event.ErrSignatureMissing))

	// A rejected delivery must leave the store untouched.
	pending, err := s.events.OldestPending(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPipeline_HandleWebhook_CreatesEventsForReferencedFiles(t *testing.T) {
	s := newStores(t)
	pipeline := newPipeline(t, s, &fakeHost{}, nil)
	ctx := context.Background()

	charged, err := s.references.Save(ctx, citation.NewRangeReference("acme", "billing", "src/charge.js", 1, 3))
	require.NoError(t, err)
	removed, err := s.references.Save(ctx, citation.NewLineReference("acme", "billing", "src/old.js", 5))
	require.NoError(t, err)

	body := []byte(pushBody)
	created, err := pipeline.HandleWebhook(ctx, "push", body, event.Sign([]byte(webhookSecret), body))
	require.NoError(t, err)
	require.Len(t, created, 2)

	byPath := make(map[string]event.CodeChangeEvent, len(created))
	for _, ev := range created {
		byPath[ev.FilePath()] = ev
	}

	modified := byPath["src/charge.js"]
	assert.Equal(t, event.ChangeModified, modified.Type())
	assert.Equal(t, event.StatusPending, modified.Status())
	assert.Equal(t, "c2", modified.CommitHash())
	assert.Equal(t, []string{charged.ID()}, modified.AffectedReferences())

	deleted := byPath["src/old.js"]
	assert.Equal(t, event.ChangeDeleted, deleted.Type())
	assert.Equal(t, []string{removed.ID()}, deleted.AffectedReferences())

	// src/other.js has no references and produces no event.
	_, ok := byPath["src/other.js"]
	assert.False(t, ok)
}

func TestPipeline_HandleWebhook_PingAndUnknownAreNoOps(t *testing.T) {
	s := newStores(t)
	pipeline := newPipeline(t, s, &fakeHost{}, nil)
	ctx := context.Background()

	ping := []byte(`{"zen": "keep it logically awesome", "hook_id": 42}`)
	created, err := pipeline.HandleWebhook(ctx, "ping", ping, event.Sign([]byte(webhookSecret), ping))
	require.NoError(t, err)
	assert.Empty(t, created)

	issues := []byte(`{"action": "opened"}`)
	created, err = pipeline.HandleWebhook(ctx, "issues", issues, event.Sign([]byte(webhookSecret), issues))
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestPipeline_ProcessPending_RelocatesShiftedCitation(t *testing.T) {
	s := newStores(t)
	host := &fakeHost{files: map[string]map[string]string{
		"c2": {"src/charge.js": "// billing entry points\n\nfunction charge(amount) {\n  return amount * 100;\n}\n"},
	}}
	notifier := &recordingNotifier{}
	pipeline := newPipeline(t, s, host, notifier)
	ctx := context.Background()

	ref := citation.NewRangeReference("acme", "billing", "src/charge.js", 1, 3).
		WithContent("function charge(amount) {\n  return amount * 100;\n}", "c1")
	ref, err := s.references.Save(ctx, ref)
	require.NoError(t, err)

	ev := event.New("acme/billing", "src/charge.js", event.ChangeModified, "c2",
		mustTime(t, "2026-03-01T12:00:00Z"), []string{ref.ID()})
	_, err = s.events.Save(ctx, ev)
	require.NoError(t, err)

	processed, failed, err := pipeline.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Zero(t, failed)

	moved, err := s.references.FindOne(ctx, repository.WithID(ref.ID()))
	require.NoError(t, err)
	require.NotNil(t, moved.StartLine())
	assert.Equal(t, 3, *moved.StartLine())
	require.NotNil(t, moved.EndLine())
	assert.Equal(t, 5, *moved.EndLine())
	assert.Equal(t, "c2", moved.CommitSHA())
	assert.False(t, moved.Stale())

	done, err := s.events.FindOne(ctx, repository.WithID(ev.ID()))
	require.NoError(t, err)
	assert.Equal(t, event.StatusCompleted, done.Status())
	assert.Empty(t, notifier.all())
}

func TestPipeline_ProcessPending_DeletedFileDeactivatesReference(t *testing.T) {
	s := newStores(t)
	notifier := &recordingNotifier{}
	pipeline := newPipeline(t, s, &fakeHost{}, notifier)
	ctx := context.Background()

	ref, err := s.references.Save(ctx, citation.NewLineReference("acme", "billing", "src/old.js", 5))
	require.NoError(t, err)

	ev := event.New("acme/billing", "src/old.js", event.ChangeDeleted, "c2",
		mustTime(t, "2026-03-01T12:00:00Z"), []string{ref.ID()})
	_, err = s.events.Save(ctx, ev)
	require.NoError(t, err)

	processed, failed, err := pipeline.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Zero(t, failed)

	after, err := s.references.FindOne(ctx, repository.WithID(ref.ID()))
	require.NoError(t, err)
	require.False(t, after.Active())
	assert.True(t, after.Stale())

	conflicts := notifier.all()
	require.Len(t, conflicts, 1)
	assert.Equal(t, service.ConflictDeleted, conflicts[0].Type)
	assert.Equal(t, ref.ID(), conflicts[0].ReferenceID)
}

func TestPipeline_ProcessPending_UnlocatableContentConflictsAsModified(t *testing.T) {
	s := newStores(t)
	host := &fakeHost{files: map[string]map[string]string{
		"c2": {"src/charge.js": "export const chargeTable = buildTable();\n"},
	}}
	notifier := &recordingNotifier{}
	pipeline := newPipeline(t, s, host, notifier)
	ctx := context.Background()

	ref := citation.NewRangeReference("acme", "billing", "src/charge.js", 1, 3).
		WithContent("function charge(amount) {\n  return amount * 100;\n}", "c1")
	ref, err := s.references.Save(ctx, ref)
	require.NoError(t, err)

	ev := event.New("acme/billing", "src/charge.js", event.ChangeModified, "c2",
		mustTime(t, "2026-03-01T12:00:00Z"), []string{ref.ID()})
	_, err = s.events.Save(ctx, ev)
	require.NoError(t, err)

	_, failed, err := pipeline.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, failed)

	stale, err := s.references.FindOne(ctx, repository.WithID(ref.ID()))
	require.NoError(t, err)
	assert.True(t, stale.Stale())
	assert.True(t, stale.Active(), "modified conflict keeps the reference active")

	conflicts := notifier.all()
	require.Len(t, conflicts, 1)
	assert.Equal(t, service.ConflictModified, conflicts[0].Type)
}

func TestPipeline_Requeue(t *testing.T) {
	s := newStores(t)
	pipeline := newPipeline(t, s, &fakeHost{}, nil)
	ctx := context.Background()

	// A reference the processor cannot load makes the event fail.
	ev := event.New("acme/billing", "src/gone.js", event.ChangeModified, "c2",
		mustTime(t, "2026-03-01T12:00:00Z"), []string{"missing-ref"})
	_, err := s.events.Save(ctx, ev)
	require.NoError(t, err)

	processed, failed, err := pipeline.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, failed)

	failedEvent, err := s.events.FindOne(ctx, repository.WithID(ev.ID()))
	require.NoError(t, err)
	assert.Equal(t, event.StatusFailed, failedEvent.Status())
	assert.NotEmpty(t, failedEvent.ProcessingError())

	requeued, err := pipeline.Requeue(ctx, ev.ID())
	require.NoError(t, err)
	assert.Equal(t, event.StatusPending, requeued.Status())
	assert.Empty(t, requeued.ProcessingError())
}
