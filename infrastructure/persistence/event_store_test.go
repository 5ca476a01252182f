package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecite/codecite/domain/event"
	"github.com/codecite/codecite/infrastructure/persistence"
	"github.com/codecite/codecite/internal/testdb"
)

func TestEventStore_SaveAndLoad(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewEventStore(db)
	ctx := context.Background()

	ev := event.New("acme/billing", "src/charge.js", event.ChangeModified, "commit-a",
		time.Now().UTC(), []string{"ref-1", "ref-2"}).
		WithContents("old body", "new body")

	saved, err := store.Save(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, ev.ID(), saved.ID())

	loaded, err := store.FindOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, event.ChangeModified, loaded.Type())
	assert.Equal(t, event.StatusPending, loaded.Status())
	assert.Equal(t, []string{"ref-1", "ref-2"}, loaded.AffectedReferences())
	assert.Equal(t, "old body", loaded.OldContent())
}

func TestEventStore_OldestPending(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewEventStore(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	newest := event.New("acme/billing", "c.js", event.ChangeModified, "sha", base.Add(2*time.Hour), nil)
	oldest := event.New("acme/billing", "a.js", event.ChangeModified, "sha", base, nil)
	middle := event.New("acme/billing", "b.js", event.ChangeDeleted, "sha", base.Add(time.Hour), nil)

	// A completed event must never be picked up again.
	done, err := event.New("acme/billing", "d.js", event.ChangeModified, "sha", base, nil).StartProcessing()
	require.NoError(t, err)
	done, err = done.Complete()
	require.NoError(t, err)

	for _, ev := range []event.CodeChangeEvent{newest, oldest, middle, done} {
		_, err := store.Save(ctx, ev)
		require.NoError(t, err)
	}

	got, err := store.OldestPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.js", got[0].FilePath())
	assert.Equal(t, "b.js", got[1].FilePath())
}

func TestEventStore_StatusTransitionPersists(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewEventStore(db)
	ctx := context.Background()

	ev := event.New("acme/billing", "src/a.js", event.ChangeMoved, "sha", time.Now().UTC(), nil)
	_, err := store.Save(ctx, ev)
	require.NoError(t, err)

	processing, err := ev.StartProcessing()
	require.NoError(t, err)
	_, err = store.Save(ctx, processing)
	require.NoError(t, err)

	got, err := store.OldestPending(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, got)
}
