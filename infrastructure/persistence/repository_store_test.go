package persistence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/infrastructure/persistence"
	"github.com/codecite/codecite/internal/database"
	"github.com/codecite/codecite/internal/testdb"
)

func TestRepositoryStore_SaveAndLoad(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewRepositoryStore(db)
	ctx := context.Background()

	repo := repository.New("acme", "billing", "https://github.com/acme/billing.git").
		WithPolicy(repository.NewSyncPolicy(repository.SyncDaily, "develop", []string{"*.md", "vendor/*"}))

	saved, err := store.Save(ctx, repo)
	require.NoError(t, err)
	require.NotZero(t, saved.ID())

	loaded, err := store.ByOwnerName(ctx, "acme", "billing")
	require.NoError(t, err)
	assert.Equal(t, saved.ID(), loaded.ID())
	assert.Equal(t, "acme/billing", loaded.FullName())
	assert.Equal(t, "develop", loaded.Policy().Branch())
	assert.Equal(t, []string{"*.md", "vendor/*"}, loaded.Policy().Ignore())
	assert.True(t, loaded.Active())
}

func TestRepositoryStore_ByOwnerName_NotFound(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewRepositoryStore(db)

	_, err := store.ByOwnerName(context.Background(), "nobody", "nothing")
	assert.True(t, errors.Is(err, database.ErrNotFound))
}

func TestRepositoryStore_ActiveWithFrequency(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewRepositoryStore(db)
	ctx := context.Background()

	daily := repository.New("acme", "daily", "https://example.com/daily.git")
	_, err := store.Save(ctx, daily)
	require.NoError(t, err)

	manual := repository.New("acme", "manual", "https://example.com/manual.git").
		WithPolicy(repository.NewSyncPolicy(repository.SyncManual, "", nil))
	_, err = store.Save(ctx, manual)
	require.NoError(t, err)

	inactive := repository.New("acme", "stale", "https://example.com/stale.git").Deactivate()
	_, err = store.Save(ctx, inactive)
	require.NoError(t, err)

	got, err := store.ActiveWithFrequency(ctx, repository.SyncDaily)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "daily", got[0].Name())
}

func TestRepositoryStore_UpdatePreservesID(t *testing.T) {
	db := testdb.New(t)
	store := persistence.NewRepositoryStore(db)
	ctx := context.Background()

	saved, err := store.Save(ctx, repository.New("acme", "billing", "https://example.com/billing.git"))
	require.NoError(t, err)

	synced := saved.MarkSynced("abc123", saved.CreatedAt())
	updated, err := store.Save(ctx, synced)
	require.NoError(t, err)
	assert.Equal(t, saved.ID(), updated.ID())
	assert.Equal(t, "abc123", updated.LastSyncedCommit())

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
