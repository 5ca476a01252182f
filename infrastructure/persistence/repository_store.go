package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/internal/database"
)

// RepositoryStore persists tracked repositories using GORM.
type RepositoryStore struct {
	database.Repository[repository.Repository, RepositoryModel]
}

// NewRepositoryStore creates a new RepositoryStore.
func NewRepositoryStore(db database.Database) RepositoryStore {
	return RepositoryStore{
		Repository: database.NewRepository[repository.Repository, RepositoryModel](db, RepositoryMapper{}, "repository"),
	}
}

// Save creates or updates a repository.
func (s RepositoryStore) Save(ctx context.Context, repo repository.Repository) (repository.Repository, error) {
	model := s.Mapper().ToModel(repo)
	now := time.Now()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	if result := s.DB(ctx).Save(&model); result.Error != nil {
		return repository.Repository{}, fmt.Errorf("save repository: %w", result.Error)
	}
	return s.Mapper().ToDomain(model)
}

// ByOwnerName retrieves a repository by its owner and name.
func (s RepositoryStore) ByOwnerName(ctx context.Context, owner, name string) (repository.Repository, error) {
	return s.FindOne(ctx, repository.WithOwnerName(owner, name)...)
}

// ActiveWithFrequency lists active repositories with the given sync frequency.
func (s RepositoryStore) ActiveWithFrequency(ctx context.Context, f repository.SyncFrequency) ([]repository.Repository, error) {
	return s.Find(ctx, repository.WithActive(), repository.WithFrequency(f))
}
