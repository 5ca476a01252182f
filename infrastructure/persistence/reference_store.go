package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/codecite/codecite/domain/citation"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/internal/database"
)

// ReferenceStore persists code citations using GORM.
type ReferenceStore struct {
	database.Repository[citation.Reference, ReferenceModel]
}

// NewReferenceStore creates a new ReferenceStore.
func NewReferenceStore(db database.Database) ReferenceStore {
	return ReferenceStore{
		Repository: database.NewRepository[citation.Reference, ReferenceModel](db, ReferenceMapper{}, "reference"),
	}
}

// Save creates or updates a reference.
func (s ReferenceStore) Save(ctx context.Context, ref citation.Reference) (citation.Reference, error) {
	model := s.Mapper().ToModel(ref)
	now := time.Now()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	if result := s.DB(ctx).Save(&model); result.Error != nil {
		return citation.Reference{}, fmt.Errorf("save reference: %w", result.Error)
	}
	return s.Mapper().ToDomain(model)
}

// ActiveByFile lists active references pointing into one file of a repository.
func (s ReferenceStore) ActiveByFile(ctx context.Context, owner, name, filePath string) ([]citation.Reference, error) {
	return s.Find(ctx,
		repository.WithCondition("repo_owner", owner),
		repository.WithCondition("repo_name", name),
		repository.WithCondition("file_path", filePath),
		repository.WithCondition("active", true),
	)
}

// ActiveByRepository lists all active references of a repository.
func (s ReferenceStore) ActiveByRepository(ctx context.Context, owner, name string) ([]citation.Reference, error) {
	return s.Find(ctx,
		repository.WithCondition("repo_owner", owner),
		repository.WithCondition("repo_name", name),
		repository.WithCondition("active", true),
	)
}
