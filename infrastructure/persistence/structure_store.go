package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/domain/structure"
	"github.com/codecite/codecite/internal/database"
)

// StructureStore persists extracted code structures using GORM.
type StructureStore struct {
	database.Repository[structure.CodeStructure, CodeStructureModel]
}

// NewStructureStore creates a new StructureStore.
func NewStructureStore(db database.Database) StructureStore {
	return StructureStore{
		Repository: database.NewRepository[structure.CodeStructure, CodeStructureModel](db, StructureMapper{}, "code structure"),
	}
}

// SaveAll inserts a batch of structures.
func (s StructureStore) SaveAll(ctx context.Context, structures []structure.CodeStructure) ([]structure.CodeStructure, error) {
	if len(structures) == 0 {
		return []structure.CodeStructure{}, nil
	}

	now := time.Now()
	models := make([]CodeStructureModel, len(structures))
	for i, st := range structures {
		models[i] = s.Mapper().ToModel(st)
		if models[i].CreatedAt.IsZero() {
			models[i].CreatedAt = now
		}
	}

	if result := s.DB(ctx).Save(&models); result.Error != nil {
		return nil, fmt.Errorf("save code structures: %w", result.Error)
	}

	saved := make([]structure.CodeStructure, len(models))
	for i, m := range models {
		d, err := s.Mapper().ToDomain(m)
		if err != nil {
			return nil, fmt.Errorf("map code structure: %w", err)
		}
		saved[i] = d
	}
	return saved, nil
}

// ActiveByRepository lists the active structures of a repository in file order.
func (s StructureStore) ActiveByRepository(ctx context.Context, repositoryID int64) ([]structure.CodeStructure, error) {
	return s.Find(ctx,
		repository.WithRepositoryID(repositoryID),
		repository.WithCondition("active", true),
		repository.WithOrderAsc("file_path"),
		repository.WithOrderAsc("start_line"),
	)
}

// DeactivateByIDs flips the given structure rows inactive. Rows are never
// hard-deleted: superseded structures stay as history.
func (s StructureStore) DeactivateByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	result := s.DB(ctx).Model(&CodeStructureModel{}).
		Where("id IN ?", ids).
		Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("deactivate code structures: %w", result.Error)
	}
	return nil
}
