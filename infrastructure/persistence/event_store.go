package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/codecite/codecite/domain/event"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/internal/database"
)

// EventStore persists code change events using GORM.
type EventStore struct {
	database.Repository[event.CodeChangeEvent, ChangeEventModel]
}

// NewEventStore creates a new EventStore.
func NewEventStore(db database.Database) EventStore {
	return EventStore{
		Repository: database.NewRepository[event.CodeChangeEvent, ChangeEventModel](db, EventMapper{}, "change event"),
	}
}

// Save creates or updates an event.
func (s EventStore) Save(ctx context.Context, ev event.CodeChangeEvent) (event.CodeChangeEvent, error) {
	model := s.Mapper().ToModel(ev)
	now := time.Now()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	if result := s.DB(ctx).Save(&model); result.Error != nil {
		return event.CodeChangeEvent{}, fmt.Errorf("save change event: %w", result.Error)
	}
	return s.Mapper().ToDomain(model)
}

// SaveAll inserts a batch of events.
func (s EventStore) SaveAll(ctx context.Context, events []event.CodeChangeEvent) ([]event.CodeChangeEvent, error) {
	if len(events) == 0 {
		return []event.CodeChangeEvent{}, nil
	}

	now := time.Now()
	models := make([]ChangeEventModel, len(events))
	for i, ev := range events {
		models[i] = s.Mapper().ToModel(ev)
		if models[i].CreatedAt.IsZero() {
			models[i].CreatedAt = now
		}
		models[i].UpdatedAt = now
	}

	if result := s.DB(ctx).Save(&models); result.Error != nil {
		return nil, fmt.Errorf("save change events: %w", result.Error)
	}

	saved := make([]event.CodeChangeEvent, len(models))
	for i, m := range models {
		d, err := s.Mapper().ToDomain(m)
		if err != nil {
			return nil, fmt.Errorf("map change event: %w", err)
		}
		saved[i] = d
	}
	return saved, nil
}

// OldestPending returns up to limit pending events, oldest event timestamp
// first. Processing order is deterministic across runs.
func (s EventStore) OldestPending(ctx context.Context, limit int) ([]event.CodeChangeEvent, error) {
	return s.Find(ctx,
		repository.WithCondition("status", string(event.StatusPending)),
		repository.WithOrderAsc("timestamp"),
		repository.WithOrderAsc("id"),
		repository.WithLimit(limit),
	)
}
