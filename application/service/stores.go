package service

import (
	"context"
	"time"

	"github.com/codecite/codecite/domain/citation"
	"github.com/codecite/codecite/domain/event"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/domain/structure"
	"github.com/codecite/codecite/domain/syncjob"
)

// RepositoryStore is the persistence surface the services need for tracked
// repositories. infrastructure/persistence provides the GORM implementation.
type RepositoryStore interface {
	Save(ctx context.Context, repo repository.Repository) (repository.Repository, error)
	FindOne(ctx context.Context, options ...repository.Option) (repository.Repository, error)
	Find(ctx context.Context, options ...repository.Option) ([]repository.Repository, error)
	ByOwnerName(ctx context.Context, owner, name string) (repository.Repository, error)
	ActiveWithFrequency(ctx context.Context, f repository.SyncFrequency) ([]repository.Repository, error)
}

// StructureStore is the persistence surface for extracted code structures.
type StructureStore interface {
	SaveAll(ctx context.Context, structures []structure.CodeStructure) ([]structure.CodeStructure, error)
	Find(ctx context.Context, options ...repository.Option) ([]structure.CodeStructure, error)
	ActiveByRepository(ctx context.Context, repositoryID int64) ([]structure.CodeStructure, error)
	DeactivateByIDs(ctx context.Context, ids []int64) error
}

// ReferenceStore is the persistence surface for code citations.
type ReferenceStore interface {
	Save(ctx context.Context, ref citation.Reference) (citation.Reference, error)
	FindOne(ctx context.Context, options ...repository.Option) (citation.Reference, error)
	Find(ctx context.Context, options ...repository.Option) ([]citation.Reference, error)
	ActiveByFile(ctx context.Context, owner, name, filePath string) ([]citation.Reference, error)
	ActiveByRepository(ctx context.Context, owner, name string) ([]citation.Reference, error)
}

// EventStore is the persistence surface for code change events.
type EventStore interface {
	Save(ctx context.Context, ev event.CodeChangeEvent) (event.CodeChangeEvent, error)
	SaveAll(ctx context.Context, events []event.CodeChangeEvent) ([]event.CodeChangeEvent, error)
	FindOne(ctx context.Context, options ...repository.Option) (event.CodeChangeEvent, error)
	Find(ctx context.Context, options ...repository.Option) ([]event.CodeChangeEvent, error)
	OldestPending(ctx context.Context, limit int) ([]event.CodeChangeEvent, error)
}

// JobStore is the persistence surface for sync jobs.
type JobStore interface {
	Save(ctx context.Context, job syncjob.Job) (syncjob.Job, error)
	CreateExclusive(ctx context.Context, job syncjob.Job) (syncjob.Job, error)
	FindOne(ctx context.Context, options ...repository.Option) (syncjob.Job, error)
	ByRepository(ctx context.Context, repositoryID int64) ([]syncjob.Job, error)
	RetryDue(ctx context.Context, now time.Time) ([]syncjob.Job, error)
}
