package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/domain/syncjob"
	"github.com/codecite/codecite/internal/database"
)

// SyncJobStore persists sync jobs using GORM.
type SyncJobStore struct {
	database.Repository[syncjob.Job, SyncJobModel]
	db database.Database
}

// NewSyncJobStore creates a new SyncJobStore.
func NewSyncJobStore(db database.Database) SyncJobStore {
	return SyncJobStore{
		Repository: database.NewRepository[syncjob.Job, SyncJobModel](db, JobMapper{}, "sync job"),
		db:         db,
	}
}

// Save creates or updates a job.
func (s SyncJobStore) Save(ctx context.Context, job syncjob.Job) (syncjob.Job, error) {
	model := s.Mapper().ToModel(job)
	now := time.Now()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	if result := s.DB(ctx).Save(&model); result.Error != nil {
		return syncjob.Job{}, fmt.Errorf("save sync job: %w", result.Error)
	}
	return s.Mapper().ToDomain(model)
}

// CreateExclusive inserts a new job only if the repository has no pending or
// running job. The check and the insert run in one transaction so two
// concurrent triggers cannot both create a job; the loser gets
// syncjob.ErrAlreadyRunning. Pending covers rearmed retries too: a failed job
// awaiting its backoff blocks new triggers until the retry sweep picks it up
// or it is cancelled.
func (s SyncJobStore) CreateExclusive(ctx context.Context, job syncjob.Job) (syncjob.Job, error) {
	model, err := database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) (SyncJobModel, error) {
		var count int64
		err := tx.Model(&SyncJobModel{}).
			Where("repository_id = ? AND status IN ?",
				job.RepositoryID(),
				[]string{string(syncjob.StatusPending), string(syncjob.StatusRunning)}).
			Count(&count).Error
		if err != nil {
			return SyncJobModel{}, fmt.Errorf("count active sync jobs: %w", err)
		}
		if count > 0 {
			return SyncJobModel{}, syncjob.ErrAlreadyRunning
		}

		m := s.Mapper().ToModel(job)
		now := time.Now()
		m.CreatedAt = now
		m.UpdatedAt = now
		if err := tx.Create(&m).Error; err != nil {
			return SyncJobModel{}, fmt.Errorf("create sync job: %w", err)
		}
		return m, nil
	})
	if err != nil {
		return syncjob.Job{}, err
	}
	return s.Mapper().ToDomain(model)
}

// ByRepository lists a repository's jobs, most recent first.
func (s SyncJobStore) ByRepository(ctx context.Context, repositoryID int64) ([]syncjob.Job, error) {
	return s.Find(ctx,
		repository.WithRepositoryID(repositoryID),
		repository.WithOrderDesc("created_at"),
	)
}

// RetryDue lists rearmed jobs whose scheduled retry time has passed.
func (s SyncJobStore) RetryDue(ctx context.Context, now time.Time) ([]syncjob.Job, error) {
	return s.Find(ctx,
		repository.WithCondition("status", string(syncjob.StatusPending)),
		repository.WithWhere("next_retry_at IS NOT NULL AND next_retry_at <= ?", now),
		repository.WithOrderAsc("next_retry_at"),
	)
}
