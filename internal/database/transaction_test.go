package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/codecite/codecite/infrastructure/persistence"
	"github.com/codecite/codecite/internal/database"
	"github.com/codecite/codecite/internal/testdb"
)

var errLiveJob = errors.New("a live job already exists")

// createExclusiveJob mirrors the check-then-insert shape the sync job store
// uses: the liveness check and the insert run in one transaction so two
// callers cannot both create a job for the same repository.
func createExclusiveJob(ctx context.Context, db database.Database, id string, repoID int64) (persistence.SyncJobModel, error) {
	return database.WithTransactionResult(ctx, db, func(tx *gorm.DB) (persistence.SyncJobModel, error) {
		var count int64
		err := tx.Model(&persistence.SyncJobModel{}).
			Where("repository_id = ? AND status IN ?", repoID, []string{"pending", "running"}).
			Count(&count).Error
		if err != nil {
			return persistence.SyncJobModel{}, err
		}
		if count > 0 {
			return persistence.SyncJobModel{}, errLiveJob
		}

		now := time.Now().UTC()
		model := persistence.SyncJobModel{
			ID:           id,
			RepositoryID: repoID,
			JobType:      "manual",
			Status:       "pending",
			MaxRetries:   3,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&model).Error; err != nil {
			return persistence.SyncJobModel{}, err
		}
		return model, nil
	})
}

func countJobs(t *testing.T, db database.Database) int64 {
	t.Helper()

	var count int64
	if err := db.Session(context.Background()).Model(&persistence.SyncJobModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	return count
}

func TestWithTransactionResult_CommitsOnSuccess(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	created, err := createExclusiveJob(ctx, db, "job-1", 1)
	if err != nil {
		t.Fatalf("createExclusiveJob: %v", err)
	}
	if created.Status != "pending" {
		t.Errorf("status = %q, want pending", created.Status)
	}
	if got := countJobs(t, db); got != 1 {
		t.Errorf("jobs persisted = %d, want 1", got)
	}
}

func TestWithTransactionResult_RollsBackOnError(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	boom := errors.New("downstream failure")
	_, err := database.WithTransactionResult(ctx, db, func(tx *gorm.DB) (persistence.SyncJobModel, error) {
		model := persistence.SyncJobModel{ID: "job-err", RepositoryID: 1, JobType: "manual", Status: "pending"}
		if err := tx.Create(&model).Error; err != nil {
			return model, err
		}
		return model, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if got := countJobs(t, db); got != 0 {
		t.Errorf("jobs persisted after rollback = %d, want 0", got)
	}
}

func TestWithTransactionResult_SecondLiveJobRejected(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	if _, err := createExclusiveJob(ctx, db, "job-1", 7); err != nil {
		t.Fatalf("first createExclusiveJob: %v", err)
	}

	_, err := createExclusiveJob(ctx, db, "job-2", 7)
	if !errors.Is(err, errLiveJob) {
		t.Fatalf("err = %v, want %v", err, errLiveJob)
	}
	if got := countJobs(t, db); got != 1 {
		t.Errorf("jobs persisted = %d, want 1", got)
	}

	// A different repository is unaffected.
	if _, err := createExclusiveJob(ctx, db, "job-3", 8); err != nil {
		t.Fatalf("createExclusiveJob for other repository: %v", err)
	}
}

func TestWithTransaction_Commit(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	err := database.WithTransaction(ctx, db, func(tx *gorm.DB) error {
		model := persistence.SyncJobModel{ID: "job-a", RepositoryID: 1, JobType: "scheduled", Status: "completed"}
		return tx.Create(&model).Error
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}
	if got := countJobs(t, db); got != 1 {
		t.Errorf("jobs persisted = %d, want 1", got)
	}
}

func TestWithTransaction_Rollback(t *testing.T) {
	db := testdb.New(t)
	ctx := context.Background()

	boom := errors.New("abort")
	err := database.WithTransaction(ctx, db, func(tx *gorm.DB) error {
		model := persistence.SyncJobModel{ID: "job-b", RepositoryID: 2, JobType: "scheduled", Status: "completed"}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if got := countJobs(t, db); got != 0 {
		t.Errorf("jobs persisted after rollback = %d, want 0", got)
	}
}
