package service_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecite/codecite/application/service"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/domain/syncjob"
	"github.com/codecite/codecite/infrastructure/hosting"
	"github.com/codecite/codecite/internal/config"
)

func newScheduler(t *testing.T, s stores, orch *service.Orchestrator) *service.Scheduler {
	t.Helper()
	return service.NewScheduler(
		config.NewAppConfig().Sync(),
		s.repositories, s.jobs, orch, slog.Default(),
	)
}

func schedulerHost() *fakeHost {
	return &fakeHost{
		commits: []hosting.Commit{commitAt("c1")},
		files: map[string]map[string]string{
			"c1": {"src/app.js": "function boot() {\n  return 1;\n}\n"},
		},
	}
}

func TestScheduler_DailySweep(t *testing.T) {
	s := newStores(t)
	host := schedulerHost()
	orch := newOrchestrator(t, s, host)
	sched := newScheduler(t, s, orch)
	ctx := context.Background()

	daily := trackedRepo(t, s)

	manual, err := s.repositories.Save(ctx, repository.New("acme", "docs", "https://github.com/acme/docs.git").
		WithPolicy(repository.NewSyncPolicy(repository.SyncManual, "", nil)))
	require.NoError(t, err)

	dormant, err := s.repositories.Save(ctx,
		repository.New("acme", "legacy", "https://github.com/acme/legacy.git").Deactivate())
	require.NoError(t, err)

	sched.DailySweep(ctx)
	sched.Stop() // waits for the enqueued executions to settle

	jobs, err := s.jobs.ByRepository(ctx, daily.ID())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, syncjob.TypeScheduled, jobs[0].JobType())
	assert.Equal(t, syncjob.StatusCompleted, jobs[0].Status())

	for _, skipped := range []int64{manual.ID(), dormant.ID()} {
		jobs, err := s.jobs.ByRepository(ctx, skipped)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	}
}

func TestScheduler_DailySweep_SkipsRepositoryWithLiveJob(t *testing.T) {
	s := newStores(t)
	orch := newOrchestrator(t, s, schedulerHost())
	sched := newScheduler(t, s, orch)
	ctx := context.Background()

	repo := trackedRepo(t, s)
	_, err := orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)

	sched.DailySweep(ctx)
	sched.Stop()

	jobs, err := s.jobs.ByRepository(ctx, repo.ID())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, syncjob.StatusPending, jobs[0].Status())
}

func TestScheduler_RetrySweep_ReexecutesDueJob(t *testing.T) {
	s := newStores(t)
	orch := newOrchestrator(t, s, schedulerHost())
	sched := newScheduler(t, s, orch)
	ctx := context.Background()

	repo := trackedRepo(t, s)
	job, err := orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)

	// Rearm the job with a backoff that has already elapsed.
	running, err := job.Start()
	require.NoError(t, err)
	rearmed, err := running.Fail(errors.New("github unavailable"), time.Now().Add(-10*time.Minute))
	require.NoError(t, err)
	_, err = s.jobs.Save(ctx, rearmed)
	require.NoError(t, err)

	sched.RetrySweep(ctx)

	jobs, err := s.jobs.ByRepository(ctx, repo.ID())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, syncjob.StatusCompleted, jobs[0].Status())
	assert.Equal(t, 1, jobs[0].RetryCount())
}

func TestScheduler_RetrySweep_NothingDue(t *testing.T) {
	s := newStores(t)
	orch := newOrchestrator(t, s, schedulerHost())
	sched := newScheduler(t, s, orch)
	ctx := context.Background()

	repo := trackedRepo(t, s)
	job, err := orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)

	// Freshly triggered jobs have no nextRetryAt and are left alone.
	sched.RetrySweep(ctx)

	got, err := s.jobs.ByRepository(ctx, repo.ID())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, job.ID(), got[0].ID())
	assert.Equal(t, syncjob.StatusPending, got[0].Status())
}
