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
	"github.com/codecite/codecite/domain/citation"
	"github.com/codecite/codecite/domain/event"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/domain/syncjob"
	"github.com/codecite/codecite/infrastructure/hosting"
)

func newOrchestrator(t *testing.T, s stores, host hosting.Client) *service.Orchestrator {
	t.Helper()
	return service.NewOrchestrator(
		s.repositories, s.structures, s.references, s.events, s.jobs,
		host, nil, service.NewProgressRegistry(), slog.Default(),
	)
}

func trackedRepo(t *testing.T, s stores) repository.Repository {
	t.Helper()
	repo, err := s.repositories.Save(context.Background(),
		repository.New("acme", "billing", "https://github.com/acme/billing.git"))
	require.NoError(t, err)
	return repo
}

func commitAt(sha string) hosting.Commit {
	return hosting.Commit{
		SHA:    sha,
		Author: hosting.CommitAuthor{Name: "dev", Date: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
}

func TestOrchestrator_Execute_InitialSync(t *testing.T) {
	s := newStores(t)
	host := &fakeHost{
		commits: []hosting.Commit{commitAt("c1")},
		files: map[string]map[string]string{
			"c1": {
				"src/charge.js": "function charge(amount) {\n  return amount;\n}\n",
				"src/util.js":   "function clamp(n) {\n  return n;\n}\n",
				"README.md":     "# billing\n",
			},
		},
	}
	orch := newOrchestrator(t, s, host)
	ctx := context.Background()

	repo := trackedRepo(t, s)
	job, err := orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)

	require.NoError(t, orch.Execute(ctx, job))

	jobs, err := s.jobs.ByRepository(ctx, repo.ID())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, syncjob.StatusCompleted, jobs[0].Status())
	assert.Equal(t, "c1", jobs[0].Metadata().ToCommit)
	assert.Equal(t, 2, jobs[0].Metadata().FilesAnalyzed)
	assert.Equal(t, 2, jobs[0].Metadata().FunctionsFound)

	active, err := s.structures.ActiveByRepository(ctx, repo.ID())
	require.NoError(t, err)
	assert.Len(t, active, 2)

	synced, err := s.repositories.FindOne(ctx, repository.WithID(repo.ID()))
	require.NoError(t, err)
	assert.Equal(t, "c1", synced.LastSyncedCommit())

	// A finished job has no live progress entry.
	_, ok := orch.Registry().Progress(job.ID())
	assert.False(t, ok)
}

func TestOrchestrator_Execute_DetectsDriftAndCreatesEvents(t *testing.T) {
	s := newStores(t)
	host := &fakeHost{
		commits: []hosting.Commit{commitAt("c1")},
		files: map[string]map[string]string{
			"c1": {"src/charge.js": "function charge(amount) {\n  return amount;\n}\n"},
			"c2": {"src/charge.js": "function charge(amount, currency) {\n  return amount;\n}\n"},
		},
	}
	orch := newOrchestrator(t, s, host)
	ctx := context.Background()

	repo := trackedRepo(t, s)
	job, err := orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)
	require.NoError(t, orch.Execute(ctx, job))

	_, err = s.references.Save(ctx, citation.NewFunctionReference("acme", "billing", "src/charge.js", "charge"))
	require.NoError(t, err)

	host.commits = []hosting.Commit{commitAt("c2")}
	job, err = orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)
	require.NoError(t, orch.Execute(ctx, job))

	jobs, err := s.jobs.ByRepository(ctx, repo.ID())
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	var drift syncjob.Job
	for _, j := range jobs {
		if j.Metadata().ToCommit == "c2" {
			drift = j
		}
	}
	assert.Equal(t, syncjob.StatusCompleted, drift.Status())
	assert.Equal(t, 1, drift.Metadata().ChangesDetected)

	// The old signature's row is superseded; one active row remains.
	active, err := s.structures.ActiveByRepository(ctx, repo.ID())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "c2", active[0].CommitSHA())

	pending, err := s.events.OldestPending(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "src/charge.js", pending[0].FilePath())
	assert.Equal(t, event.ChangeModified, pending[0].Type())
}

func TestOrchestrator_Execute_MovedFunctionEmitsMovedEvent(t *testing.T) {
	s := newStores(t)
	host := &fakeHost{
		commits: []hosting.Commit{commitAt("c1")},
		files: map[string]map[string]string{
			"c1": {"src/charge.js": "function charge(amount) {\n  return amount;\n}\n"},
			"c2": {"src/pay/charge.js": "function charge(amount, currency) {\n  return amount;\n}\n"},
		},
	}
	orch := newOrchestrator(t, s, host)
	ctx := context.Background()

	repo := trackedRepo(t, s)
	job, err := orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)
	require.NoError(t, orch.Execute(ctx, job))

	ref, err := s.references.Save(ctx, citation.NewFunctionReference("acme", "billing", "src/charge.js", "charge"))
	require.NoError(t, err)

	host.commits = []hosting.Commit{commitAt("c2")}
	job, err = orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)
	require.NoError(t, orch.Execute(ctx, job))

	pending, err := s.events.OldestPending(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, event.ChangeMoved, pending[0].Type())
	assert.Equal(t, "src/pay/charge.js", pending[0].FilePath())
	assert.Equal(t, "src/charge.js", pending[0].OldFilePath())
	assert.Contains(t, pending[0].AffectedReferences(), ref.ID())
}

func TestOrchestrator_Execute_RenamedFunctionEmitsRenamedEvent(t *testing.T) {
	s := newStores(t)
	host := &fakeHost{
		commits: []hosting.Commit{commitAt("c1")},
		files: map[string]map[string]string{
			"c1": {"src/charge.js": "function charge(amount) {\n  return amount;\n}\n"},
			"c2": {"src/charge.js": "function chargeAmount(amount) {\n  return amount;\n}\n"},
		},
	}
	orch := newOrchestrator(t, s, host)
	ctx := context.Background()

	repo := trackedRepo(t, s)
	job, err := orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)
	require.NoError(t, orch.Execute(ctx, job))

	_, err = s.references.Save(ctx, citation.NewFunctionReference("acme", "billing", "src/charge.js", "charge"))
	require.NoError(t, err)

	host.commits = []hosting.Commit{commitAt("c2")}
	job, err = orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)
	require.NoError(t, orch.Execute(ctx, job))

	pending, err := s.events.OldestPending(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, event.ChangeRenamed, pending[0].Type())
	assert.Equal(t, "src/charge.js", pending[0].FilePath())
	assert.Empty(t, pending[0].OldFilePath(), "rename within a file keeps its path")
}

func TestOrchestrator_Execute_NoNewCommits(t *testing.T) {
	s := newStores(t)
	host := &fakeHost{
		commits: []hosting.Commit{commitAt("c1")},
		files: map[string]map[string]string{
			"c1": {"src/charge.js": "function charge(amount) {\n  return amount;\n}\n"},
		},
	}
	orch := newOrchestrator(t, s, host)
	ctx := context.Background()

	repo := trackedRepo(t, s)
	job, err := orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)
	require.NoError(t, orch.Execute(ctx, job))

	job, err = orch.Trigger(ctx, repo.ID(), syncjob.TypeScheduled)
	require.NoError(t, err)
	require.NoError(t, orch.Execute(ctx, job))

	latest, err := s.jobs.FindOne(ctx, repository.WithID(job.ID()))
	require.NoError(t, err)
	assert.Equal(t, syncjob.StatusCompleted, latest.Status())
	assert.Equal(t, "c1", latest.Metadata().FromCommit)
	assert.Equal(t, "c1", latest.Metadata().ToCommit)
	assert.Zero(t, latest.Metadata().ChangesDetected)
}

func TestOrchestrator_Trigger_OneJobPerRepository(t *testing.T) {
	s := newStores(t)
	orch := newOrchestrator(t, s, &fakeHost{})
	ctx := context.Background()

	repo := trackedRepo(t, s)

	_, err := orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)

	_, err = orch.Trigger(ctx, repo.ID(), syncjob.TypeWebhook)
	assert.True(t, errors.Is(err, syncjob.ErrAlreadyRunning))
}

func TestOrchestrator_Cancel_PendingJob(t *testing.T) {
	s := newStores(t)
	orch := newOrchestrator(t, s, &fakeHost{})
	ctx := context.Background()

	repo := trackedRepo(t, s)
	job, err := orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	require.NoError(t, err)

	require.NoError(t, orch.Cancel(ctx, job.ID()))

	cancelled, err := s.jobs.FindOne(ctx, repository.WithID(job.ID()))
	require.NoError(t, err)
	assert.Equal(t, syncjob.StatusCancelled, cancelled.Status())

	// Terminal jobs cannot be cancelled again.
	err = orch.Cancel(ctx, job.ID())
	assert.True(t, errors.Is(err, service.ErrJobNotCancellable))
}

func TestOrchestrator_Execute_FailureRearmsForRetry(t *testing.T) {
	s := newStores(t)
	host := &fakeHost{commitsErr: errors.New("github unavailable")}
	orch := newOrchestrator(t, s, host)
	ctx := context.Background()

	repo := trackedRepo(t, s)
	job, err := orch.Trigger(ctx, repo.ID(), syncjob.TypeScheduled)
	require.NoError(t, err)
	require.NoError(t, orch.Execute(ctx, job))

	rearmed, err := s.jobs.FindOne(ctx, repository.WithID(job.ID()))
	require.NoError(t, err)
	assert.Equal(t, syncjob.StatusPending, rearmed.Status())
	assert.Equal(t, 1, rearmed.RetryCount())
	require.NotNil(t, rearmed.NextRetryAt())
	assert.Contains(t, rearmed.ErrorMessage(), "github unavailable")

	// The rearmed job counts as live until the retry sweep runs it.
	_, err = orch.Trigger(ctx, repo.ID(), syncjob.TypeManual)
	assert.True(t, errors.Is(err, syncjob.ErrAlreadyRunning))
}
