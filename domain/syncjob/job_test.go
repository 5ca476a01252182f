package syncjob

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle(t *testing.T) {
	job := New(1, TypeManual)
	require.Equal(t, StatusPending, job.Status())
	require.Equal(t, DefaultMaxRetries, job.MaxRetries())

	running, err := job.Start()
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, running.Status())
	require.NotNil(t, running.StartedAt())

	done, err := running.Complete(Metadata{FilesAnalyzed: 12, FunctionsFound: 40, ChangesDetected: 3})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status())
	assert.True(t, done.Status().IsTerminal())
	assert.Equal(t, 40, done.Metadata().FunctionsFound)
	require.NotNil(t, done.CompletedAt())
}

func TestFail_RearmsWithBackoff(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	job := New(1, TypeScheduled)

	// Three failures consume the budget with doubling delays.
	wantDelays := []time.Duration{2 * time.Minute, 4 * time.Minute, 8 * time.Minute}
	for i, want := range wantDelays {
		running, err := job.Start()
		require.NoError(t, err)

		job, err = running.Fail(errors.New("clone timeout"), now)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, job.Status(), "failure %d should rearm", i+1)
		assert.Equal(t, i+1, job.RetryCount())
		require.NotNil(t, job.NextRetryAt())
		assert.Equal(t, want, job.NextRetryAt().Sub(now))
		assert.Equal(t, "clone timeout", job.ErrorMessage())
	}

	// Fourth failure exhausts the budget and stays failed.
	running, err := job.Start()
	require.NoError(t, err)
	job, err = running.Fail(errors.New("clone timeout"), now)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status())
	assert.Nil(t, job.NextRetryAt())
	assert.Equal(t, 3, job.RetryCount())
}

func TestNextRetry(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		status    Status
		count     int
		wantDelay time.Duration
		wantOK    bool
	}{
		{StatusFailed, 0, 2 * time.Minute, true},
		{StatusFailed, 1, 4 * time.Minute, true},
		{StatusFailed, 2, 8 * time.Minute, true},
		{StatusFailed, 3, 0, false},
		{StatusRunning, 0, 0, false},
		{StatusCompleted, 0, 0, false},
	}
	for _, tt := range tests {
		at, ok := NextRetry(tt.status, tt.count, DefaultMaxRetries, now)
		assert.Equal(t, tt.wantOK, ok, "status=%s count=%d", tt.status, tt.count)
		if ok {
			assert.Equal(t, tt.wantDelay, at.Sub(now))
		}
	}
}

func TestRetryDue(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	job := New(1, TypeScheduled)
	assert.False(t, job.RetryDue(now), "fresh jobs have no scheduled retry")

	running, _ := job.Start()
	failed, err := running.Fail(errors.New("x"), now)
	require.NoError(t, err)

	assert.False(t, failed.RetryDue(now.Add(time.Minute)))
	assert.True(t, failed.RetryDue(now.Add(2*time.Minute)))
}

func TestCancel(t *testing.T) {
	job := New(1, TypeWebhook)
	running, _ := job.Start()

	cancelled, err := running.Cancel()
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status())
	assert.True(t, cancelled.Status().IsTerminal())

	_, err = cancelled.Start()
	assert.Error(t, err, "cancelled jobs never restart")

	done, _ := running.Complete(Metadata{})
	_, err = done.Cancel()
	assert.Error(t, err, "completed jobs cannot cancel")
}

func TestStageProgress(t *testing.T) {
	assert.Equal(t, 5, StageInitializing.BaseProgress())
	assert.Equal(t, 20, StageFetchingCommits.BaseProgress())
	assert.Equal(t, 30, StageAnalyzingFiles.BaseProgress())
	assert.Equal(t, 90, StageSavingResults.BaseProgress())
	assert.Equal(t, 100, StageCompleted.BaseProgress())

	assert.Equal(t, 30, AnalysisProgress(0, 10))
	assert.Equal(t, 55, AnalysisProgress(5, 10))
	assert.Equal(t, 80, AnalysisProgress(10, 10))
	assert.Equal(t, 30, AnalysisProgress(0, 0), "no files keeps the base value")
}
