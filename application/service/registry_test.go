package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codecite/codecite/application/service"
	"github.com/codecite/codecite/domain/syncjob"
)

func TestProgressRegistry_Lifecycle(t *testing.T) {
	registry := service.NewProgressRegistry()

	_, ok := registry.Progress("job-1")
	assert.False(t, ok)

	registry.Set(syncjob.Progress{JobID: "job-1", Stage: syncjob.StageInitializing, Progress: 5})
	registry.Set(syncjob.Progress{JobID: "job-2", Stage: syncjob.StageFetchingCommits, Progress: 20})

	p, ok := registry.Progress("job-1")
	assert.True(t, ok)
	assert.Equal(t, syncjob.StageInitializing, p.Stage)
	assert.Equal(t, 5, p.Progress)

	registry.Set(syncjob.Progress{JobID: "job-1", Stage: syncjob.StageAnalyzingFiles, Progress: 55})
	p, _ = registry.Progress("job-1")
	assert.Equal(t, 55, p.Progress)

	assert.ElementsMatch(t, []string{"job-1", "job-2"}, registry.Running())

	registry.Remove("job-1")
	_, ok = registry.Progress("job-1")
	assert.False(t, ok)
	assert.Equal(t, []string{"job-2"}, registry.Running())
}
