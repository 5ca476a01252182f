// Package service contains the application use cases: the webhook change
// event pipeline, the sync job orchestrator, and the scheduler sweeps.
package service

import (
	"sync"

	"github.com/codecite/codecite/domain/syncjob"
)

// ProgressRegistry holds live progress for running sync jobs. It is an
// in-process map keyed by job ID: the orchestrator is the only writer, API
// readers poll via Progress. Entries exist only while a job runs.
type ProgressRegistry struct {
	mu      sync.RWMutex
	entries map[string]syncjob.Progress
}

// NewProgressRegistry creates an empty registry.
func NewProgressRegistry() *ProgressRegistry {
	return &ProgressRegistry{
		entries: make(map[string]syncjob.Progress),
	}
}

// Set records the current progress of a job.
func (r *ProgressRegistry) Set(p syncjob.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[p.JobID] = p
}

// Progress returns the live progress of a job, if it is running.
func (r *ProgressRegistry) Progress(jobID string) (syncjob.Progress, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.entries[jobID]
	return p, ok
}

// Remove clears a finished job's entry.
func (r *ProgressRegistry) Remove(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, jobID)
}

// Running returns the IDs of all jobs with a live entry.
func (r *ProgressRegistry) Running() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}
