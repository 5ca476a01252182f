// Package syncjob holds the repository sync job state machine, its retry
// decision, and the progress polling shape.
package syncjob

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyRunning indicates a repository already has a pending or running
// sync job. Stores return it from exclusive job creation.
var ErrAlreadyRunning = errors.New("sync already in progress for repository")

// Type records what triggered a sync job.
type Type string

const (
	TypeScheduled Type = "scheduled"
	TypeManual    Type = "manual"
	TypeWebhook   Type = "webhook"
)

// Valid reports whether t is a known trigger type.
func (t Type) Valid() bool {
	switch t {
	case TypeScheduled, TypeManual, TypeWebhook:
		return true
	}
	return false
}

// Status is the lifecycle state of a sync job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the job will never run again on its own. A
// failed job below its retry budget is not terminal: the retry sweep rearms
// it.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// DefaultMaxRetries is the retry budget for new jobs.
const DefaultMaxRetries = 3

// Metadata accumulates per-run counters for a sync job.
type Metadata struct {
	FromCommit      string `json:"from_commit,omitempty"`
	ToCommit        string `json:"to_commit,omitempty"`
	FilesAnalyzed   int    `json:"files_analyzed"`
	FunctionsFound  int    `json:"functions_found"`
	ChangesDetected int    `json:"changes_detected"`
}

// Job is one execution of a repository-wide sync. At most one job per
// repository may be running at a time; the store enforces that at creation.
type Job struct {
	id           string
	repositoryID int64
	jobType      Type
	status       Status
	startedAt    *time.Time
	completedAt  *time.Time
	metadata     Metadata
	errorMessage string
	retryCount   int
	maxRetries   int
	nextRetryAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// New creates a pending job for a repository.
func New(repositoryID int64, jobType Type) Job {
	now := time.Now().UTC()
	return Job{
		id:           uuid.NewString(),
		repositoryID: repositoryID,
		jobType:      jobType,
		status:       StatusPending,
		maxRetries:   DefaultMaxRetries,
		createdAt:    now,
		updatedAt:    now,
	}
}

// NewWithID reconstructs a job from stored state.
func NewWithID(id string, repositoryID int64, jobType Type, status Status,
	startedAt, completedAt *time.Time, metadata Metadata, errorMessage string,
	retryCount, maxRetries int, nextRetryAt *time.Time, createdAt, updatedAt time.Time) Job {
	return Job{
		id:           id,
		repositoryID: repositoryID,
		jobType:      jobType,
		status:       status,
		startedAt:    startedAt,
		completedAt:  completedAt,
		metadata:     metadata,
		errorMessage: errorMessage,
		retryCount:   retryCount,
		maxRetries:   maxRetries,
		nextRetryAt:  nextRetryAt,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// ID returns the job identifier.
func (j Job) ID() string { return j.id }

// RepositoryID returns the synced repository.
func (j Job) RepositoryID() int64 { return j.repositoryID }

// JobType returns what triggered the job.
func (j Job) JobType() Type { return j.jobType }

// Status returns the lifecycle state.
func (j Job) Status() Status { return j.status }

// StartedAt returns when the job began running, nil while pending.
func (j Job) StartedAt() *time.Time { return j.startedAt }

// CompletedAt returns when the job reached a final state, nil until then.
func (j Job) CompletedAt() *time.Time { return j.completedAt }

// Metadata returns the run counters.
func (j Job) Metadata() Metadata { return j.metadata }

// ErrorMessage returns the failure cause, empty unless failed.
func (j Job) ErrorMessage() string { return j.errorMessage }

// RetryCount returns how many retries have been consumed.
func (j Job) RetryCount() int { return j.retryCount }

// MaxRetries returns the retry budget.
func (j Job) MaxRetries() int { return j.maxRetries }

// NextRetryAt returns when the retry sweep may re-execute the job, nil when
// no retry is scheduled.
func (j Job) NextRetryAt() *time.Time { return j.nextRetryAt }

// CreatedAt returns the creation time.
func (j Job) CreatedAt() time.Time { return j.createdAt }

// UpdatedAt returns the last persistence time.
func (j Job) UpdatedAt() time.Time { return j.updatedAt }

// RetryDue reports whether the job is waiting on an elapsed retry time.
func (j Job) RetryDue(now time.Time) bool {
	return j.status == StatusPending && j.nextRetryAt != nil && !j.nextRetryAt.After(now)
}

// Start transitions pending to running.
func (j Job) Start() (Job, error) {
	if j.status != StatusPending {
		return j, fmt.Errorf("sync job %s: cannot start from %q", j.id, j.status)
	}
	now := time.Now().UTC()
	j.status = StatusRunning
	j.startedAt = &now
	j.nextRetryAt = nil
	j.updatedAt = now
	return j, nil
}

// Complete transitions running to completed with final counters.
func (j Job) Complete(metadata Metadata) (Job, error) {
	if j.status != StatusRunning {
		return j, fmt.Errorf("sync job %s: cannot complete from %q", j.id, j.status)
	}
	now := time.Now().UTC()
	j.status = StatusCompleted
	j.metadata = metadata
	j.completedAt = &now
	j.errorMessage = ""
	j.updatedAt = now
	return j, nil
}

// Fail transitions running to failed and, while retries remain, rearms the
// job as pending with an exponential backoff via NextRetry.
func (j Job) Fail(cause error, now time.Time) (Job, error) {
	if j.status != StatusRunning {
		return j, fmt.Errorf("sync job %s: cannot fail from %q", j.id, j.status)
	}
	j.status = StatusFailed
	if cause != nil {
		j.errorMessage = cause.Error()
	}
	j.updatedAt = now

	if at, ok := NextRetry(j.status, j.retryCount, j.maxRetries, now); ok {
		j.status = StatusPending
		j.retryCount++
		j.nextRetryAt = &at
	} else {
		j.completedAt = &now
	}
	return j, nil
}

// Cancel transitions a pending or running job to cancelled. The orchestrator
// honors it at the next stage checkpoint; in-flight work is not interrupted.
func (j Job) Cancel() (Job, error) {
	if j.status != StatusPending && j.status != StatusRunning {
		return j, fmt.Errorf("sync job %s: cannot cancel from %q", j.id, j.status)
	}
	now := time.Now().UTC()
	j.status = StatusCancelled
	j.completedAt = &now
	j.nextRetryAt = nil
	j.updatedAt = now
	return j, nil
}

// WithMetadata returns a copy carrying updated run counters.
func (j Job) WithMetadata(metadata Metadata) Job {
	j.metadata = metadata
	return j
}
