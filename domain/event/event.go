// Package event holds the code change event state machine and the webhook
// payload primitives that feed it.
package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChangeType describes what happened to a cited file in a push.
type ChangeType string

const (
	ChangeModified ChangeType = "modified"
	ChangeMoved    ChangeType = "moved"
	ChangeDeleted  ChangeType = "deleted"
	ChangeRenamed  ChangeType = "renamed"
)

// Valid reports whether t is a known change type.
func (t ChangeType) Valid() bool {
	switch t {
	case ChangeModified, ChangeMoved, ChangeDeleted, ChangeRenamed:
		return true
	}
	return false
}

// Status is the processing state of a change event.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further processing will happen without an
// explicit requeue.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CodeChangeEvent is one file-level change detected from a webhook push.
// Events are created only for files that have at least one active citation.
type CodeChangeEvent struct {
	id                 string
	repository         string
	filePath           string
	changeType         ChangeType
	oldContent         string
	newContent         string
	oldFilePath        string
	affectedReferences []string
	commitHash         string
	timestamp          time.Time
	status             Status
	processingError    string
	createdAt          time.Time
	updatedAt          time.Time
}

// New creates a pending event for one touched file in one commit.
func New(repository, filePath string, changeType ChangeType, commitHash string,
	timestamp time.Time, affectedReferences []string) CodeChangeEvent {
	now := time.Now().UTC()
	return CodeChangeEvent{
		id:                 uuid.NewString(),
		repository:         repository,
		filePath:           filePath,
		changeType:         changeType,
		affectedReferences: affectedReferences,
		commitHash:         commitHash,
		timestamp:          timestamp,
		status:             StatusPending,
		createdAt:          now,
		updatedAt:          now,
	}
}

// NewWithID reconstructs an event from stored state.
func NewWithID(id, repository, filePath string, changeType ChangeType,
	oldContent, newContent, oldFilePath string, affectedReferences []string,
	commitHash string, timestamp time.Time, status Status, processingError string,
	createdAt, updatedAt time.Time) CodeChangeEvent {
	return CodeChangeEvent{
		id:                 id,
		repository:         repository,
		filePath:           filePath,
		changeType:         changeType,
		oldContent:         oldContent,
		newContent:         newContent,
		oldFilePath:        oldFilePath,
		affectedReferences: affectedReferences,
		commitHash:         commitHash,
		timestamp:          timestamp,
		status:             status,
		processingError:    processingError,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// ID returns the event identifier.
func (e CodeChangeEvent) ID() string { return e.id }

// Repository returns the "owner/name" of the pushed repository.
func (e CodeChangeEvent) Repository() string { return e.repository }

// FilePath returns the touched file path.
func (e CodeChangeEvent) FilePath() string { return e.filePath }

// Type returns the change type.
func (e CodeChangeEvent) Type() ChangeType { return e.changeType }

// OldContent returns the file content before the change, if captured.
func (e CodeChangeEvent) OldContent() string { return e.oldContent }

// NewContent returns the file content after the change, if captured.
func (e CodeChangeEvent) NewContent() string { return e.newContent }

// OldFilePath returns the previous path for moved and renamed files.
func (e CodeChangeEvent) OldFilePath() string { return e.oldFilePath }

// AffectedReferences returns the citation IDs touched by the change.
func (e CodeChangeEvent) AffectedReferences() []string { return e.affectedReferences }

// CommitHash returns the commit the change came from.
func (e CodeChangeEvent) CommitHash() string { return e.commitHash }

// Timestamp returns the commit timestamp.
func (e CodeChangeEvent) Timestamp() time.Time { return e.timestamp }

// Status returns the processing status.
func (e CodeChangeEvent) Status() Status { return e.status }

// ProcessingError returns the failure message, empty unless failed.
func (e CodeChangeEvent) ProcessingError() string { return e.processingError }

// CreatedAt returns the creation time.
func (e CodeChangeEvent) CreatedAt() time.Time { return e.createdAt }

// UpdatedAt returns the last persistence time.
func (e CodeChangeEvent) UpdatedAt() time.Time { return e.updatedAt }

// IsProcessable reports whether the event is waiting to be picked up.
func (e CodeChangeEvent) IsProcessable() bool { return e.status == StatusPending }

// WithContents returns a copy carrying the before and after file contents.
func (e CodeChangeEvent) WithContents(oldContent, newContent string) CodeChangeEvent {
	e.oldContent = oldContent
	e.newContent = newContent
	return e
}

// WithOldFilePath returns a copy recording the pre-move path.
func (e CodeChangeEvent) WithOldFilePath(path string) CodeChangeEvent {
	e.oldFilePath = path
	return e
}

// StartProcessing transitions pending to processing.
func (e CodeChangeEvent) StartProcessing() (CodeChangeEvent, error) {
	if e.status != StatusPending {
		return e, fmt.Errorf("event %s: cannot start processing from %q", e.id, e.status)
	}
	e.status = StatusProcessing
	e.updatedAt = time.Now().UTC()
	return e, nil
}

// Complete transitions processing to completed.
func (e CodeChangeEvent) Complete() (CodeChangeEvent, error) {
	if e.status != StatusProcessing {
		return e, fmt.Errorf("event %s: cannot complete from %q", e.id, e.status)
	}
	e.status = StatusCompleted
	e.processingError = ""
	e.updatedAt = time.Now().UTC()
	return e, nil
}

// Fail transitions processing to failed with the recorded cause. Failed
// events stay failed until explicitly requeued.
func (e CodeChangeEvent) Fail(cause error) (CodeChangeEvent, error) {
	if e.status != StatusProcessing {
		return e, fmt.Errorf("event %s: cannot fail from %q", e.id, e.status)
	}
	e.status = StatusFailed
	if cause != nil {
		e.processingError = cause.Error()
	}
	e.updatedAt = time.Now().UTC()
	return e, nil
}

// Requeue resets a failed event to pending for another attempt.
func (e CodeChangeEvent) Requeue() (CodeChangeEvent, error) {
	if e.status != StatusFailed {
		return e, fmt.Errorf("event %s: cannot requeue from %q", e.id, e.status)
	}
	e.status = StatusPending
	e.processingError = ""
	e.updatedAt = time.Now().UTC()
	return e, nil
}
