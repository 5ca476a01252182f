package jsonapi

import (
	"strconv"
	"time"

	"github.com/codecite/codecite/domain/citation"
	"github.com/codecite/codecite/domain/event"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/domain/structure"
	"github.com/codecite/codecite/domain/syncjob"
)

// RepositoryAttributes represents repository attributes in JSON:API format.
type RepositoryAttributes struct {
	Owner            string     `json:"owner"`
	Name             string     `json:"name"`
	FullName         string     `json:"full_name"`
	RemoteURL        string     `json:"remote_url"`
	DefaultBranch    string     `json:"default_branch,omitempty"`
	Active           bool       `json:"active"`
	SyncFrequency    string     `json:"sync_frequency"`
	LastSyncedCommit string     `json:"last_synced_commit,omitempty"`
	LastSyncedAt     *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// RepositoryResource converts a repository to a JSON:API resource.
func RepositoryResource(r repository.Repository) *Resource {
	return NewResource("repository", strconv.FormatInt(r.ID(), 10), RepositoryAttributes{
		Owner:            r.Owner(),
		Name:             r.Name(),
		FullName:         r.FullName(),
		RemoteURL:        r.RemoteURL(),
		DefaultBranch:    r.DefaultBranch(),
		Active:           r.Active(),
		SyncFrequency:    string(r.Policy().Frequency()),
		LastSyncedCommit: r.LastSyncedCommit(),
		LastSyncedAt:     r.LastSyncedAt(),
		CreatedAt:        r.CreatedAt(),
		UpdatedAt:        r.UpdatedAt(),
	})
}

// StructureAttributes represents code structure attributes in JSON:API format.
type StructureAttributes struct {
	RepositoryID int64  `json:"repository_id"`
	FilePath     string `json:"file_path"`
	CommitSHA    string `json:"commit_sha"`
	FunctionName string `json:"function_name"`
	ClassName    string `json:"class_name,omitempty"`
	Signature    string `json:"signature"`
	Fingerprint  string `json:"fingerprint"`
	StartLine    int    `json:"start_line"`
	EndLine      int    `json:"end_line"`
	Language     string `json:"language"`
	Exported     bool   `json:"exported"`
	Active       bool   `json:"active"`
}

// StructureResource converts a code structure to a JSON:API resource.
func StructureResource(s structure.CodeStructure) *Resource {
	return NewResource("structure", strconv.FormatInt(s.ID(), 10), StructureAttributes{
		RepositoryID: s.RepositoryID(),
		FilePath:     s.FilePath(),
		CommitSHA:    s.CommitSHA(),
		FunctionName: s.FunctionName(),
		ClassName:    s.ClassName(),
		Signature:    s.Signature(),
		Fingerprint:  s.Fingerprint(),
		StartLine:    s.StartLine(),
		EndLine:      s.EndLine(),
		Language:     s.Language(),
		Exported:     s.Exported(),
		Active:       s.Active(),
	})
}

// ReferenceAttributes represents citation reference attributes in JSON:API format.
type ReferenceAttributes struct {
	Repository   string     `json:"repository"`
	FilePath     string     `json:"file_path"`
	Type         string     `json:"type"`
	StartLine    *int       `json:"start_line,omitempty"`
	EndLine      *int       `json:"end_line,omitempty"`
	FunctionName string     `json:"function_name,omitempty"`
	Hash         string     `json:"hash"`
	CommitSHA    string     `json:"commit_sha,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	Active       bool       `json:"active"`
	Stale        bool       `json:"stale"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ReferenceResource converts a citation reference to a JSON:API resource.
func ReferenceResource(r citation.Reference) *Resource {
	return NewResource("reference", r.ID(), ReferenceAttributes{
		Repository:   r.FullName(),
		FilePath:     r.FilePath(),
		Type:         string(r.Type()),
		StartLine:    r.StartLine(),
		EndLine:      r.EndLine(),
		FunctionName: r.FunctionName(),
		Hash:         r.Hash(),
		CommitSHA:    r.CommitSHA(),
		LastModified: r.LastModified(),
		Active:       r.Active(),
		Stale:        r.Stale(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	})
}

// EventAttributes represents change event attributes in JSON:API format.
type EventAttributes struct {
	Repository         string    `json:"repository"`
	FilePath           string    `json:"file_path"`
	ChangeType         string    `json:"change_type"`
	OldFilePath        string    `json:"old_file_path,omitempty"`
	CommitHash         string    `json:"commit_hash"`
	Timestamp          time.Time `json:"timestamp"`
	Status             string    `json:"status"`
	ProcessingError    string    `json:"processing_error,omitempty"`
	AffectedReferences []string  `json:"affected_references,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// EventResource converts a change event to a JSON:API resource.
func EventResource(e event.CodeChangeEvent) *Resource {
	return NewResource("event", e.ID(), EventAttributes{
		Repository:         e.Repository(),
		FilePath:           e.FilePath(),
		ChangeType:         string(e.Type()),
		OldFilePath:        e.OldFilePath(),
		CommitHash:         e.CommitHash(),
		Timestamp:          e.Timestamp(),
		Status:             string(e.Status()),
		ProcessingError:    e.ProcessingError(),
		AffectedReferences: e.AffectedReferences(),
		CreatedAt:          e.CreatedAt(),
		UpdatedAt:          e.UpdatedAt(),
	})
}

// JobAttributes represents sync job attributes in JSON:API format.
type JobAttributes struct {
	RepositoryID    int64      `json:"repository_id"`
	JobType         string     `json:"job_type"`
	Status          string     `json:"status"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	FromCommit      string     `json:"from_commit,omitempty"`
	ToCommit        string     `json:"to_commit,omitempty"`
	FilesAnalyzed   int        `json:"files_analyzed"`
	FunctionsFound  int        `json:"functions_found"`
	ChangesDetected int        `json:"changes_detected"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	RetryCount      int        `json:"retry_count"`
	MaxRetries      int        `json:"max_retries"`
	NextRetryAt     *time.Time `json:"next_retry_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// JobResource converts a sync job to a JSON:API resource.
func JobResource(j syncjob.Job) *Resource {
	meta := j.Metadata()
	return NewResource("sync_job", j.ID(), JobAttributes{
		RepositoryID:    j.RepositoryID(),
		JobType:         string(j.JobType()),
		Status:          string(j.Status()),
		StartedAt:       j.StartedAt(),
		CompletedAt:     j.CompletedAt(),
		FromCommit:      meta.FromCommit,
		ToCommit:        meta.ToCommit,
		FilesAnalyzed:   meta.FilesAnalyzed,
		FunctionsFound:  meta.FunctionsFound,
		ChangesDetected: meta.ChangesDetected,
		ErrorMessage:    j.ErrorMessage(),
		RetryCount:      j.RetryCount(),
		MaxRetries:      j.MaxRetries(),
		NextRetryAt:     j.NextRetryAt(),
		CreatedAt:       j.CreatedAt(),
		UpdatedAt:       j.UpdatedAt(),
	})
}
