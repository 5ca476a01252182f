package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/codecite/codecite/domain/citation"
	"github.com/codecite/codecite/domain/event"
	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/domain/structure"
	"github.com/codecite/codecite/domain/syncjob"
)

// encodeStrings serializes a string slice to a JSON column value.
// Empty slices map to "" so unset columns stay readable in raw SQL.
func encodeStrings(values []string) string {
	if len(values) == 0 {
		return ""
	}
	data, _ := json.Marshal(values)
	return string(data)
}

// decodeStrings deserializes a JSON column value into a string slice.
func decodeStrings(column string) ([]string, error) {
	if column == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(column), &values); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	return values, nil
}

// RepositoryMapper maps between domain Repository and RepositoryModel.
type RepositoryMapper struct{}

// ToDomain converts a RepositoryModel to a domain Repository.
func (m RepositoryMapper) ToDomain(e RepositoryModel) (repository.Repository, error) {
	ignore, err := decodeStrings(e.SyncIgnore)
	if err != nil {
		return repository.Repository{}, fmt.Errorf("repository %d sync_ignore: %w", e.ID, err)
	}
	policy := repository.NewSyncPolicy(repository.SyncFrequency(e.SyncFrequency), e.SyncBranch, ignore)

	return repository.NewWithID(
		e.ID,
		e.Owner, e.Name, e.RemoteURL, e.DefaultBranch,
		e.Active,
		policy,
		e.LastSyncedCommit,
		e.LastSyncedAt,
		e.CreatedAt, e.UpdatedAt,
	), nil
}

// ToModel converts a domain Repository to a RepositoryModel.
func (m RepositoryMapper) ToModel(r repository.Repository) RepositoryModel {
	return RepositoryModel{
		ID:               r.ID(),
		Owner:            r.Owner(),
		Name:             r.Name(),
		RemoteURL:        r.RemoteURL(),
		DefaultBranch:    r.DefaultBranch(),
		Active:           r.Active(),
		SyncFrequency:    string(r.Policy().Frequency()),
		SyncBranch:       r.Policy().Branch(),
		SyncIgnore:       encodeStrings(r.Policy().Ignore()),
		LastSyncedCommit: r.LastSyncedCommit(),
		LastSyncedAt:     r.LastSyncedAt(),
		CreatedAt:        r.CreatedAt(),
		UpdatedAt:        r.UpdatedAt(),
	}
}

// StructureMapper maps between domain CodeStructure and CodeStructureModel.
type StructureMapper struct{}

// ToDomain converts a CodeStructureModel to a domain CodeStructure.
func (m StructureMapper) ToDomain(e CodeStructureModel) (structure.CodeStructure, error) {
	parameters, err := decodeStrings(e.Parameters)
	if err != nil {
		return structure.CodeStructure{}, fmt.Errorf("structure %d parameters: %w", e.ID, err)
	}
	modifiers, err := decodeStrings(e.Modifiers)
	if err != nil {
		return structure.CodeStructure{}, fmt.Errorf("structure %d modifiers: %w", e.ID, err)
	}
	decorators, err := decodeStrings(e.Decorators)
	if err != nil {
		return structure.CodeStructure{}, fmt.Errorf("structure %d decorators: %w", e.ID, err)
	}
	dependencies, err := decodeStrings(e.Dependencies)
	if err != nil {
		return structure.CodeStructure{}, fmt.Errorf("structure %d dependencies: %w", e.ID, err)
	}

	ast := structure.NewAST(parameters, e.ReturnType, modifiers, decorators, dependencies)
	metrics := structure.NewMetrics(e.LinesOfCode, e.Cyclomatic, e.Cognitive)

	return structure.NewWithID(
		e.ID, e.RepositoryID,
		e.FilePath, e.CommitSHA, e.FunctionName, e.ClassName, e.Signature, e.Fingerprint,
		e.StartLine, e.EndLine,
		e.Language,
		e.Exported,
		ast,
		metrics,
		e.Active,
		e.CreatedAt,
	), nil
}

// ToModel converts a domain CodeStructure to a CodeStructureModel.
func (m StructureMapper) ToModel(s structure.CodeStructure) CodeStructureModel {
	return CodeStructureModel{
		ID:           s.ID(),
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
		Parameters:   encodeStrings(s.AST().Parameters()),
		ReturnType:   s.AST().ReturnType(),
		Modifiers:    encodeStrings(s.AST().Modifiers()),
		Decorators:   encodeStrings(s.AST().Decorators()),
		Dependencies: encodeStrings(s.AST().Dependencies()),
		LinesOfCode:  s.Metrics().LinesOfCode(),
		Cyclomatic:   s.Metrics().Cyclomatic(),
		Cognitive:    s.Metrics().Cognitive(),
		Active:       s.Active(),
		CreatedAt:    s.CreatedAt(),
	}
}

// ReferenceMapper maps between domain Reference and ReferenceModel.
type ReferenceMapper struct{}

// ToDomain converts a ReferenceModel to a domain Reference.
func (m ReferenceMapper) ToDomain(e ReferenceModel) (citation.Reference, error) {
	dependencies, err := decodeStrings(e.Dependencies)
	if err != nil {
		return citation.Reference{}, fmt.Errorf("reference %s dependencies: %w", e.ID, err)
	}

	return citation.NewWithID(
		e.ID, e.RepoOwner, e.RepoName, e.FilePath,
		citation.ReferenceType(e.ReferenceType), e.StartLine, e.EndLine,
		e.FunctionName, e.Content, e.CommitSHA, e.LastModified,
		e.Active, e.Stale, dependencies, e.CreatedAt, e.UpdatedAt,
	), nil
}

// ToModel converts a domain Reference to a ReferenceModel.
func (m ReferenceMapper) ToModel(r citation.Reference) ReferenceModel {
	return ReferenceModel{
		ID:            r.ID(),
		RepoOwner:     r.RepoOwner(),
		RepoName:      r.RepoName(),
		FilePath:      r.FilePath(),
		ReferenceType: string(r.Type()),
		StartLine:     r.StartLine(),
		EndLine:       r.EndLine(),
		FunctionName:  r.FunctionName(),
		Content:       r.Content(),
		ContentHash:   r.Hash(),
		CommitSHA:     r.CommitSHA(),
		LastModified:  r.LastModified(),
		Active:        r.Active(),
		Stale:         r.Stale(),
		Dependencies:  encodeStrings(r.Dependencies()),
		CreatedAt:     r.CreatedAt(),
		UpdatedAt:     r.UpdatedAt(),
	}
}

// EventMapper maps between domain CodeChangeEvent and ChangeEventModel.
type EventMapper struct{}

// ToDomain converts a ChangeEventModel to a domain CodeChangeEvent.
func (m EventMapper) ToDomain(e ChangeEventModel) (event.CodeChangeEvent, error) {
	affected, err := decodeStrings(e.AffectedReferences)
	if err != nil {
		return event.CodeChangeEvent{}, fmt.Errorf("event %s affected_references: %w", e.ID, err)
	}

	return event.NewWithID(
		e.ID, e.Repository, e.FilePath, event.ChangeType(e.ChangeType),
		e.OldContent, e.NewContent, e.OldFilePath, affected,
		e.CommitHash, e.Timestamp, event.Status(e.Status), e.ProcessingError,
		e.CreatedAt, e.UpdatedAt,
	), nil
}

// ToModel converts a domain CodeChangeEvent to a ChangeEventModel.
func (m EventMapper) ToModel(ev event.CodeChangeEvent) ChangeEventModel {
	return ChangeEventModel{
		ID:                 ev.ID(),
		Repository:         ev.Repository(),
		FilePath:           ev.FilePath(),
		ChangeType:         string(ev.Type()),
		OldContent:         ev.OldContent(),
		NewContent:         ev.NewContent(),
		OldFilePath:        ev.OldFilePath(),
		AffectedReferences: encodeStrings(ev.AffectedReferences()),
		CommitHash:         ev.CommitHash(),
		Timestamp:          ev.Timestamp(),
		Status:             string(ev.Status()),
		ProcessingError:    ev.ProcessingError(),
		CreatedAt:          ev.CreatedAt(),
		UpdatedAt:          ev.UpdatedAt(),
	}
}

// JobMapper maps between domain Job and SyncJobModel.
type JobMapper struct{}

// ToDomain converts a SyncJobModel to a domain Job.
func (m JobMapper) ToDomain(e SyncJobModel) (syncjob.Job, error) {
	metadata := syncjob.Metadata{
		FromCommit:      e.FromCommit,
		ToCommit:        e.ToCommit,
		FilesAnalyzed:   e.FilesAnalyzed,
		FunctionsFound:  e.FunctionsFound,
		ChangesDetected: e.ChangesFound,
	}

	return syncjob.NewWithID(
		e.ID, e.RepositoryID, syncjob.Type(e.JobType), syncjob.Status(e.Status),
		e.StartedAt, e.CompletedAt, metadata, e.ErrorMessage,
		e.RetryCount, e.MaxRetries, e.NextRetryAt, e.CreatedAt, e.UpdatedAt,
	), nil
}

// ToModel converts a domain Job to a SyncJobModel.
func (m JobMapper) ToModel(j syncjob.Job) SyncJobModel {
	return SyncJobModel{
		ID:             j.ID(),
		RepositoryID:   j.RepositoryID(),
		JobType:        string(j.JobType()),
		Status:         string(j.Status()),
		StartedAt:      j.StartedAt(),
		CompletedAt:    j.CompletedAt(),
		FromCommit:     j.Metadata().FromCommit,
		ToCommit:       j.Metadata().ToCommit,
		FilesAnalyzed:  j.Metadata().FilesAnalyzed,
		FunctionsFound: j.Metadata().FunctionsFound,
		ChangesFound:   j.Metadata().ChangesDetected,
		ErrorMessage:   j.ErrorMessage(),
		RetryCount:     j.RetryCount(),
		MaxRetries:     j.MaxRetries(),
		NextRetryAt:    j.NextRetryAt(),
		CreatedAt:      j.CreatedAt(),
		UpdatedAt:      j.UpdatedAt(),
	}
}
