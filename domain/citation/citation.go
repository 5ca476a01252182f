// Package citation holds the code citation value type and the markdown link
// grammar that produces citations from scanned documents.
package citation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codecite/codecite/internal/textmatch"
)

// ReferenceType distinguishes how a citation pins its target.
type ReferenceType string

const (
	// TypeLine cites a single source line.
	TypeLine ReferenceType = "line"
	// TypeFunction cites a named function located by the boundary detector.
	TypeFunction ReferenceType = "function"
	// TypeRange cites an inclusive line range.
	TypeRange ReferenceType = "range"
)

// Valid reports whether t is a known reference type.
func (t ReferenceType) Valid() bool {
	switch t {
	case TypeLine, TypeFunction, TypeRange:
		return true
	}
	return false
}

// Reference is one pointer from a document into a repository. The stored
// content is the last snippet text verified against commitSHA, and hash is
// always the SHA-256 of that content.
type Reference struct {
	id            string
	repoOwner     string
	repoName      string
	filePath      string
	referenceType ReferenceType
	startLine     *int
	endLine       *int
	functionName  string
	content       string
	hash          string
	commitSHA     string
	lastModified  *time.Time
	active        bool
	stale         bool
	dependencies  []string
	createdAt     time.Time
	updatedAt     time.Time
}

// NewLineReference creates an active citation of a single line.
func NewLineReference(owner, name, filePath string, line int) Reference {
	start := line
	return newReference(owner, name, filePath, TypeLine, &start, nil, "")
}

// NewRangeReference creates an active citation of an inclusive line range.
func NewRangeReference(owner, name, filePath string, startLine, endLine int) Reference {
	start, end := startLine, endLine
	return newReference(owner, name, filePath, TypeRange, &start, &end, "")
}

// NewFunctionReference creates an active citation of a named function.
func NewFunctionReference(owner, name, filePath, functionName string) Reference {
	return newReference(owner, name, filePath, TypeFunction, nil, nil, functionName)
}

func newReference(owner, name, filePath string, t ReferenceType, start, end *int, fn string) Reference {
	now := time.Now().UTC()
	return Reference{
		id:            uuid.NewString(),
		repoOwner:     owner,
		repoName:      name,
		filePath:      filePath,
		referenceType: t,
		startLine:     start,
		endLine:       end,
		functionName:  fn,
		active:        true,
		createdAt:     now,
		updatedAt:     now,
	}
}

// NewWithID reconstructs a reference from stored state. The hash is
// recomputed from content rather than trusted.
func NewWithID(id, owner, name, filePath string, t ReferenceType, start, end *int,
	functionName, content, commitSHA string, lastModified *time.Time,
	active, stale bool, dependencies []string, createdAt, updatedAt time.Time) Reference {
	return Reference{
		id:            id,
		repoOwner:     owner,
		repoName:      name,
		filePath:      filePath,
		referenceType: t,
		startLine:     start,
		endLine:       end,
		functionName:  functionName,
		content:       content,
		hash:          hashContent(content),
		commitSHA:     commitSHA,
		lastModified:  lastModified,
		active:        active,
		stale:         stale,
		dependencies:  dependencies,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func hashContent(content string) string {
	if content == "" {
		return ""
	}
	return textmatch.ContentHash(content)
}

// ID returns the citation identifier.
func (r Reference) ID() string { return r.id }

// RepoOwner returns the repository owner.
func (r Reference) RepoOwner() string { return r.repoOwner }

// RepoName returns the repository name.
func (r Reference) RepoName() string { return r.repoName }

// FullName returns "owner/name".
func (r Reference) FullName() string {
	return fmt.Sprintf("%s/%s", r.repoOwner, r.repoName)
}

// FilePath returns the cited file path inside the repository.
func (r Reference) FilePath() string { return r.filePath }

// Type returns the reference type.
func (r Reference) Type() ReferenceType { return r.referenceType }

// StartLine returns the cited start line, nil for function citations.
func (r Reference) StartLine() *int { return r.startLine }

// EndLine returns the cited end line, nil for line and function citations.
func (r Reference) EndLine() *int { return r.endLine }

// FunctionName returns the cited function name, empty unless TypeFunction.
func (r Reference) FunctionName() string { return r.functionName }

// Content returns the last verified snippet text.
func (r Reference) Content() string { return r.content }

// Hash returns the SHA-256 of Content.
func (r Reference) Hash() string { return r.hash }

// CommitSHA returns the commit the content was last verified against.
func (r Reference) CommitSHA() string { return r.commitSHA }

// LastModified returns when the citation was last relocated, nil if never.
func (r Reference) LastModified() *time.Time { return r.lastModified }

// Active reports whether the cited source still exists.
func (r Reference) Active() bool { return r.active }

// Stale reports whether the stored content is unverified against the
// current commit.
func (r Reference) Stale() bool { return r.stale }

// Dependencies returns the callee identifiers recorded for the citation.
func (r Reference) Dependencies() []string { return r.dependencies }

// CreatedAt returns the creation time.
func (r Reference) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last persistence time.
func (r Reference) UpdatedAt() time.Time { return r.updatedAt }

// LineCount returns the number of cited lines, 0 when unknown.
func (r Reference) LineCount() int {
	if r.startLine == nil {
		return 0
	}
	if r.endLine == nil {
		return 1
	}
	return *r.endLine - *r.startLine + 1
}

// WithContent returns a copy with content verified at commitSHA. The hash
// follows the content and staleness clears.
func (r Reference) WithContent(content, commitSHA string) Reference {
	now := time.Now().UTC()
	r.content = content
	r.hash = hashContent(content)
	r.commitSHA = commitSHA
	r.lastModified = &now
	r.stale = false
	r.updatedAt = now
	return r
}

// WithDependencies returns a copy with the dependency list replaced.
func (r Reference) WithDependencies(deps []string) Reference {
	r.dependencies = deps
	return r
}

// RelocateTo returns a copy moved to a new span with verified content.
func (r Reference) RelocateTo(startLine, endLine int, content, commitSHA string) Reference {
	r = r.WithContent(content, commitSHA)
	r.startLine = &startLine
	if r.referenceType == TypeLine {
		r.endLine = nil
	} else {
		r.endLine = &endLine
	}
	return r
}

// MarkStale returns a copy flagged as unverified.
func (r Reference) MarkStale() Reference {
	r.stale = true
	r.updatedAt = time.Now().UTC()
	return r
}

// Deactivate returns a copy marked inactive and stale. Citations are never
// hard-deleted.
func (r Reference) Deactivate() Reference {
	r.active = false
	r.stale = true
	r.updatedAt = time.Now().UTC()
	return r
}
