// Package structure provides the extracted code-structure domain type and the
// commit diff classifier.
package structure

import (
	"time"

	"github.com/codecite/codecite/internal/textmatch"
)

// AST holds the lexically recovered declaration details of a function.
type AST struct {
	parameters   []string
	returnType   string
	modifiers    []string
	decorators   []string
	dependencies []string
}

// NewAST creates an AST record.
func NewAST(parameters []string, returnType string, modifiers, decorators, dependencies []string) AST {
	return AST{
		parameters:   copyStrings(parameters),
		returnType:   returnType,
		modifiers:    copyStrings(modifiers),
		decorators:   copyStrings(decorators),
		dependencies: copyStrings(dependencies),
	}
}

// Parameters returns the declared parameter list.
func (a AST) Parameters() []string { return copyStrings(a.parameters) }

// ReturnType returns the declared return type, or "".
func (a AST) ReturnType() string { return a.returnType }

// Modifiers returns declaration modifiers (async, static, visibility).
func (a AST) Modifiers() []string { return copyStrings(a.modifiers) }

// Decorators returns decorators/annotations attached to the declaration.
func (a AST) Decorators() []string { return copyStrings(a.decorators) }

// Dependencies returns callee names referenced inside the body.
func (a AST) Dependencies() []string { return copyStrings(a.dependencies) }

// Metrics holds size and complexity measurements of a function body.
type Metrics struct {
	linesOfCode          int
	cyclomaticComplexity int
	cognitiveComplexity  int
}

// NewMetrics creates a Metrics record.
func NewMetrics(linesOfCode, cyclomatic, cognitive int) Metrics {
	return Metrics{
		linesOfCode:          linesOfCode,
		cyclomaticComplexity: cyclomatic,
		cognitiveComplexity:  cognitive,
	}
}

// LinesOfCode returns the body line count.
func (m Metrics) LinesOfCode() int { return m.linesOfCode }

// Cyclomatic returns the cyclomatic complexity.
func (m Metrics) Cyclomatic() int { return m.cyclomaticComplexity }

// Cognitive returns the cognitive complexity.
func (m Metrics) Cognitive() int { return m.cognitiveComplexity }

// Candidate is one extracted function before it is bound to a repository and
// commit. The extractor emits candidates in source order.
type Candidate struct {
	FilePath     string
	FunctionName string
	ClassName    string
	Signature    string
	StartLine    int
	EndLine      int
	Language     string
	Exported     bool
	AST          AST
	Metrics      Metrics
}

// Fingerprint returns the deterministic identity hash of the candidate's
// normalized signature.
func (c Candidate) Fingerprint() string {
	return textmatch.ContentHash(textmatch.NormalizeSignature(c.Signature))
}

// CodeStructure is one extracted function or method at one commit. Rows are
// immutable once written: a new commit produces new rows, and superseded rows
// are only ever flipped inactive.
type CodeStructure struct {
	id           int64
	repositoryID int64
	filePath     string
	commitSHA    string
	functionName string
	className    string
	signature    string
	fingerprint  string
	startLine    int
	endLine      int
	language     string
	exported     bool
	ast          AST
	metrics      Metrics
	active       bool
	createdAt    time.Time
}

// FromCandidate binds a Candidate to a repository and commit, computing its
// fingerprint.
func FromCandidate(repositoryID int64, commitSHA string, c Candidate) CodeStructure {
	return CodeStructure{
		repositoryID: repositoryID,
		filePath:     c.FilePath,
		commitSHA:    commitSHA,
		functionName: c.FunctionName,
		className:    c.ClassName,
		signature:    textmatch.NormalizeSignature(c.Signature),
		fingerprint:  c.Fingerprint(),
		startLine:    c.StartLine,
		endLine:      c.EndLine,
		language:     c.Language,
		exported:     c.Exported,
		ast:          c.AST,
		metrics:      c.Metrics,
		active:       true,
	}
}

// NewWithID creates a CodeStructure with all fields (used by stores).
func NewWithID(
	id, repositoryID int64,
	filePath, commitSHA, functionName, className, signature, fingerprint string,
	startLine, endLine int,
	language string,
	exported bool,
	ast AST,
	metrics Metrics,
	active bool,
	createdAt time.Time,
) CodeStructure {
	return CodeStructure{
		id:           id,
		repositoryID: repositoryID,
		filePath:     filePath,
		commitSHA:    commitSHA,
		functionName: functionName,
		className:    className,
		signature:    signature,
		fingerprint:  fingerprint,
		startLine:    startLine,
		endLine:      endLine,
		language:     language,
		exported:     exported,
		ast:          ast,
		metrics:      metrics,
		active:       active,
		createdAt:    createdAt,
	}
}

// ID returns the row ID.
func (s CodeStructure) ID() int64 { return s.id }

// RepositoryID returns the owning repository ID.
func (s CodeStructure) RepositoryID() int64 { return s.repositoryID }

// FilePath returns the file path at the commit.
func (s CodeStructure) FilePath() string { return s.filePath }

// CommitSHA returns the commit the structure was extracted at.
func (s CodeStructure) CommitSHA() string { return s.commitSHA }

// FunctionName returns the function name.
func (s CodeStructure) FunctionName() string { return s.functionName }

// ClassName returns the enclosing class name, or "".
func (s CodeStructure) ClassName() string { return s.className }

// Signature returns the normalized declaration text.
func (s CodeStructure) Signature() string { return s.signature }

// Fingerprint returns the identity hash, unique per repository.
func (s CodeStructure) Fingerprint() string { return s.fingerprint }

// ShortFingerprint returns the fingerprint truncated for display.
func (s CodeStructure) ShortFingerprint() string {
	return textmatch.ShortFingerprint(s.fingerprint)
}

// StartLine returns the 1-based first line of the declaration.
func (s CodeStructure) StartLine() int { return s.startLine }

// EndLine returns the 1-based last line of the body.
func (s CodeStructure) EndLine() int { return s.endLine }

// Language returns the detected language.
func (s CodeStructure) Language() string { return s.language }

// Exported reports whether the symbol is public/exported.
func (s CodeStructure) Exported() bool { return s.exported }

// AST returns the declaration details.
func (s CodeStructure) AST() AST { return s.ast }

// Metrics returns the complexity measurements.
func (s CodeStructure) Metrics() Metrics { return s.metrics }

// Active reports whether this row reflects the latest synced commit.
func (s CodeStructure) Active() bool { return s.active }

// CreatedAt returns when the row was written.
func (s CodeStructure) CreatedAt() time.Time { return s.createdAt }

// WithID returns a copy with the given row ID.
func (s CodeStructure) WithID(id int64) CodeStructure {
	s.id = id
	return s
}

// Deactivate returns a copy marked inactive (superseded by a newer commit).
func (s CodeStructure) Deactivate() CodeStructure {
	s.active = false
	return s
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
