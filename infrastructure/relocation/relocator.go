package relocation

import (
	"strings"

	"github.com/codecite/codecite/domain/citation"
	"github.com/codecite/codecite/internal/textmatch"
)

// Matching thresholds. A fuzzy result below FoundThreshold is no match at
// all; one above it is reported; only above ApplyThreshold may line numbers
// be updated, since silently relocating on a weak match risks attaching a
// citation to unrelated code.
const (
	FoundThreshold = 0.5
	ApplyThreshold = 0.8
)

// Outcome classifies a relocation attempt.
type Outcome string

const (
	// OutcomeUnchanged means the snippet at the resolved range still hashes
	// to the stored hash.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeRelocated means a new position was found with confidence high
	// enough to apply.
	OutcomeRelocated Outcome = "relocated"
	// OutcomeLowConfidence means the best match sits in the report-only band
	// between the found and apply thresholds.
	OutcomeLowConfidence Outcome = "low_confidence"
	// OutcomeNotFound means nothing matched above the found threshold.
	OutcomeNotFound Outcome = "not_found"
)

// Result is the output of one relocation attempt. Span and Content are only
// meaningful for unchanged, relocated, and low-confidence outcomes.
type Result struct {
	Outcome    Outcome
	Span       Span
	Content    string
	Confidence float64
}

// Applied reports whether the caller should update the citation's lines,
// content, and hash from the result.
func (r Result) Applied() bool {
	return r.Outcome == OutcomeRelocated
}

// Relocator computes a citation's new location inside changed file content.
type Relocator struct {
	locator FunctionLocator
}

// NewRelocator returns a relocator using the given function locator, or the
// lexical one when nil.
func NewRelocator(locator FunctionLocator) *Relocator {
	if locator == nil {
		locator = NewLexicalLocator()
	}
	return &Relocator{locator: locator}
}

// Relocate finds ref's new position in newContent.
//
// Function citations resolve their range through the locator first; a name
// that no longer appears is not found. Range citations hash the snippet at
// the stored range and no-op when it matches. Otherwise an exact trimmed
// window match wins with confidence 1.0, then the best fuzzy window above
// the thresholds.
func (r *Relocator) Relocate(ref citation.Reference, newContent string) Result {
	lines := strings.Split(newContent, "\n")

	if ref.Type() == citation.TypeFunction {
		return r.relocateFunction(ref, lines)
	}
	return r.relocateWindow(ref, lines)
}

func (r *Relocator) relocateFunction(ref citation.Reference, lines []string) Result {
	span, ok := r.locator.Locate(strings.Join(lines, "\n"), ref.FunctionName())
	if !ok {
		return Result{Outcome: OutcomeNotFound}
	}
	content := snippet(lines, span)
	if ref.Hash() != "" && textmatch.ContentHash(content) == ref.Hash() {
		return Result{Outcome: OutcomeUnchanged, Span: span, Content: content, Confidence: 1.0}
	}
	return Result{Outcome: OutcomeRelocated, Span: span, Content: content, Confidence: 1.0}
}

func (r *Relocator) relocateWindow(ref citation.Reference, lines []string) Result {
	window := windowSize(ref)
	if window <= 0 {
		return Result{Outcome: OutcomeNotFound}
	}

	// Hash short-circuit at the stored range.
	if ref.StartLine() != nil {
		start := *ref.StartLine() - 1
		if start >= 0 && start+window <= len(lines) {
			span := Span{StartLine: start + 1, EndLine: start + window}
			content := snippet(lines, span)
			if ref.Hash() != "" && textmatch.ContentHash(content) == ref.Hash() {
				return Result{Outcome: OutcomeUnchanged, Span: span, Content: content, Confidence: 1.0}
			}
		}
	}

	stored := trimmedText(strings.Split(ref.Content(), "\n"))
	if stored == "" {
		return Result{Outcome: OutcomeNotFound}
	}

	// Exact pass: trimmed text equality.
	for start := 0; start+window <= len(lines); start++ {
		span := Span{StartLine: start + 1, EndLine: start + window}
		if trimmedText(lines[start:start+window]) == stored {
			return Result{Outcome: OutcomeRelocated, Span: span, Content: snippet(lines, span), Confidence: 1.0}
		}
	}

	// Fuzzy pass: best normalized similarity across all windows.
	best := 0.0
	bestStart := -1
	for start := 0; start+window <= len(lines); start++ {
		score := textmatch.Similarity(trimmedText(lines[start:start+window]), stored)
		if score > best {
			best = score
			bestStart = start
		}
	}
	if bestStart < 0 || best <= FoundThreshold {
		return Result{Outcome: OutcomeNotFound, Confidence: best}
	}

	span := Span{StartLine: bestStart + 1, EndLine: bestStart + window}
	result := Result{Span: span, Content: snippet(lines, span), Confidence: best}
	if best > ApplyThreshold {
		result.Outcome = OutcomeRelocated
	} else {
		result.Outcome = OutcomeLowConfidence
	}
	return result
}

// windowSize is the line count of the stored snippet, falling back to the
// stored range.
func windowSize(ref citation.Reference) int {
	if ref.Content() != "" {
		return len(strings.Split(ref.Content(), "\n"))
	}
	return ref.LineCount()
}

func snippet(lines []string, span Span) string {
	start := span.StartLine - 1
	end := span.EndLine
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

func trimmedText(lines []string) string {
	trimmed := make([]string, len(lines))
	for i, l := range lines {
		trimmed[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(trimmed, "\n"))
}
