package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codecite/codecite/domain/citation"
	"github.com/codecite/codecite/infrastructure/extraction"
	"github.com/codecite/codecite/infrastructure/hosting"
)

// Scanner registers citation references found in documentation. Each
// reference is pinned to the cited repository's current head so later
// relocation has known-good content to match against.
type Scanner struct {
	references ReferenceStore
	host       hosting.Client
	extractor  *extraction.Extractor
	logger     *slog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(references ReferenceStore, host hosting.Client, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		references: references,
		host:       host,
		extractor:  extraction.New(),
		logger:     logger,
	}
}

// ScanDocument extracts every citation link from a markdown document and
// saves one reference per link. References whose content cannot be fetched
// are saved unpinned rather than dropped; relocation then treats their first
// drift as a conflict.
func (s *Scanner) ScanDocument(ctx context.Context, doc string) ([]citation.Reference, error) {
	links := citation.ScanDocument(doc)

	heads := make(map[string]string)
	saved := make([]citation.Reference, 0, len(links))
	for _, link := range links {
		ref := link.ToReference()

		pinned, err := s.pin(ctx, ref, heads)
		if err != nil {
			s.logger.Warn("could not pin reference content",
				slog.String("repository", ref.FullName()),
				slog.String("file", ref.FilePath()),
				slog.String("error", err.Error()),
			)
			pinned = ref
		}

		stored, err := s.references.Save(ctx, pinned)
		if err != nil {
			return saved, fmt.Errorf("save reference: %w", err)
		}
		saved = append(saved, stored)
	}
	return saved, nil
}

// pin fetches the cited file at the repository head and captures the
// referenced window as the reference content.
func (s *Scanner) pin(ctx context.Context, ref citation.Reference, heads map[string]string) (citation.Reference, error) {
	head, ok := heads[ref.FullName()]
	if !ok {
		commits, err := s.host.Commits(ctx, ref.RepoOwner(), ref.RepoName(), hosting.CommitOptions{PerPage: 1})
		if err != nil {
			return ref, fmt.Errorf("resolve head: %w", err)
		}
		if len(commits) == 0 {
			return ref, errors.New("repository has no commits")
		}
		head = commits[0].SHA
		heads[ref.FullName()] = head
	}

	content, err := s.host.FileContent(ctx, ref.RepoOwner(), ref.RepoName(), ref.FilePath(), head)
	if err != nil {
		return ref, fmt.Errorf("fetch %s: %w", ref.FilePath(), err)
	}

	switch ref.Type() {
	case citation.TypeFunction:
		candidates, err := s.extractor.Extract(ref.FilePath(), content)
		if err != nil {
			return ref, fmt.Errorf("extract functions: %w", err)
		}
		for _, c := range candidates {
			if c.FunctionName == ref.FunctionName() {
				window := sliceLines(content, c.StartLine, c.EndLine)
				return ref.RelocateTo(c.StartLine, c.EndLine, window, head), nil
			}
		}
		return ref, fmt.Errorf("function %q not found in %s", ref.FunctionName(), ref.FilePath())
	default:
		start := *ref.StartLine()
		end := start
		if ref.EndLine() != nil {
			end = *ref.EndLine()
		}
		window := sliceLines(content, start, end)
		if window == "" {
			return ref, fmt.Errorf("lines %d-%d out of range for %s", start, end, ref.FilePath())
		}
		return ref.WithContent(window, head), nil
	}
}

// sliceLines returns the 1-indexed inclusive line window, or "" when the
// range falls outside the content.
func sliceLines(content string, start, end int) string {
	lines := strings.Split(content, "\n")
	if start < 1 || start > len(lines) || end < start {
		return ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start-1:end], "\n")
}
