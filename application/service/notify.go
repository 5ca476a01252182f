package service

import (
	"context"
	"log/slog"
)

// ConflictType states why a citation could not follow its target.
type ConflictType string

const (
	// ConflictDeleted means the cited file no longer exists.
	ConflictDeleted ConflictType = "deleted"
	// ConflictModified means the file exists but the cited content could not
	// be located with enough confidence.
	ConflictModified ConflictType = "modified"
)

// Conflict describes a citation that went stale during event processing.
type Conflict struct {
	ReferenceID string
	Repository  string
	FilePath    string
	Type        ConflictType
	Detail      string
}

// Notifier receives conflict notifications. Implementations must not block
// event processing.
type Notifier interface {
	NotifyConflict(ctx context.Context, c Conflict)
}

// LogNotifier reports conflicts through the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger falls back to the
// default logger.
func NewLogNotifier(logger *slog.Logger) LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return LogNotifier{logger: logger}
}

// NotifyConflict logs the conflict at warn level.
func (n LogNotifier) NotifyConflict(_ context.Context, c Conflict) {
	n.logger.Warn("citation conflict",
		slog.String("reference_id", c.ReferenceID),
		slog.String("repository", c.Repository),
		slog.String("file_path", c.FilePath),
		slog.String("conflict_type", string(c.Type)),
		slog.String("detail", c.Detail),
	)
}
