package hosting

import (
	"context"
	"fmt"
	"log/slog"
)

// RemoteResolver maps an owner/name pair to the repository's clone URL.
type RemoteResolver func(ctx context.Context, owner, repo string) (string, error)

// LocalClient serves Client queries from local go-git mirrors instead of the
// host API. Commits refreshes the mirror before walking; FileContent and
// ListDirectory read whatever the last refresh fetched, so callers list
// commits before reading files, which is what the sync and scan paths do.
type LocalClient struct {
	mirror  *Mirror
	resolve RemoteResolver
	logger  *slog.Logger
}

// NewLocalClient creates a mirror-backed client rooted at dir.
func NewLocalClient(dir string, resolve RemoteResolver, logger *slog.Logger) *LocalClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalClient{
		mirror:  NewMirror(dir, logger),
		resolve: resolve,
		logger:  logger,
	}
}

// Commits refreshes the mirror and walks its history, newest first.
func (c *LocalClient) Commits(ctx context.Context, owner, repo string, opts CommitOptions) ([]Commit, error) {
	remoteURL, err := c.resolve(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("resolve remote for %s/%s: %w", owner, repo, err)
	}
	if err := c.mirror.Sync(ctx, owner, repo, remoteURL); err != nil {
		return nil, fmt.Errorf("refresh mirror for %s/%s: %w", owner, repo, err)
	}

	commits, err := c.mirror.CommitsSince(ctx, owner, repo, opts.SHA, opts.Since)
	if err != nil {
		return nil, err
	}
	if opts.PerPage > 0 && len(commits) > opts.PerPage {
		commits = commits[:opts.PerPage]
	}
	return commits, nil
}

// FileContent reads one file from the mirror at the given revision.
func (c *LocalClient) FileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	return c.mirror.FileAt(ctx, owner, repo, ref, path)
}

// ListDirectory lists one directory level of the mirror at the given revision.
func (c *LocalClient) ListDirectory(ctx context.Context, owner, repo, path, ref string) ([]DirEntry, error) {
	return c.mirror.ListTree(ctx, owner, repo, ref, path)
}
