package hosting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Mirror keeps local clones of tracked repositories so commit walking and
// file reads do not consume API quota.
type Mirror struct {
	dir    string
	logger *slog.Logger
}

// NewMirror creates a mirror rooted at dir.
func NewMirror(dir string, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{dir: dir, logger: logger}
}

func (m *Mirror) clonePath(owner, repo string) string {
	return filepath.Join(m.dir, owner, repo)
}

// Sync clones the repository on first use and fetches afterwards.
func (m *Mirror) Sync(ctx context.Context, owner, repo, remoteURL string) error {
	path := m.clonePath(owner, repo)
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		m.logger.Info("cloning repository mirror",
			slog.String("url", remoteURL),
			slog.String("path", path),
		)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create mirror directory: %w", err)
		}
		if _, err := gogit.PlainCloneContext(ctx, path, false, &gogit.CloneOptions{URL: remoteURL}); err != nil {
			return fmt.Errorf("clone repository: %w", err)
		}
		return nil
	}

	r, err := gogit.PlainOpen(path)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	err = r.FetchContext(ctx, &gogit.FetchOptions{RemoteName: "origin", Force: true})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch repository: %w", err)
	}
	return nil
}

// CommitsSince walks the mirror's history from a branch head, newest first,
// stopping at commits older than since.
func (m *Mirror) CommitsSince(ctx context.Context, owner, repo, branch string, since *time.Time) ([]Commit, error) {
	r, err := gogit.PlainOpen(m.clonePath(owner, repo))
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	opts := &gogit.LogOptions{}
	if branch != "" {
		ref, err := r.Reference(plumbing.NewBranchReferenceName(branch), true)
		if err != nil {
			ref, err = r.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
			if err != nil {
				return nil, fmt.Errorf("resolve branch %s: %w", branch, err)
			}
		}
		opts.From = ref.Hash()
	}
	if since != nil {
		opts.Since = since
	}

	iter, err := r.Log(opts)
	if err != nil {
		return nil, fmt.Errorf("get commit log: %w", err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, Commit{
			SHA:     c.Hash.String(),
			Message: c.Message,
			Author: CommitAuthor{
				Name:  c.Author.Name,
				Email: c.Author.Email,
				Date:  c.Author.When.UTC(),
			},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}
	return commits, nil
}

// FileAt reads one file from the mirror at a revision, which may be a commit
// SHA or a branch name. A missing path returns ErrFileAbsent.
func (m *Mirror) FileAt(_ context.Context, owner, repo, rev, path string) (string, error) {
	r, err := gogit.PlainOpen(m.clonePath(owner, repo))
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	commit, err := m.commitAt(r, rev)
	if err != nil {
		return "", err
	}
	file, err := commit.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", fmt.Errorf("%w: %s@%s", ErrFileAbsent, path, rev)
		}
		return "", fmt.Errorf("read file %s: %w", path, err)
	}
	content, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("read file contents: %w", err)
	}
	return content, nil
}

// ListTree lists one directory level of the mirror at a revision.
func (m *Mirror) ListTree(ctx context.Context, owner, repo, rev, dir string) ([]DirEntry, error) {
	r, err := gogit.PlainOpen(m.clonePath(owner, repo))
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	commit, err := m.commitAt(r, rev)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read commit tree: %w", err)
	}
	if dir != "" {
		if tree, err = tree.Tree(dir); err != nil {
			return nil, fmt.Errorf("read tree %s: %w", dir, err)
		}
	}

	entries := make([]DirEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := DirEntry{
			Name: e.Name,
			Path: filepath.ToSlash(filepath.Join(dir, e.Name)),
			Type: "file",
		}
		if e.Mode == filemode.Dir {
			entry.Type = "dir"
		} else if blob, err := r.BlobObject(e.Hash); err == nil {
			entry.Size = blob.Size
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// commitAt resolves a revision (SHA, branch, tag) to its commit object.
func (m *Mirror) commitAt(r *gogit.Repository, rev string) (*object.Commit, error) {
	hash, err := r.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %s: %w", rev, err)
	}
	commit, err := r.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("resolve commit %s: %w", hash, err)
	}
	return commit, nil
}
