// Package hosting talks to the version-control host: a REST client for file
// content and commit listings, and an optional go-git local mirror for commit
// walking without API quota.
package hosting

import (
	"context"
	"errors"
	"time"
)

// ErrFileAbsent reports that the requested path does not exist at the
// requested ref. Callers treat it as "file absent", not as a transport
// failure.
var ErrFileAbsent = errors.New("hosting: file absent")

// CommitAuthor identifies who wrote a commit.
type CommitAuthor struct {
	Name  string
	Email string
	Date  time.Time
}

// Commit is one commit as reported by the host.
type Commit struct {
	SHA     string
	Message string
	Author  CommitAuthor
}

// CommitOptions narrows a commit listing.
type CommitOptions struct {
	// Since filters to commits after this time.
	Since *time.Time
	// SHA selects the branch or starting commit.
	SHA string
	// PerPage caps the page size; the host default applies at zero.
	PerPage int
}

// DirEntry is one entry of a directory listing.
type DirEntry struct {
	Name string
	Path string
	// Type is "file" or "dir".
	Type string
	Size int64
}

// Client is the host surface the sync and relocation paths need. A 404 maps
// to ErrFileAbsent; any other failure is a transport error the sync job
// retry mechanism handles.
type Client interface {
	FileContent(ctx context.Context, owner, repo, path, ref string) (string, error)
	Commits(ctx context.Context, owner, repo string, opts CommitOptions) ([]Commit, error)
	ListDirectory(ctx context.Context, owner, repo, path, ref string) ([]DirEntry, error)
}
