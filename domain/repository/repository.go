package repository

import (
	"fmt"
	"time"
)

// Repository represents one tracked Git repository.
type Repository struct {
	id               int64
	owner            string
	name             string
	remoteURL        string
	defaultBranch    string
	active           bool
	policy           SyncPolicy
	lastSyncedCommit string
	lastSyncedAt     *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// New creates a Repository for the given owner/name.
func New(owner, name, remoteURL string) Repository {
	return Repository{
		owner:         owner,
		name:          name,
		remoteURL:     remoteURL,
		defaultBranch: "main",
		active:        true,
		policy:        DefaultSyncPolicy(),
	}
}

// NewWithID creates a Repository with all fields (used by stores).
func NewWithID(
	id int64,
	owner, name, remoteURL, defaultBranch string,
	active bool,
	policy SyncPolicy,
	lastSyncedCommit string,
	lastSyncedAt *time.Time,
	createdAt, updatedAt time.Time,
) Repository {
	return Repository{
		id:               id,
		owner:            owner,
		name:             name,
		remoteURL:        remoteURL,
		defaultBranch:    defaultBranch,
		active:           active,
		policy:           policy,
		lastSyncedCommit: lastSyncedCommit,
		lastSyncedAt:     lastSyncedAt,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// ID returns the repository ID.
func (r Repository) ID() int64 { return r.id }

// Owner returns the repository owner.
func (r Repository) Owner() string { return r.owner }

// Name returns the repository name.
func (r Repository) Name() string { return r.name }

// FullName returns "owner/name".
func (r Repository) FullName() string { return fmt.Sprintf("%s/%s", r.owner, r.name) }

// RemoteURL returns the remote clone URL.
func (r Repository) RemoteURL() string { return r.remoteURL }

// DefaultBranch returns the branch synced by default.
func (r Repository) DefaultBranch() string { return r.defaultBranch }

// Active reports whether the repository is tracked.
func (r Repository) Active() bool { return r.active }

// Policy returns the sync policy.
func (r Repository) Policy() SyncPolicy { return r.policy }

// LastSyncedCommit returns the most recently synced commit SHA, or "".
func (r Repository) LastSyncedCommit() string { return r.lastSyncedCommit }

// LastSyncedAt returns when the repository last completed a sync.
func (r Repository) LastSyncedAt() *time.Time { return r.lastSyncedAt }

// CreatedAt returns when the repository was registered.
func (r Repository) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns when the repository was last updated.
func (r Repository) UpdatedAt() time.Time { return r.updatedAt }

// WithID returns a copy with the given ID.
func (r Repository) WithID(id int64) Repository {
	r.id = id
	return r
}

// WithDefaultBranch returns a copy with the given default branch.
func (r Repository) WithDefaultBranch(branch string) Repository {
	if branch != "" {
		r.defaultBranch = branch
	}
	return r
}

// WithPolicy returns a copy with the given sync policy.
func (r Repository) WithPolicy(p SyncPolicy) Repository {
	r.policy = p
	return r
}

// WithTimestamps returns a copy with the given timestamps.
func (r Repository) WithTimestamps(createdAt, updatedAt time.Time) Repository {
	r.createdAt = createdAt
	r.updatedAt = updatedAt
	return r
}

// Deactivate returns a copy marked inactive.
func (r Repository) Deactivate() Repository {
	r.active = false
	return r
}

// MarkSynced returns a copy with the last-synced commit and time updated.
func (r Repository) MarkSynced(commitSHA string, at time.Time) Repository {
	r.lastSyncedCommit = commitSHA
	r.lastSyncedAt = &at
	return r
}
