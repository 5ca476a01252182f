package repository

// WithOwnerName filters by the "owner" and "name" columns.
func WithOwnerName(owner, name string) []Option {
	return []Option{
		WithCondition("owner", owner),
		WithCondition("name", name),
	}
}

// WithActive filters for active repositories.
func WithActive() Option {
	return WithCondition("active", true)
}

// WithFrequency filters by the "sync_frequency" column.
func WithFrequency(f SyncFrequency) Option {
	return WithCondition("sync_frequency", string(f))
}
