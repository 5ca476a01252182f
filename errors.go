package codecite

import "errors"

// Sentinel errors returned by the Client.
var (
	// ErrNoDatabase is returned by New when no database option was given.
	ErrNoDatabase = errors.New("codecite: no database configured, use WithSQLite or WithPostgres")

	// ErrClientClosed is returned when an operation is attempted on a closed client.
	ErrClientClosed = errors.New("codecite: client is closed")
)
