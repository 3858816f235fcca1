package storage

import (
	"context"
)

// SessionRepository persists session snapshots.
// Implementations must be thread-safe and support concurrent access.
type SessionRepository interface {
	// SaveSession inserts or replaces the record with the same ID.
	// UpdatedAt is set to the current time; CreatedAt is set if zero.
	SaveSession(ctx context.Context, record *SessionRecord) error

	// GetSession retrieves a session by ID.
	// Returns ErrNotFound if the session doesn't exist.
	GetSession(ctx context.Context, id string) (*SessionRecord, error)

	// ListSessions returns summaries of all stored sessions, most recently
	// updated first.
	ListSessions(ctx context.Context) ([]SessionSummary, error)

	// DeleteSession removes a session.
	// Returns ErrNotFound if the session doesn't exist.
	DeleteSession(ctx context.Context, id string) error

	// Close closes the storage backend and releases resources.
	Close() error
}
