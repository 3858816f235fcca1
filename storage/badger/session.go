package badger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/folio/storage"
)

// SessionRepository implements storage.SessionRepository for BadgerDB.
type SessionRepository struct {
	backend *Backend
	owned   bool
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a repository over an open backend.
// Closing the repository leaves the backend open.
//
// Returns storage.SessionRepository interface to enforce abstraction.
func NewSessionRepository(backend *Backend) (storage.SessionRepository, error) {
	return newSessionRepository(backend, false)
}

// OpenSessionRepository opens a backend at path and returns a repository that
// owns it; closing the repository closes the database.
func OpenSessionRepository(path string, inMemory bool) (storage.SessionRepository, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	return newSessionRepository(backend, true)
}

func newSessionRepository(backend *Backend, owned bool) (*SessionRepository, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &SessionRepository{backend: backend, owned: owned}, nil
}

// Close closes the backend if the repository owns it.
func (r *SessionRepository) Close() error {
	if r.owned {
		return r.backend.Close()
	}
	return nil
}

// SaveSession inserts or replaces a session record.
func (r *SessionRepository) SaveSession(ctx context.Context, record *storage.SessionRecord) error {
	if record == nil || strings.TrimSpace(record.ID) == "" {
		return storage.ErrInvalidID
	}

	// Timestamps come from the session; only fill in what the caller left unset.
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}

	value, err := storage.MarshalSessionRecord(record)
	if err != nil {
		return err
	}

	return r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		return tx.Set(makeSessionKey(record.ID), value)
	})
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, storage.ErrInvalidID
	}

	var result *storage.SessionRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readSession(tx, makeSessionKey(id))
		return err
	}, false)
	return result, err
}

// ListSessions returns summaries of all sessions, most recently updated first.
func (r *SessionRepository) ListSessions(ctx context.Context) ([]storage.SessionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var summaries []storage.SessionSummary
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = sessionScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record *storage.SessionRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalSessionRecord(val)
				return err
			})
			if err != nil {
				r.backend.logger.Warn("skipping unreadable session",
					"id", sessionIDFromKey(iter.Item().Key()), "err", err)
				continue
			}
			summaries = append(summaries, record.Summary())
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(summaries, func(a, b storage.SessionSummary) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return summaries, nil
}

// DeleteSession removes a session by ID.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return storage.ErrInvalidID
	}
	return r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		key := makeSessionKey(id)
		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return tx.Delete(key)
	})
}

// readSession reads a session record within a transaction.
func readSession(tx *badger.Txn, key []byte) (*storage.SessionRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var record *storage.SessionRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalSessionRecord(val)
		return err
	})
	return record, err
}
