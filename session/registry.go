package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/poiesic/folio/storage"
)

// Loader fetches a session that is not in memory.
// It returns ErrNotFound when the session does not exist anywhere.
type Loader func(ctx context.Context, id string) (*State, error)

// Registry keeps live sessions keyed by ID.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*State
	loader   Loader
	newID    func() string
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLoader sets the fallback used by Get for sessions not in memory.
func WithLoader(loader Loader) RegistryOption {
	return func(r *Registry) {
		r.loader = loader
	}
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(fn func() string) RegistryOption {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*State),
		newID:    uuid.NewString,
		logger:   slog.Default().With("component", "session-registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create starts a new empty session with a fresh ID.
func (r *Registry) Create() *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		id := r.newID()
		if _, taken := r.sessions[id]; taken {
			continue
		}
		s := New(id)
		r.sessions[id] = s
		r.logger.Debug("created session", "session", id)
		return s
	}
}

// CreateWithID starts a new empty session under a caller-chosen ID.
func (r *Registry) CreateWithID(id string) (*State, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, storage.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.sessions[id]; taken {
		return nil, ErrExists
	}
	s := New(id)
	r.sessions[id] = s
	return s, nil
}

// Add registers an existing State, replacing any session with the same ID.
func (r *Registry) Add(s *State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Get returns the session with the given ID, loading it through the loader
// when it is not in memory.
func (r *Registry) Get(ctx context.Context, id string) (*State, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	loader := r.loader
	r.mu.Unlock()
	if ok {
		return s, nil
	}
	if loader == nil {
		return nil, ErrNotFound
	}

	loaded, err := loader(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have loaded it meanwhile; keep the first.
	if existing, ok := r.sessions[id]; ok {
		return existing, nil
	}
	r.sessions[id] = loaded
	r.logger.Debug("loaded session", "session", id)
	return loaded, nil
}

// List returns the IDs of the sessions in memory, sorted.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of sessions in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Delete forgets a session. It reports whether the session was in memory.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// RepositoryLoader returns a Loader that restores sessions from repo.
func RepositoryLoader(repo storage.SessionRepository) Loader {
	return func(ctx context.Context, id string) (*State, error) {
		record, err := repo.GetSession(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return Restore(record)
	}
}
