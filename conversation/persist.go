package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/poiesic/folio/events"
	"github.com/poiesic/folio/session"
	"github.com/poiesic/folio/storage"
)

const (
	saveAttempts  = 3
	saveBaseDelay = 100 * time.Millisecond
	taskTimeout   = 30 * time.Second
)

// saveTracker orders background saves of the same session: a snapshot never
// overwrites a newer one that was saved first.
type saveTracker struct {
	mu       sync.Mutex
	next     uint64
	sessions map[string]*sessionSaves
}

type sessionSaves struct {
	mu    sync.Mutex
	saved uint64
}

func newSaveTracker() *saveTracker {
	return &saveTracker{sessions: make(map[string]*sessionSaves)}
}

// ticket returns a version for a snapshot taken now, and the per-session lock.
func (t *saveTracker) ticket(id string) (uint64, *sessionSaves) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	ss, ok := t.sessions[id]
	if !ok {
		ss = &sessionSaves{}
		t.sessions[id] = ss
	}
	return t.next, ss
}

func (t *saveTracker) forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
}

// persist snapshots the session now and saves it and publishes the event on
// the worker pool. Errors are logged.
func (s *Service) persist(st *session.State, event events.Event) {
	record := st.Snapshot()
	version, ss := s.saves.ticket(record.ID)
	if event.At.IsZero() {
		event.At = record.UpdatedAt
	}

	task := func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		defer cancel()

		if s.repository != nil {
			s.save(ctx, record, version, ss)
		}
		s.publish(ctx, event)
	}

	s.pending.Add(1)
	if err := s.pool.Submit(task); err != nil {
		s.logger.Warn("worker pool rejected task, running inline", "err", err)
		task()
	}
}

func (s *Service) save(ctx context.Context, record *storage.SessionRecord, version uint64, ss *sessionSaves) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if version < ss.saved {
		s.logger.Debug("skipping stale snapshot", "session", record.ID)
		return
	}

	err := RetryWithBackoff(ctx, func() error {
		return s.repository.SaveSession(ctx, record)
	}, saveAttempts, saveBaseDelay)
	if err != nil {
		s.logger.Error("error saving session", "session", record.ID, "err", err)
		return
	}
	ss.saved = version
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("error publishing event", "type", event.Type, "session", event.SessionID, "err", err)
	}
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound) || errors.Is(err, session.ErrNotFound)
}
