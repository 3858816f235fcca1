// Package session holds per-document conversation state.
//
// A State belongs to one ingested document and one logical user. Stored
// history is append-only; the prompt sees a bounded Window of it. A Registry
// keys States by session ID and can rehydrate them from storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/storage"
)

var (
	// ErrNotFound is returned for an unknown session ID.
	ErrNotFound = errors.New("session not found")

	// ErrExists is returned when creating a session whose ID is taken.
	ErrExists = errors.New("session already exists")

	// ErrNoFailedTurn is returned when there is no trailing user turn to mark or roll back.
	ErrNoFailedTurn = errors.New("no trailing user turn")
)

// State is the mutable state of one session. All methods are safe for
// concurrent use; Lock serializes whole exchanges on top of that.
type State struct {
	id string

	mu           sync.RWMutex
	documentID   core.ID
	documentName string
	language     core.Language
	document     []byte
	pending      pendingDocument
	history      []core.Turn
	chunks       []string
	fullText     string
	axioms       []core.Axiom
	metadata     core.Metadata
	snippets     []string
	createdAt    time.Time
	updatedAt    time.Time
	ingestedAt   time.Time

	exchange chan struct{}
	now      func() time.Time
}

// pendingDocument holds what BeginDocument received until the extraction commits.
type pendingDocument struct {
	name     string
	language core.Language
}

// New creates an empty session with the given ID.
func New(id string) *State {
	now := time.Now().UTC()
	return &State{
		id:        id,
		language:  core.LanguageEnglish,
		createdAt: now,
		updatedAt: now,
		exchange:  make(chan struct{}, 1),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ID returns the session identifier.
func (s *State) ID() string {
	return s.id
}

// Lock reserves the session for one exchange (an extraction or a chat turn)
// and returns the function that releases it. It fails only if ctx ends first.
func (s *State) Lock(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case s.exchange <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s.exchange }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// BeginDocument stores the raw document for the duration of an extraction.
// Name and language stay pending; nothing visible changes until
// ResetForNewDocument commits the result.
func (s *State) BeginDocument(name string, data []byte, lang core.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = data
	s.pending = pendingDocument{name: name, language: lang}
}

// Document returns the raw document held during an extraction, or nil.
func (s *State) Document() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document
}

// ReleaseDocument drops the raw document bytes and the pending name and
// language after a failed extraction.
func (s *State) ReleaseDocument() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = nil
	s.pending = pendingDocument{}
}

// ResetForNewDocument commits an extraction: history is cleared, the raw
// document is released, and metadata, axioms, snippets, full text and chunks
// are replaced wholesale.
func (s *State) ResetForNewDocument(docID core.ID, ex *core.Extraction, chunks []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	s.document = nil
	if s.pending.name != "" {
		s.documentName = s.pending.name
	}
	if s.pending.language != "" {
		s.language = s.pending.language
	}
	s.pending = pendingDocument{}
	s.documentID = docID
	s.chunks = slices.Clone(chunks)
	s.fullText = ex.FullText
	s.axioms = slices.Clone(ex.Axioms)
	s.metadata = ex.Metadata
	s.snippets = slices.Clone(ex.Snippets)
	s.ingestedAt = s.now()
	s.updatedAt = s.ingestedAt
}

// AppendTurn validates and appends one turn to history.
func (s *State) AppendTurn(role core.Role, content string) (core.Turn, error) {
	turn := core.Turn{Role: role, Content: content, Status: core.TurnComplete}
	if err := core.ValidateTurn(&turn); err != nil {
		return core.Turn{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	turn.At = s.now()
	s.history = append(s.history, turn)
	s.updatedAt = turn.At
	return turn, nil
}

// MarkLastFailed flags the trailing user turn as failed. A failed turn stays
// in history but is left out of the prompt window.
func (s *State) MarkLastFailed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.history)
	if n == 0 || s.history[n-1].Role != core.RoleUser {
		return ErrNoFailedTurn
	}
	s.history[n-1].Status = core.TurnFailed
	s.updatedAt = s.now()
	return nil
}

// RollbackLastTurn removes the trailing user turn after a failed exchange.
func (s *State) RollbackLastTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.history)
	if n == 0 || s.history[n-1].Role != core.RoleUser {
		return ErrNoFailedTurn
	}
	s.history = s.history[:n-1]
	s.updatedAt = s.now()
	return nil
}

// History returns a copy of the full stored history.
func (s *State) History() []core.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

// Window returns the turns sent to the model: failed turns are skipped and,
// when maxTurns > 0, only the last maxTurns remaining turns are kept. A window
// never opens on an assistant turn. maxTurns <= 0 means unlimited.
func (s *State) Window(maxTurns int) []core.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := make([]core.Turn, 0, len(s.history))
	for _, t := range s.history {
		if t.Status == core.TurnFailed {
			continue
		}
		window = append(window, t)
	}
	if maxTurns > 0 && len(window) > maxTurns {
		window = window[len(window)-maxTurns:]
	}
	for len(window) > 0 && window[0].Role == core.RoleAssistant {
		window = window[1:]
	}
	return window
}

// Snippets returns the quotes extracted at ingestion.
func (s *State) Snippets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snippets)
}

// Axioms returns the axioms extracted at ingestion.
func (s *State) Axioms() []core.Axiom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.axioms)
}

// Metadata returns the manuscript metadata.
func (s *State) Metadata() core.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata
}

// Chunks returns the retrieval chunks of the full text.
func (s *State) Chunks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.chunks)
}

// FullText returns the extracted full text.
func (s *State) FullText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fullText
}

// Language returns the interface language of the last ingestion.
func (s *State) Language() core.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// DocumentID returns the fingerprint of the ingested document, or 0.
func (s *State) DocumentID() core.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentID
}

// DocumentName returns the name of the ingested document.
func (s *State) DocumentName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentName
}

// Ingested reports whether an extraction has been committed.
func (s *State) Ingested() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.ingestedAt.IsZero()
}

// Snapshot returns the persistable form of the session.
func (s *State) Snapshot() *storage.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &storage.SessionRecord{
		ID:           s.id,
		DocumentID:   s.documentID,
		DocumentName: s.documentName,
		Language:     s.language,
		History:      slices.Clone(s.history),
		Chunks:       slices.Clone(s.chunks),
		FullText:     s.fullText,
		Axioms:       slices.Clone(s.axioms),
		Metadata:     s.metadata,
		Snippets:     slices.Clone(s.snippets),
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
		IngestedAt:   s.ingestedAt,
	}
}

// Restore rebuilds a session from a stored record.
func Restore(record *storage.SessionRecord) (*State, error) {
	if record == nil || record.ID == "" {
		return nil, fmt.Errorf("restore session: %w", storage.ErrInvalidID)
	}
	for i, t := range record.History {
		if err := core.ValidateTurn(&t); err != nil {
			return nil, fmt.Errorf("restore session %s: turn %d: %w", record.ID, i, err)
		}
	}

	s := New(record.ID)
	s.documentID = record.DocumentID
	s.documentName = record.DocumentName
	if record.Language != "" {
		s.language = record.Language
	}
	s.history = slices.Clone(record.History)
	s.chunks = slices.Clone(record.Chunks)
	s.fullText = record.FullText
	s.axioms = slices.Clone(record.Axioms)
	s.metadata = record.Metadata
	s.snippets = slices.Clone(record.Snippets)
	if !record.CreatedAt.IsZero() {
		s.createdAt = record.CreatedAt
	}
	if !record.UpdatedAt.IsZero() {
		s.updatedAt = record.UpdatedAt
	}
	s.ingestedAt = record.IngestedAt
	return s, nil
}
