package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/chunker"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/document"
	"github.com/poiesic/folio/events"
	"github.com/poiesic/folio/gate"
	"github.com/poiesic/folio/search"
	"github.com/poiesic/folio/session"
	"github.com/poiesic/folio/storage"
)

// FailedTurnPolicy decides what happens to the user turn of a chat exchange
// whose stream failed.
type FailedTurnPolicy int

const (
	// KeepFailed leaves the user turn in history, marked failed. It is kept
	// out of later prompts and the question can be asked again.
	KeepFailed FailedTurnPolicy = iota
	// RollbackFailed removes the user turn from history.
	RollbackFailed
)

// String returns the configuration name of the policy.
func (p FailedTurnPolicy) String() string {
	switch p {
	case KeepFailed:
		return "keep"
	case RollbackFailed:
		return "rollback"
	}
	return fmt.Sprintf("FailedTurnPolicy(%d)", int(p))
}

// ParseFailedTurnPolicy maps "keep" or "rollback" to a policy.
func ParseFailedTurnPolicy(name string) (FailedTurnPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "keep":
		return KeepFailed, nil
	case "rollback":
		return RollbackFailed, nil
	}
	return KeepFailed, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Service orchestrates extraction and chat over sessions.
type Service struct {
	extractor ai.Extractor
	streamer  ai.ChatStreamer
	prompts   ai.PromptBuilder
	gate      *gate.Gate
	registry  *session.Registry

	retriever    *search.Retriever
	chunker      *chunker.Chunker
	repository   storage.SessionRepository
	publisher    events.Publisher
	pool         *ants.Pool
	maxHistory   int
	policy       FailedTurnPolicy
	textFallback bool
	logger       *slog.Logger

	pending sync.WaitGroup
	saves   *saveTracker
}

// Option configures a Service.
type Option func(*Service) error

// WithRetriever sets the chunk retriever. Default is search.NewRetriever().
func WithRetriever(r *search.Retriever) Option {
	return func(s *Service) error {
		if r != nil {
			s.retriever = r
		}
		return nil
	}
}

// WithChunker sets the chunker applied to extracted full text.
// Default is chunker.Default().
func WithChunker(c *chunker.Chunker) Option {
	return func(s *Service) error {
		if c != nil {
			s.chunker = c
		}
		return nil
	}
}

// WithRepository persists session snapshots after every commit.
// Default is no persistence.
func WithRepository(repo storage.SessionRepository) Option {
	return func(s *Service) error {
		s.repository = repo
		return nil
	}
}

// WithPublisher publishes session events. Default is events.Noop.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) error {
		if p == nil {
			p = events.Noop{}
		}
		s.publisher = p
		return nil
	}
}

// WithPoolSize sets the worker pool size for background persistence.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Service) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// WithMaxHistoryTurns caps the history turns sent with each question.
// Stored history is never truncated. Default is 0, meaning unlimited.
func WithMaxHistoryTurns(n int) Option {
	return func(s *Service) error {
		if n < 0 {
			return fmt.Errorf("max history turns must not be negative, got %d", n)
		}
		s.maxHistory = n
		return nil
	}
}

// WithFailedTurnPolicy sets what happens to the user turn of a failed exchange.
// Default is KeepFailed.
func WithFailedTurnPolicy(p FailedTurnPolicy) Option {
	return func(s *Service) error {
		if p != KeepFailed && p != RollbackFailed {
			return fmt.Errorf("%w: %s", ErrUnknownPolicy, p)
		}
		s.policy = p
		return nil
	}
}

// WithTextFallback chunks the local PDF text layer when the model returns no
// full text. Default is off.
func WithTextFallback(enabled bool) Option {
	return func(s *Service) error {
		s.textFallback = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a conversation service. The gate must be shared by every
// service talking to the same provider.
func NewService(provider ai.AIProvider, g *gate.Gate, registry *session.Registry, opts ...Option) (*Service, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if g == nil {
		return nil, ErrGateRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	retriever, err := search.NewRetriever()
	if err != nil {
		pool.Release()
		return nil, err
	}

	s := &Service{
		extractor: provider.Extractor(),
		streamer:  provider.ChatStreamer(),
		prompts:   provider.Prompts(),
		gate:      g,
		registry:  registry,
		retriever: retriever,
		chunker:   chunker.Default(),
		publisher: events.Noop{},
		pool:      pool,
		policy:    KeepFailed,
		logger:    slog.Default(),
		saves:     newSaveTracker(),
	}

	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.pool.Release()
			return nil, optErr
		}
	}
	s.logger = s.logger.With("component", "conversation")
	return s, nil
}

// CreateSession starts an empty session.
func (s *Service) CreateSession() *session.State {
	return s.registry.Create()
}

// Session returns the session with the given ID, loading it from storage if needed.
func (s *Service) Session(ctx context.Context, sessionID string) (*session.State, error) {
	return s.registry.Get(ctx, sessionID)
}

// ExtractAxioms ingests a document into a session: one extraction call, then
// history is cleared and metadata, axioms, snippets, full text and chunks are
// replaced. If the call fails nothing in the session changes.
func (s *Service) ExtractAxioms(ctx context.Context, sessionID string, doc *document.Document, lang core.Language) ([]core.Axiom, error) {
	if doc == nil {
		return nil, ErrDocumentRequired
	}
	if len(doc.Bytes) == 0 {
		return nil, core.ErrEmptyDocument
	}
	if lang == "" {
		lang = core.LanguageEnglish
	}
	if err := core.ValidateLanguage(lang); err != nil {
		return nil, err
	}

	st, err := s.registry.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	unlock, err := st.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	st.BeginDocument(doc.Name, doc.Bytes, lang)
	req := ai.ExtractRequest{
		Document: st.Document(),
		MIMEType: doc.MIMEType,
		Language: lang,
		SystemPrompt: s.prompts.SystemInstruction(ai.ContextMap{
			Metadata: st.Metadata(),
			Axioms:   st.Axioms(),
			Language: lang,
		}),
	}

	logger := s.logger.With("session", sessionID, "document", doc.Name)
	if _, err := s.gate.Wait(ctx); err != nil {
		st.ReleaseDocument()
		return nil, err
	}

	start := time.Now()
	ex, report, err := s.extractor.Extract(ctx, req)
	if err != nil {
		st.ReleaseDocument()
		logger.Error("extraction failed", "err", err)
		return nil, err
	}
	if !report.Complete() {
		logger.Warn("extraction response missing fields", "defaulted", report.Defaulted)
	}

	if ex.FullText == "" && s.textFallback && doc.IsPDF() {
		text, err := doc.PlainText()
		if err != nil {
			logger.Warn("text layer fallback failed", "err", err)
		} else {
			ex.FullText = text
		}
	}

	chunks := s.chunker.Split(ex.FullText)
	st.ResetForNewDocument(doc.ID, ex, chunks)
	logger.Info("document ingested",
		"axioms", len(ex.Axioms),
		"snippets", len(ex.Snippets),
		"chunks", len(chunks),
		"duration", time.Since(start))

	s.persist(st, events.Event{
		Type:       events.TypeIngested,
		SessionID:  sessionID,
		DocumentID: doc.ID.String(),
		Data: map[string]any{
			"name":      doc.Name,
			"title":     ex.Metadata.Title,
			"axioms":    len(ex.Axioms),
			"snippets":  len(ex.Snippets),
			"chunks":    len(chunks),
			"defaulted": report.Defaulted,
		},
	})
	return st.Axioms(), nil
}

// ChatStream answers one question. The retrieved chunks are embedded in the
// user turn, the model sees the system instruction followed by the history
// window, and every non-empty fragment goes to onChunk as it arrives. The
// assistant turn is appended only when the stream completes; on failure the
// user turn is kept or rolled back according to the failed-turn policy.
// An empty lang falls back to the session's language.
func (s *Service) ChatStream(ctx context.Context, sessionID, prompt string, lang core.Language, onChunk ai.FragmentFunc) error {
	if strings.TrimSpace(prompt) == "" {
		return core.ErrEmptyContent
	}

	st, err := s.registry.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if lang == "" {
		lang = st.Language()
	}
	if err := core.ValidateLanguage(lang); err != nil {
		return err
	}

	unlock, err := st.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	chunks := s.retriever.Retrieve(prompt, st.Chunks())
	augmented := s.prompts.AugmentedPrompt(prompt, chunks)
	system := s.prompts.SystemInstruction(ai.ContextMap{
		Metadata: st.Metadata(),
		Axioms:   st.Axioms(),
		Language: lang,
	})

	logger := s.logger.With("session", sessionID)
	if _, err := s.gate.Wait(ctx); err != nil {
		return err
	}

	if _, err := st.AppendTurn(core.RoleUser, augmented); err != nil {
		return err
	}
	messages := append([]core.Turn{{Role: core.RoleSystem, Content: system}}, st.Window(s.maxHistory)...)

	start := time.Now()
	response, err := s.streamer.Stream(ctx, messages, onChunk)
	if err != nil {
		logger.Error("chat stream failed", "err", err, "partial_chars", len(response))
		if policyErr := s.applyFailedTurnPolicy(st); policyErr != nil {
			logger.Warn("failed-turn policy not applied", "err", policyErr)
		}
		s.persist(st, s.turnEvent(st, "failed", len(chunks), 0))
		return err
	}

	if _, err := st.AppendTurn(core.RoleAssistant, response); err != nil {
		return err
	}
	logger.Debug("chat turn complete",
		"chunks", len(chunks),
		"chars", len(response),
		"duration", time.Since(start))

	s.persist(st, s.turnEvent(st, "complete", len(chunks), len(response)))
	return nil
}

func (s *Service) applyFailedTurnPolicy(st *session.State) error {
	if s.policy == RollbackFailed {
		return st.RollbackLastTurn()
	}
	return st.MarkLastFailed()
}

func (s *Service) turnEvent(st *session.State, status string, chunks, chars int) events.Event {
	return events.Event{
		Type:       events.TypeTurn,
		SessionID:  st.ID(),
		DocumentID: st.DocumentID().String(),
		Data: map[string]any{
			"status": status,
			"chunks": chunks,
			"chars":  chars,
			"turns":  len(st.History()),
		},
	}
}

// Snippets returns the quotes extracted for a session.
func (s *Service) Snippets(ctx context.Context, sessionID string) ([]string, error) {
	st, err := s.registry.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return st.Snippets(), nil
}

// DeleteSession removes a session from memory and storage.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	s.Flush()
	inMemory := s.registry.Delete(sessionID)
	if s.repository != nil {
		err := s.repository.DeleteSession(ctx, sessionID)
		switch {
		case err == nil:
		case errorsIsNotFound(err) && inMemory:
		case errorsIsNotFound(err):
			return session.ErrNotFound
		default:
			return err
		}
	} else if !inMemory {
		return session.ErrNotFound
	}
	s.saves.forget(sessionID)
	s.publish(ctx, events.Event{Type: events.TypeDeleted, SessionID: sessionID, At: time.Now().UTC()})
	return nil
}

// DiscardSession forgets an in-memory session without touching storage or
// publishing anything. It is meant for sessions whose first ingestion failed.
func (s *Service) DiscardSession(sessionID string) {
	s.registry.Delete(sessionID)
}

// Flush waits until every background save and publish has finished.
func (s *Service) Flush() {
	s.pending.Wait()
}

// Release flushes pending work and frees the worker pool.
// The service should not be used after calling Release.
func (s *Service) Release() {
	s.Flush()
	if s.pool != nil {
		s.pool.Release()
	}
}
