// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package folio is a retrieval-augmented reading companion for a single
// manuscript at a time.
//
// A Library wires the pieces together: BadgerDB session storage, the model
// provider, the process-wide rate gate, the chunker and retriever, event
// publication and the conversation service that drives extraction and chat.
package folio

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/ai/openai"
	"github.com/poiesic/folio/chunker"
	"github.com/poiesic/folio/config"
	"github.com/poiesic/folio/conversation"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/document"
	"github.com/poiesic/folio/events"
	"github.com/poiesic/folio/gate"
	"github.com/poiesic/folio/search"
	"github.com/poiesic/folio/session"
	"github.com/poiesic/folio/storage"
	"github.com/poiesic/folio/storage/badger"
)

// Library owns every long-lived component of a folio process.
type Library struct {
	cfg       *config.AppConfig
	backend   *badger.Backend
	sessions  storage.SessionRepository
	provider  ai.AIProvider
	gate      *gate.Gate
	registry  *session.Registry
	publisher events.Publisher
	service   *conversation.Service
	retriever *search.Retriever
	chunker   *chunker.Chunker
	logger    *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	provider  ai.AIProvider
	publisher events.Publisher
	logger    *slog.Logger
}

// WithProvider replaces the OpenAI-compatible provider built from configuration.
func WithProvider(p ai.AIProvider) LibraryOption {
	return func(o *libraryOptions) {
		o.provider = p
	}
}

// WithPublisher replaces the publisher built from the events section.
func WithPublisher(p events.Publisher) LibraryOption {
	return func(o *libraryOptions) {
		o.publisher = p
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) LibraryOption {
	return func(o *libraryOptions) {
		o.logger = logger
	}
}

// Open builds a Library from configuration. The provider is validated here,
// so a missing credential fails before any request.
func Open(cfg *config.AppConfig, opts ...LibraryOption) (*Library, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &libraryOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	policy, err := conversation.ParseFailedTurnPolicy(cfg.Session.FailedTurnPolicy)
	if err != nil {
		return nil, err
	}
	chunk, err := chunker.New(cfg.ChunkerOptions()...)
	if err != nil {
		return nil, err
	}
	retriever, err := search.NewRetriever(append(cfg.RetrieverOptions(), search.WithLogger(logger))...)
	if err != nil {
		return nil, err
	}
	g, err := gate.New(cfg.MinGap(), gate.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(cfg.AIConfig())
		if err != nil {
			return nil, err
		}
	}

	backend, err := badger.OpenBackend(cfg.Storage.Path, cfg.Storage.InMemory)
	if err != nil {
		provider.Close()
		return nil, err
	}

	sessions, err := badger.NewSessionRepository(backend)
	if err != nil {
		backend.Close()
		provider.Close()
		return nil, err
	}

	publisher := options.publisher
	if publisher == nil {
		publisher, err = newPublisher(cfg, logger)
		if err != nil {
			sessions.Close()
			backend.Close()
			provider.Close()
			return nil, err
		}
	}

	registry := session.NewRegistry(
		session.WithLoader(session.RepositoryLoader(sessions)),
		session.WithLogger(logger),
	)

	service, err := conversation.NewService(provider, g, registry,
		conversation.WithRetriever(retriever),
		conversation.WithChunker(chunk),
		conversation.WithRepository(sessions),
		conversation.WithPublisher(publisher),
		conversation.WithPoolSize(cfg.Session.Workers),
		conversation.WithMaxHistoryTurns(cfg.Session.MaxHistoryTurns),
		conversation.WithFailedTurnPolicy(policy),
		conversation.WithTextFallback(cfg.Session.TextFallback),
		conversation.WithLogger(logger),
	)
	if err != nil {
		publisher.Close()
		sessions.Close()
		backend.Close()
		provider.Close()
		return nil, err
	}

	return &Library{
		cfg:       cfg,
		backend:   backend,
		sessions:  sessions,
		provider:  provider,
		gate:      g,
		registry:  registry,
		publisher: publisher,
		service:   service,
		retriever: retriever,
		chunker:   chunk,
		logger:    logger,
	}, nil
}

func newPublisher(cfg *config.AppConfig, logger *slog.Logger) (events.Publisher, error) {
	if cfg.Events.NATSURL == "" {
		return events.Noop{}, nil
	}
	return events.NewNATSPublisher(cfg.Events.NATSURL, cfg.NATSToken(), cfg.Events.SubjectPrefix, logger)
}

// Close flushes pending saves and releases every component.
func (l *Library) Close() error {
	l.service.Release()
	l.publisher.Close()

	var errs []error
	if err := l.provider.Close(); err != nil {
		l.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := l.sessions.Close(); err != nil {
		l.logger.Error("error closing session repository", "err", err)
		errs = append(errs, err)
	}
	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Config returns the configuration the library was opened with.
func (l *Library) Config() *config.AppConfig {
	return l.cfg
}

// Conversation returns the conversation service.
func (l *Library) Conversation() *conversation.Service {
	return l.service
}

// Sessions returns the session repository.
func (l *Library) Sessions() storage.SessionRepository {
	return l.sessions
}

// Retriever returns the configured retriever.
func (l *Library) Retriever() *search.Retriever {
	return l.retriever
}

// Chunker returns the configured chunker.
func (l *Library) Chunker() *chunker.Chunker {
	return l.chunker
}

// Ingest starts a new session for doc and runs the extraction. A session
// whose extraction failed is discarded.
func (l *Library) Ingest(ctx context.Context, doc *document.Document, lang core.Language) (*session.State, error) {
	st := l.service.CreateSession()
	if _, err := l.service.ExtractAxioms(ctx, st.ID(), doc, lang); err != nil {
		l.service.DiscardSession(st.ID())
		return nil, err
	}
	return st, nil
}

// Session returns a session by ID, loading it from storage when needed.
func (l *Library) Session(ctx context.Context, id string) (*session.State, error) {
	return l.service.Session(ctx, id)
}

// ListSessions returns the stored sessions, most recently updated first.
func (l *Library) ListSessions(ctx context.Context) ([]storage.SessionSummary, error) {
	l.service.Flush()
	return l.sessions.ListSessions(ctx)
}
