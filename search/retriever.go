package search

import (
	"log/slog"
	"slices"
	"strings"
)

// Defaults used by NewRetriever.
const (
	DefaultTopK           = 2
	DefaultMinScore       = 4
	DefaultMatchPoints    = 2
	DefaultAuthorBoost    = 5
	DefaultTokenMinLength = 3
)

// Scored is a chunk with its retrieval score.
// Index is the chunk's position in the slice passed to the Retriever.
type Scored struct {
	Index int
	Text  string
	Score int
}

// Retriever ranks chunks by keyword overlap with a query.
// A Retriever is immutable after construction and safe for concurrent use.
type Retriever struct {
	topK           int
	minScore       int
	matchPoints    int
	authorBoost    int
	tokenMinLength int
	authorWords    []string
	monitor        RetrievalMonitor
	logger         *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithTopK sets the maximum number of chunks returned.
// Default is 2.
func WithTopK(k int) Option {
	return func(r *Retriever) error {
		if k < 1 {
			return ErrInvalidTopK
		}
		r.topK = k
		return nil
	}
}

// WithMinScore sets the score a chunk needs to be returned.
// Default is 4, meaning at least two distinct token hits.
func WithMinScore(score int) Option {
	return func(r *Retriever) error {
		if score < 0 {
			return ErrInvalidWeight
		}
		r.minScore = score
		return nil
	}
}

// WithMatchPoints sets the points added per query token found in a chunk.
// Default is 2.
func WithMatchPoints(points int) Option {
	return func(r *Retriever) error {
		if points < 0 {
			return ErrInvalidWeight
		}
		r.matchPoints = points
		return nil
	}
}

// WithAuthorBoost sets the bonus given to the first chunk for author questions.
// Default is 5.
func WithAuthorBoost(points int) Option {
	return func(r *Retriever) error {
		if points < 0 {
			return ErrInvalidWeight
		}
		r.authorBoost = points
		return nil
	}
}

// WithAuthorWords replaces the words that mark a question about the author.
func WithAuthorWords(words ...string) Option {
	return func(r *Retriever) error {
		r.authorWords = slices.Clone(words)
		return nil
	}
}

// WithTokenMinLength sets the length a query token must exceed to count.
// Default is 3.
func WithTokenMinLength(n int) Option {
	return func(r *Retriever) error {
		if n < 0 {
			return ErrInvalidTokenLength
		}
		r.tokenMinLength = n
		return nil
	}
}

// WithMonitor sets a monitor that observes every retrieval.
func WithMonitor(monitor RetrievalMonitor) Option {
	return func(r *Retriever) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		r.monitor = monitor
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(opts ...Option) (*Retriever, error) {
	r := &Retriever{
		topK:           DefaultTopK,
		minScore:       DefaultMinScore,
		matchPoints:    DefaultMatchPoints,
		authorBoost:    DefaultAuthorBoost,
		tokenMinLength: DefaultTokenMinLength,
		authorWords:    slices.Clone(DefaultAuthorWords),
		monitor:        &noopMonitor{},
		logger:         slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// TopK returns the maximum number of chunks a retrieval returns.
func (r *Retriever) TopK() int {
	return r.topK
}

// Retrieve returns up to topK chunks relevant to query, best first.
func (r *Retriever) Retrieve(query string, chunks []string) []string {
	scored := r.RetrieveScored(query, chunks)
	texts := make([]string, len(scored))
	for i, s := range scored {
		texts[i] = s.Text
	}
	return texts
}

// RetrieveScored is Retrieve with scores and chunk positions.
// An empty chunk set yields an empty result without scoring.
func (r *Retriever) RetrieveScored(query string, chunks []string) []Scored {
	if len(chunks) == 0 {
		return []Scored{}
	}

	lowerQuery := strings.ToLower(query)
	tokens := queryTokens(query, r.tokenMinLength)
	authorQuery := mentionsAny(lowerQuery, r.authorWords)
	r.monitor.Start(query, tokens, authorQuery)

	results := make([]Scored, len(chunks))
	for i, chunk := range chunks {
		lowerChunk := strings.ToLower(chunk)
		score := 0
		for _, token := range tokens {
			if strings.Contains(lowerChunk, token) {
				score += r.matchPoints
			}
		}
		if authorQuery && i == 0 {
			score += r.authorBoost
		}
		results[i] = Scored{Index: i, Text: chunk, Score: score}
		r.monitor.Scored(i, score)
	}

	// Sort by score descending; ties keep chunk order
	slices.SortStableFunc(results, func(a, b Scored) int {
		return b.Score - a.Score
	})
	results = slices.DeleteFunc(results, func(s Scored) bool {
		return s.Score < r.minScore
	})
	if len(results) > r.topK {
		results = results[:r.topK]
	}

	r.logger.Debug("retrieved chunks",
		"tokens", len(tokens),
		"chunks", len(chunks),
		"returned", len(results),
		"authorQuery", authorQuery)
	r.monitor.Finish(results)

	return results
}
