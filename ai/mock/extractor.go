package mock

import (
	"context"
	"sync"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
)

// MockExtractor is a test double for ai.Extractor.
// It allows custom behavior injection via function fields.
type MockExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, Result (or a small canned extraction) is returned.
	ExtractFunc func(ctx context.Context, req ai.ExtractRequest) (*core.Extraction, core.DecodeReport, error)

	// Result is returned by the default behavior when non-nil.
	Result *core.Extraction

	mu       sync.Mutex
	requests []ai.ExtractRequest
}

// NewMockExtractor creates a mock extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// Extract records the request and returns the configured result.
func (m *MockExtractor) Extract(ctx context.Context, req ai.ExtractRequest) (*core.Extraction, core.DecodeReport, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.ExtractFunc
	result := m.Result
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, core.DecodeReport{}, err
	}
	if result == nil {
		result = DefaultExtraction()
	}
	copied := *result
	return &copied, core.DecodeReport{}, nil
}

// CallCount returns the number of times Extract was called.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or the zero value.
func (m *MockExtractor) LastRequest() ai.ExtractRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return ai.ExtractRequest{}
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears the call history and custom functions.
func (m *MockExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.ExtractFunc = nil
	m.Result = nil
}

// DefaultExtraction is the canned result of an unconfigured MockExtractor.
func DefaultExtraction() *core.Extraction {
	return &core.Extraction{
		Axioms: []core.Axiom{
			{Term: "Mock", Definition: "A stand-in for a real thing", Significance: "Used in tests"},
		},
		Snippets: []string{"A mock is only as good as its assertions."},
		Metadata: core.Metadata{Title: "Mock Manuscript", Author: "Test Author"},
		FullText: "",
	}
}
