package ai

import (
	"context"
	"errors"

	"github.com/poiesic/folio/core"
)

// ErrTransport wraps failures talking to the model provider.
// Callers see it through errors.Is; the provider's own error stays wrapped.
var ErrTransport = errors.New("model provider request failed")

// Extractor performs the one-shot ingestion call for a document.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// Extract sends the document to the model and decodes the structured
	// result. A response that cannot be decoded yields an error wrapping
	// core.ErrMalformedExtraction; a transport failure yields an error
	// wrapping ErrTransport. Absent fields are reported, not treated as errors.
	Extract(ctx context.Context, req ExtractRequest) (*core.Extraction, core.DecodeReport, error)
}

// FragmentFunc receives each non-empty text fragment of a streamed response
// in order. Returning an error aborts the stream.
type FragmentFunc func(fragment string) error

// ChatStreamer performs streaming chat calls.
// Implementations must be thread-safe for concurrent use.
type ChatStreamer interface {
	// Stream sends the messages and invokes onFragment for every non-empty
	// fragment as it arrives. It returns the full concatenated response once
	// the stream ends. On error the partial response is returned alongside.
	Stream(ctx context.Context, messages []core.Turn, onFragment FragmentFunc) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Extractor returns the document extraction service.
	Extractor() Extractor

	// ChatStreamer returns the streaming chat service.
	ChatStreamer() ChatStreamer

	// Prompts returns the prompt builder matching this provider's models.
	Prompts() PromptBuilder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

// PromptBuilder renders the natural-language instructions sent to the model.
// Prompt wording belongs to the provider; callers only supply content.
type PromptBuilder interface {
	// SystemInstruction renders the system message for the given context map.
	SystemInstruction(cm ContextMap) string

	// AugmentedPrompt wraps a user question with the retrieved chunks.
	// With no chunks the model is asked to search the whole manuscript.
	AugmentedPrompt(question string, chunks []string) string
}
