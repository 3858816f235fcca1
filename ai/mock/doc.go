// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Extractor, ai.ChatStreamer,
// ai.PromptBuilder and ai.AIProvider for use in unit tests. The mocks allow
// tests to run without a network and enable deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	extraction, _, err := provider.Extractor().Extract(ctx, ai.ExtractRequest{Document: doc})
//
//	// Custom behavior injection
//	streamer := mock.NewMockStreamer()
//	streamer.Fragments = []string{"Hello", " world"}
//
//	// Check call counts
//	count := streamer.CallCount()
//
// # Default Behavior
//
//   - MockExtractor: returns DefaultExtraction or the configured Result
//   - MockStreamer: streams Fragments, or echoes the last message word by word
//   - MockPrompts: short predictable strings that name their inputs
package mock
