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


package mock

import (
	"strings"

	"github.com/poiesic/folio/ai"
)

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock extractor and streamer instances.
type MockProvider struct {
	extractor *MockExtractor
	streamer  *MockStreamer
	prompts   MockPrompts
	closed    bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockExtractor()/GetMockStreamer() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		extractor: NewMockExtractor(),
		streamer:  NewMockStreamer(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(extractor *MockExtractor, streamer *MockStreamer) ai.AIProvider {
	return &MockProvider{
		extractor: extractor,
		streamer:  streamer,
	}
}

// Extractor returns the mock extractor.
func (p *MockProvider) Extractor() ai.Extractor {
	return p.extractor
}

// ChatStreamer returns the mock streamer.
func (p *MockProvider) ChatStreamer() ai.ChatStreamer {
	return p.streamer
}

// Prompts returns a compact prompt builder suitable for assertions.
func (p *MockProvider) Prompts() ai.PromptBuilder {
	return p.prompts
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockExtractor returns the underlying mock extractor for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockExtractor() *MockExtractor {
	return p.extractor
}

// GetMockStreamer returns the underlying mock streamer for test assertions.
func (p *MockProvider) GetMockStreamer() *MockStreamer {
	return p.streamer
}

// MockPrompts renders short, predictable prompts.
type MockPrompts struct{}

// SystemInstruction lists the title and axiom terms.
func (MockPrompts) SystemInstruction(cm ai.ContextMap) string {
	terms := make([]string, 0, len(cm.Axioms))
	for _, a := range cm.Axioms {
		terms = append(terms, a.Term)
	}
	return "system title=" + cm.Metadata.Title + " axioms=" + strings.Join(terms, ",")
}

// AugmentedPrompt prefixes the question with the number of chunks.
func (MockPrompts) AugmentedPrompt(question string, chunks []string) string {
	if len(chunks) == 0 {
		return "scan: " + question
	}
	return "context[" + strings.Join(chunks, "|") + "]: " + question
}
