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


// Package ai provides abstractions for the language-model services used by folio.
//
// The package defines the contracts conversation code depends on, so the
// orchestration can be tested without a network and the provider can be
// swapped:
//
//   - Extractor: one-shot ingestion of a document into axioms, snippets,
//     metadata and full text
//   - ChatStreamer: streaming chat over a message history
//   - PromptBuilder: the provider-specific wording of system instructions and
//     retrieval-augmented questions
//   - AIProvider: aggregates the above with a single lifecycle
//
// # Implementation Packages
//
//   - ai/openai: langchaingo client for OpenAI-compatible endpoints (Groq by default)
//   - ai/mock: test doubles with injectable behavior and call counters
//
// # Constructor Return Type Pattern
//
// Production constructors (openai.NewProvider) return interface types.
// Mock constructors (mock.NewMockExtractor, mock.NewMockStreamer) return
// concrete types so tests can inject behavior and inspect call counts.
// mock.NewMockProvider returns the interface and exposes GetMockExtractor and
// GetMockStreamer for assertions.
//
// # Credentials
//
// Config.Validate resolves the API key (by default from GROQ_API_KEY) and
// fails with ErrMissingCredential before any request is attempted.
//
// # Usage Example
//
//	provider, err := openai.NewProvider(ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	system := provider.Prompts().SystemInstruction(ai.ContextMap{})
//	extraction, report, err := provider.Extractor().Extract(ctx, ai.ExtractRequest{
//	    Document:     pdfBytes,
//	    SystemPrompt: system,
//	})
package ai
