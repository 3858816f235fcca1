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


package openai

import (
	"log/slog"
	"net/http"

	"github.com/poiesic/folio/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider implements ai.AIProvider using an OpenAI-compatible service.
// Extraction and chat share one client and one model.
type Provider struct {
	config    *ai.Config
	extractor *Extractor
	streamer  *ChatStreamer
	prompts   Prompts
	logger    *slog.Logger
}

// NewProvider creates a new AI provider. The config is validated and
// normalized before use, so a missing credential fails here with
// ai.ErrMissingCredential and no request is ever attempted.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := newClient(config)
	if err != nil {
		return nil, err
	}

	return newProviderWithModel(client, config), nil
}

// newProviderWithModel builds a provider around an existing llms.Model.
func newProviderWithModel(client llms.Model, config *ai.Config) *Provider {
	return &Provider{
		config:    config,
		extractor: newExtractor(client, config),
		streamer:  newChatStreamer(client, config),
		logger:    slog.Default().With("component", "openai-provider"),
	}
}

// Extractor returns the document extraction service.
func (p *Provider) Extractor() ai.Extractor {
	return p.extractor
}

// ChatStreamer returns the streaming chat service.
func (p *Provider) ChatStreamer() ai.ChatStreamer {
	return p.streamer
}

// Prompts returns the prompt builder.
func (p *Provider) Prompts() ai.PromptBuilder {
	return p.prompts
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying client doesn't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}

// newClient creates the langchaingo client for a validated config.
func newClient(config *ai.Config) (*openai.LLM, error) {
	key, err := config.ResolveAPIKey()
	if err != nil {
		return nil, err
	}

	opts := []openai.Option{
		openai.WithBaseURL(config.Host),
		openai.WithToken(key),
		openai.WithModel(config.Model),
	}
	if config.Timeout > 0 {
		opts = append(opts, openai.WithHTTPClient(&http.Client{Timeout: config.Timeout}))
	}
	return openai.New(opts...)
}
