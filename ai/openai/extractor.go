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
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
	"github.com/tmc/langchaingo/llms"
)

// Extractor implements ai.Extractor using an OpenAI-compatible chat API that
// accepts documents as image_url data parts.
type Extractor struct {
	client       llms.Model
	temperature  float64
	axiomCount   int
	snippetCount int
	logger       *slog.Logger
}

// newExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newExtractor(client llms.Model, config *ai.Config) *Extractor {
	return &Extractor{
		client:       client,
		temperature:  config.Temperature,
		axiomCount:   config.AxiomCount,
		snippetCount: config.SnippetCount,
		logger:       slog.Default().With("component", "openai-extractor"),
	}
}

// NewExtractor creates a new extractor using the provided configuration.
// The credential is checked before the client is built.
//
// Returns ai.Extractor interface to enforce abstraction.
func NewExtractor(config *ai.Config) (ai.Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newClient(config)
	if err != nil {
		return nil, err
	}
	return newExtractor(client, config), nil
}

// Extract sends the document with the extraction instructions in a single
// user message and decodes the JSON answer.
//
// There is no retry: a transport failure is wrapped in ai.ErrTransport and a
// body that does not decode is wrapped in core.ErrMalformedExtraction.
func (e *Extractor) Extract(ctx context.Context, req ai.ExtractRequest) (*core.Extraction, core.DecodeReport, error) {
	var report core.DecodeReport
	if len(req.Document) == 0 {
		return nil, report, core.ErrEmptyDocument
	}

	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = ai.DefaultDocumentMIMEType
	}

	instructions := extractionPrompt(e.axiomCount, e.snippetCount)
	if req.SystemPrompt != "" {
		instructions = req.SystemPrompt + "\n\n" + instructions
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(instructions),
				llms.ImageURLPart(dataURL(mimeType, req.Document)),
			},
		},
	}

	e.logger.Debug("sending extraction request",
		"bytes", len(req.Document),
		"mime", mimeType,
		"language", req.Language)

	response, err := e.client.GenerateContent(ctx, content,
		llms.WithTemperature(e.temperature),
		llms.WithJSONMode())
	if err != nil {
		e.logger.Error("extraction request failed", "err", err)
		return nil, report, fmt.Errorf("%w: %w", ai.ErrTransport, err)
	}

	if len(response.Choices) < 1 || response.Choices[0].Content == "" {
		e.logger.Error("no content returned from model")
		return nil, report, fmt.Errorf("%w: no content returned", ai.ErrTransport)
	}

	body := repairJSON(stripCodeFences(response.Choices[0].Content))
	extraction, report, err := core.DecodeExtraction([]byte(body))
	if err != nil {
		e.logger.Warn("error parsing extraction response", "err", err, "length", len(body))
		return nil, report, err
	}

	if !report.Complete() {
		e.logger.Info("extraction response missing fields, defaults applied",
			"fields", report.Defaulted)
	}
	e.logger.Debug("extracted document",
		"axioms", len(extraction.Axioms),
		"snippets", len(extraction.Snippets),
		"fullText", len(extraction.FullText))

	return extraction, report, nil
}

// dataURL encodes data as an RFC 2397 URL.
func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
