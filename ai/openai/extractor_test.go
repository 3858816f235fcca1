package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

const sampleResponse = `{
  "axioms": [{"term": "Virtue", "definition": "A settled disposition", "significance": "Central thesis"}],
  "snippets": ["The unexamined life is not worth living."],
  "metadata": {"title": "Dialogues", "author": "Plato", "chapters": "I, II"},
  "fullText": "Full text of the dialogues."
}`

func testConfig() *ai.Config {
	return ai.NewConfig(ai.WithAPIKey("test-key"))
}

func TestExtract_RequestShape(t *testing.T) {
	model := &fakeModel{content: sampleResponse}
	extractor := newExtractor(model, testConfig())

	doc := []byte("%PDF-1.4 fake")
	_, _, err := extractor.Extract(context.Background(), ai.ExtractRequest{
		Document:     doc,
		Language:     core.LanguageArabic,
		SystemPrompt: "SYSTEM",
	})
	require.NoError(t, err)
	require.Equal(t, 1, model.callCount())

	call := model.lastCall()
	assert.True(t, call.opts.JSONMode)
	assert.Equal(t, 0.2, call.opts.Temperature)
	assert.Nil(t, call.opts.StreamingFunc)

	require.Len(t, call.messages, 1)
	msg := call.messages[0]
	assert.Equal(t, llms.ChatMessageTypeHuman, msg.Role)
	require.Len(t, msg.Parts, 2)

	text, ok := msg.Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(text.Text, "SYSTEM\n\n1. Extract exactly 13"))
	assert.Contains(t, text.Text, "Extract 10 short")

	image, ok := msg.Parts[1].(llms.ImageURLContent)
	require.True(t, ok)
	assert.Equal(t, "data:application/pdf;base64,"+base64.StdEncoding.EncodeToString(doc), image.URL)
}

func TestExtract_CustomCountsAndMIMEType(t *testing.T) {
	model := &fakeModel{content: sampleResponse}
	cfg := ai.NewConfig(ai.WithAPIKey("k"), ai.WithAxiomCount(5), ai.WithSnippetCount(3))
	extractor := newExtractor(model, cfg)

	_, _, err := extractor.Extract(context.Background(), ai.ExtractRequest{
		Document: []byte("img"),
		MIMEType: "image/png",
	})
	require.NoError(t, err)

	parts := model.lastCall().messages[0].Parts
	text := parts[0].(llms.TextContent)
	assert.True(t, strings.HasPrefix(text.Text, "1. Extract exactly 5"))
	assert.Contains(t, text.Text, "Extract 3 short")
	assert.True(t, strings.HasPrefix(parts[1].(llms.ImageURLContent).URL, "data:image/png;base64,"))
}

func TestExtract_DecodesResponse(t *testing.T) {
	model := &fakeModel{content: "```json\n" + sampleResponse + "\n```"}
	extractor := newExtractor(model, testConfig())

	result, report, err := extractor.Extract(context.Background(), ai.ExtractRequest{Document: []byte("x")})
	require.NoError(t, err)
	assert.True(t, report.Complete())

	require.Len(t, result.Axioms, 1)
	assert.Equal(t, "Virtue", result.Axioms[0].Term)
	assert.Equal(t, []string{"The unexamined life is not worth living."}, result.Snippets)
	assert.Equal(t, "Plato", result.Metadata.Author)
	assert.Equal(t, "Full text of the dialogues.", result.FullText)
}

func TestExtract_RepairsAndDefaults(t *testing.T) {
	model := &fakeModel{content: `{ axioms": [], "snippets": ["a", "b",], }`}
	extractor := newExtractor(model, testConfig())

	result, report, err := extractor.Extract(context.Background(), ai.ExtractRequest{Document: []byte("x")})
	require.NoError(t, err)
	assert.Empty(t, result.Axioms)
	assert.Equal(t, []string{"a", "b"}, result.Snippets)
	assert.True(t, report.Has(core.FieldMetadata))
	assert.True(t, report.Has(core.FieldFullText))
	assert.False(t, report.Has(core.FieldAxioms))
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name   string
		model  *fakeModel
		doc    []byte
		target error
	}{
		{name: "empty document", model: &fakeModel{}, doc: nil, target: core.ErrEmptyDocument},
		{name: "transport failure", model: &fakeModel{err: errors.New("connection reset")}, doc: []byte("x"), target: ai.ErrTransport},
		{name: "no choices", model: &fakeModel{noChoices: true}, doc: []byte("x"), target: ai.ErrTransport},
		{name: "empty content", model: &fakeModel{content: ""}, doc: []byte("x"), target: ai.ErrTransport},
		{name: "not json", model: &fakeModel{content: "I cannot read this file."}, doc: []byte("x"), target: core.ErrMalformedExtraction},
		{name: "wrong shape", model: &fakeModel{content: `{"axioms": "none"}`}, doc: []byte("x"), target: core.ErrMalformedExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := newExtractor(tt.model, testConfig())
			result, _, err := extractor.Extract(context.Background(), ai.ExtractRequest{Document: tt.doc})
			assert.ErrorIs(t, err, tt.target)
			assert.Nil(t, result)
		})
	}
}

func TestExtract_TransportErrorKeepsCause(t *testing.T) {
	model := &fakeModel{err: context.DeadlineExceeded}
	extractor := newExtractor(model, testConfig())

	_, _, err := extractor.Extract(context.Background(), ai.ExtractRequest{Document: []byte("x")})
	assert.ErrorIs(t, err, ai.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:application/pdf;base64,aGk=", dataURL("application/pdf", []byte("hi")))
}
