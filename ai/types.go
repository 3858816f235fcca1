package ai

import "github.com/poiesic/folio/core"

// DefaultDocumentMIMEType is assumed when an ExtractRequest leaves MIMEType empty.
const DefaultDocumentMIMEType = "application/pdf"

// ExtractRequest carries one document to the extraction call.
type ExtractRequest struct {
	// Document is the raw file content. It is only held for the duration of the call.
	Document []byte

	// MIMEType of Document. Defaults to DefaultDocumentMIMEType.
	MIMEType string

	// Language is the interface language of the caller.
	Language core.Language

	// SystemPrompt is prepended to the extraction instructions.
	SystemPrompt string
}

// ContextMap is what a system instruction knows about the current manuscript.
type ContextMap struct {
	Metadata core.Metadata
	Axioms   []core.Axiom
	Language core.Language
}
