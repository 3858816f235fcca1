package storage

import (
	"time"

	"github.com/poiesic/folio/core"
)

// SessionRecord is the persisted form of one session.
// Raw document bytes are never stored.
type SessionRecord struct {
	ID           string        `json:"id"`
	DocumentID   core.ID       `json:"documentId,omitempty"`
	DocumentName string        `json:"documentName,omitempty"`
	Language     core.Language `json:"language,omitempty"`
	History      []core.Turn   `json:"history"`
	Chunks       []string      `json:"chunks"`
	FullText     string        `json:"fullText"`
	Axioms       []core.Axiom  `json:"axioms"`
	Metadata     core.Metadata `json:"metadata"`
	Snippets     []string      `json:"snippets"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	IngestedAt   time.Time     `json:"ingestedAt,omitzero"`
}

// Summary returns the listing view of the record.
func (r *SessionRecord) Summary() SessionSummary {
	return SessionSummary{
		ID:           r.ID,
		DocumentName: r.DocumentName,
		Title:        r.Metadata.Title,
		Author:       r.Metadata.Author,
		Turns:        len(r.History),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	ID           string    `json:"id"`
	DocumentName string    `json:"documentName,omitempty"`
	Title        string    `json:"title,omitempty"`
	Author       string    `json:"author,omitempty"`
	Turns        int       `json:"turns"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
