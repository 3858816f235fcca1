package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Top-level fields of an extraction response.
const (
	FieldAxioms   = "axioms"
	FieldSnippets = "snippets"
	FieldMetadata = "metadata"
	FieldFullText = "fullText"
)

// DecodeReport lists the fields that were absent (or null) in an extraction
// response and received their empty default.
type DecodeReport struct {
	Defaulted []string
}

// Has reports whether field was defaulted.
func (r DecodeReport) Has(field string) bool {
	return slices.Contains(r.Defaulted, field)
}

// Complete reports whether every field was present.
func (r DecodeReport) Complete() bool {
	return len(r.Defaulted) == 0
}

// DecodeExtraction decodes an extraction response body.
//
// A field that is absent or null gets its empty value and is listed in the
// report. A field that is present with the wrong shape (for example "axioms"
// as a string, or a snippet that is a number) makes the whole response
// malformed, and so does a body that is not a JSON object.
//
// Metadata "chapters" is accepted either as a string or as a list of strings,
// the list being joined with ", ".
func DecodeExtraction(data []byte) (*Extraction, DecodeReport, error) {
	var report DecodeReport

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, report, fmt.Errorf("%w: %w", ErrMalformedExtraction, err)
	}
	if fields == nil {
		return nil, report, fmt.Errorf("%w: body is not an object", ErrMalformedExtraction)
	}

	result := &Extraction{
		Axioms:   []Axiom{},
		Snippets: []string{},
	}

	if raw, ok := present(fields, FieldAxioms); ok {
		if err := json.Unmarshal(raw, &result.Axioms); err != nil {
			return nil, report, fieldError(FieldAxioms, err)
		}
		if result.Axioms == nil {
			result.Axioms = []Axiom{}
		}
	} else {
		report.Defaulted = append(report.Defaulted, FieldAxioms)
	}

	if raw, ok := present(fields, FieldSnippets); ok {
		var snippets []*string
		if err := json.Unmarshal(raw, &snippets); err != nil {
			return nil, report, fieldError(FieldSnippets, err)
		}
		for _, s := range snippets {
			if s != nil {
				result.Snippets = append(result.Snippets, *s)
			}
		}
	} else {
		report.Defaulted = append(report.Defaulted, FieldSnippets)
	}

	if raw, ok := present(fields, FieldMetadata); ok {
		md, err := decodeMetadata(raw)
		if err != nil {
			return nil, report, fieldError(FieldMetadata, err)
		}
		result.Metadata = md
	} else {
		report.Defaulted = append(report.Defaulted, FieldMetadata)
	}

	if raw, ok := present(fields, FieldFullText); ok {
		if err := json.Unmarshal(raw, &result.FullText); err != nil {
			return nil, report, fieldError(FieldFullText, err)
		}
	} else {
		report.Defaulted = append(report.Defaulted, FieldFullText)
	}

	return result, report, nil
}

// rawMetadata mirrors Metadata with a flexible chapters field.
type rawMetadata struct {
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	Chapters json.RawMessage `json:"chapters"`
	Summary  string          `json:"summary"`
}

func decodeMetadata(raw json.RawMessage) (Metadata, error) {
	var rm rawMetadata
	if err := json.Unmarshal(raw, &rm); err != nil {
		return Metadata{}, err
	}

	md := Metadata{
		Title:   rm.Title,
		Author:  rm.Author,
		Summary: rm.Summary,
	}

	if isNull(rm.Chapters) {
		return md, nil
	}
	if err := json.Unmarshal(rm.Chapters, &md.Chapters); err == nil {
		return md, nil
	}
	var list []string
	if err := json.Unmarshal(rm.Chapters, &list); err != nil {
		return Metadata{}, fmt.Errorf("chapters must be a string or a list of strings: %w", err)
	}
	md.Chapters = strings.Join(list, ", ")
	return md, nil
}

// present returns the raw value of key if it exists and is not null.
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func fieldError(field string, err error) error {
	return fmt.Errorf("%w: field %q: %w", ErrMalformedExtraction, field, err)
}
