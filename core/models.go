package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier for documents.
type ID uint64

// IDFromContent generates a deterministic ID from content using BLAKE2b hashing.
// Identical content produces identical IDs.
func IDFromContent(data []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as fixed-width hex.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TurnStatus records whether a turn completed normally.
type TurnStatus string

const (
	// TurnComplete is the status of every turn that belongs to a finished exchange.
	TurnComplete TurnStatus = "complete"
	// TurnFailed marks a user turn whose response stream failed.
	// The turn stays in history and can be retried.
	TurnFailed TurnStatus = "failed"
)

// Turn is a single entry of a conversation history.
type Turn struct {
	Role    Role       `json:"role"`
	Content string     `json:"content"`
	Status  TurnStatus `json:"status,omitempty"`
	At      time.Time  `json:"at"`
}

// Axiom is a distilled unit of document knowledge.
type Axiom struct {
	Term         string `json:"term"`
	Definition   string `json:"definition"`
	Significance string `json:"significance"`
}

// Metadata describes the ingested manuscript.
// It is replaced wholesale on every extraction.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Chapters string `json:"chapters,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// IsZero reports whether no metadata field is set.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Extraction is the structured result of ingesting one document.
type Extraction struct {
	Axioms   []Axiom  `json:"axioms"`
	Snippets []string `json:"snippets"`
	Metadata Metadata `json:"metadata"`
	FullText string   `json:"fullText"`
}

// Language is a supported interface language tag.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
	LanguageFrench  Language = "fr"
	LanguageSpanish Language = "es"
	LanguageGerman  Language = "de"
)

var languageNames = map[Language]string{
	LanguageEnglish: "English",
	LanguageArabic:  "Arabic",
	LanguageFrench:  "French",
	LanguageSpanish: "Spanish",
	LanguageGerman:  "German",
}

// Languages lists the supported tags in display order.
var Languages = []Language{
	LanguageEnglish,
	LanguageArabic,
	LanguageFrench,
	LanguageSpanish,
	LanguageGerman,
}

// ParseLanguage converts a tag such as "en" or "AR" into a Language.
// An empty tag yields English.
func ParseLanguage(tag string) (Language, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return LanguageEnglish, nil
	}
	lang := Language(tag)
	if _, ok := languageNames[lang]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, tag)
	}
	return lang, nil
}

// Name returns the English name of the language, or the raw tag if unknown.
func (l Language) Name() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return string(l)
}
