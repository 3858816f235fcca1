// Package chunker splits manuscript text into overlapping fixed-size windows.
//
// Offsets and lengths are counted in Unicode code points, so a window never
// splits a multi-byte character.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSize is the default number of characters per chunk.
const DefaultSize = 1800

// DefaultOverlap is the default number of characters shared by consecutive chunks.
const DefaultOverlap = 250

// DefaultMinLength is the minimum trimmed length a chunk needs to be kept.
const DefaultMinLength = 200

// ErrInvalidWindow is returned when size <= overlap or overlap < 0.
var ErrInvalidWindow = errors.New("chunk size must be greater than overlap and overlap must not be negative")

// Span locates a chunk in the source text, in code points. End is exclusive.
type Span struct {
	Start int
	End   int
}

// Chunker splits text with a fixed stride of size - overlap.
type Chunker struct {
	size      int
	overlap   int
	minLength int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithSize sets the chunk size in characters.
func WithSize(size int) Option {
	return func(c *Chunker) {
		c.size = size
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// WithMinLength sets the minimum trimmed length of a kept chunk.
// Negative values are treated as 0.
func WithMinLength(n int) Option {
	return func(c *Chunker) {
		if n < 0 {
			n = 0
		}
		c.minLength = n
	}
}

// New creates a Chunker. It fails with ErrInvalidWindow unless size > overlap >= 0.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		size:      DefaultSize,
		overlap:   DefaultOverlap,
		minLength: DefaultMinLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap < 0 || c.size <= c.overlap {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidWindow, c.size, c.overlap)
	}
	return c, nil
}

// Default returns a Chunker with the default window.
func Default() *Chunker {
	return &Chunker{
		size:      DefaultSize,
		overlap:   DefaultOverlap,
		minLength: DefaultMinLength,
	}
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns the kept chunks of text in order.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	spans := c.spans(runes)
	chunks := make([]string, len(spans))
	for i, s := range spans {
		chunks[i] = string(runes[s.Start:s.End])
	}
	return chunks
}

// Spans returns the positions of the chunks Split would keep.
func (c *Chunker) Spans(text string) []Span {
	return c.spans([]rune(text))
}

func (c *Chunker) spans(runes []rune) []Span {
	length := len(runes)
	if length == 0 {
		return []Span{}
	}

	stride := c.size - c.overlap
	spans := make([]Span, 0, length/stride+1)
	for start := 0; start < length; start += stride {
		end := min(start+c.size, length)
		if trimmedLen(runes[start:end]) >= c.minLength {
			spans = append(spans, Span{Start: start, End: end})
		}
		if end == length {
			break
		}
	}
	return spans
}

func trimmedLen(runes []rune) int {
	return utf8.RuneCountInString(strings.TrimSpace(string(runes)))
}

// Chunk splits text with the given window and the default minimum length.
func Chunk(text string, size, overlap int) ([]string, error) {
	c, err := New(WithSize(size), WithOverlap(overlap))
	if err != nil {
		return nil, err
	}
	return c.Split(text), nil
}
