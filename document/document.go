// Package document loads manuscript files for ingestion.
package document

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/poiesic/folio/core"
)

// DefaultMaxSize bounds the size of a loaded document.
const DefaultMaxSize = 50 << 20

// MIMETypePDF is the media type of PDF documents.
const MIMETypePDF = "application/pdf"

var (
	// ErrTooLarge is returned for documents above the configured size limit.
	ErrTooLarge = errors.New("document exceeds size limit")

	// ErrNotPDF is returned when a PDF-only operation is asked of another format.
	ErrNotPDF = errors.New("document is not a PDF")

	// ErrNoText is returned when a PDF carries no extractable text layer.
	ErrNoText = errors.New("document has no text layer")

	// ErrInvalidEncoding is returned when base64 content cannot be decoded.
	ErrInvalidEncoding = errors.New("invalid base64 document")
)

// Document is a manuscript held in memory.
type Document struct {
	Name     string
	Bytes    []byte
	ID       core.ID
	MIMEType string
}

type loadOptions struct {
	maxSize int64
}

// Option configures loading.
type Option func(*loadOptions)

// WithMaxSize sets the size limit in bytes. Zero or less disables it.
func WithMaxSize(n int64) Option {
	return func(o *loadOptions) {
		o.maxSize = n
	}
}

func applyOptions(opts []Option) loadOptions {
	o := loadOptions{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Load reads a document from disk.
func Load(path string, opts ...Option) (*Document, error) {
	o := applyOptions(opts)

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if o.maxSize > 0 && info.Size() > o.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(filepath.Base(path), data, opts...)
}

// FromBytes wraps document content already in memory.
func FromBytes(name string, data []byte, opts ...Option) (*Document, error) {
	o := applyOptions(opts)
	if len(data) == 0 {
		return nil, core.ErrEmptyDocument
	}
	if o.maxSize > 0 && int64(len(data)) > o.maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	return &Document{
		Name:     name,
		Bytes:    data,
		ID:       core.IDFromContent(data),
		MIMEType: detectMIMEType(name, data),
	}, nil
}

// FromBase64 decodes base64 content, standard or URL alphabet, optionally
// given as a data URL.
func FromBase64(name, encoded string, opts ...Option) (*Document, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ","); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		var urlErr error
		data, urlErr = base64.URLEncoding.DecodeString(encoded)
		if urlErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
		}
	}
	return FromBytes(name, data, opts...)
}

// Base64 returns the standard base64 encoding of the content.
func (d *Document) Base64() string {
	return base64.StdEncoding.EncodeToString(d.Bytes)
}

// DataURL returns the content as a data URL carrying its media type.
func (d *Document) DataURL() string {
	return "data:" + d.MIMEType + ";base64," + d.Base64()
}

// IsPDF reports whether the content is a PDF.
func (d *Document) IsPDF() bool {
	return d.MIMEType == MIMETypePDF
}

// PlainText extracts the text layer of a PDF locally, without a model call.
// Scanned documents without a text layer yield ErrNoText.
func (d *Document) PlainText() (text string, err error) {
	if !d.IsPDF() {
		return "", ErrNotPDF
	}

	// The PDF parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf %s: %v", d.Name, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(d.Bytes), int64(len(d.Bytes)))
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", d.Name, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf %s: %w", d.Name, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf %s: %w", d.Name, err)
	}
	if strings.TrimSpace(buf.String()) == "" {
		return "", ErrNoText
	}
	return buf.String(), nil
}

func detectMIMEType(name string, data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return MIMETypePDF
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		if i := strings.Index(byExt, ";"); i >= 0 {
			byExt = byExt[:i]
		}
		return byExt
	}
	detected := http.DetectContentType(data)
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = detected[:i]
	}
	return detected
}
