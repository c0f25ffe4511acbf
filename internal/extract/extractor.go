// Package extract turns uploaded knowledge-base files into plain text.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize bounds the size of a file accepted by Extract.
const DefaultMaxFileSize = 32 << 20

// ErrFileTooLarge is returned when a file exceeds the extractor's size limit.
var ErrFileTooLarge = errors.New("file too large")

type extractFunc func(content []byte) (string, error)

var formats = map[string]extractFunc{
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".xlsx": extractSheet,
	".txt":  extractPlain,
	".md":   extractPlain,
	".csv":  extractPlain,
	".json": extractPlain,
	".yaml": extractPlain,
	".yml":  extractPlain,
	"":      extractPlain,
}

// Extractor extracts plain text from document files.
type Extractor struct {
	maxSize int64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxFileSize sets the largest file Extract reads. n <= 0 disables the limit.
func WithMaxFileSize(n int64) Option {
	return func(e *Extractor) { e.maxSize = n }
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{maxSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supported reports whether ext (with leading dot) has a dedicated extractor.
func Supported(ext string) bool {
	_, ok := formats[strings.ToLower(ext)]
	return ok
}

// Extract reads the file at path and returns its text content.
// Unknown extensions are read as UTF-8 text.
func (e *Extractor) Extract(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("not a regular file: %s", path)
	}
	if e.maxSize > 0 && info.Size() > e.maxSize {
		return "", fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, path, info.Size(), e.maxSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content based on ext, e.g. ".pdf".
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	fn, ok := formats[strings.ToLower(ext)]
	if !ok {
		fn = extractPlain
	}
	return fn(content)
}
