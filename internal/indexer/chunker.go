// Package indexer provides document chunking and ingestion into the document store.
package indexer

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultChunkSize is the default window length in words.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is the default number of words shared by consecutive windows.
	DefaultChunkOverlap = 50
)

// ErrInvalidChunkParams is returned when the window would not advance.
var ErrInvalidChunkParams = errors.New("invalid chunk parameters")

// Chunker splits text into overlapping word-based chunks.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in words).
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if err := validateChunkParams(chunkSize, chunkOverlap); err != nil {
		return nil, err
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

// Size returns the window length in words.
func (c *Chunker) Size() int { return c.chunkSize }

// Overlap returns the overlap in words.
func (c *Chunker) Overlap() int { return c.chunkOverlap }

// Chunk splits text with the chunker's parameters.
func (c *Chunker) Chunk(text string) []string {
	return chunkWords(strings.Fields(text), c.chunkSize, c.chunkSize-c.chunkOverlap)
}

// Chunk splits text on runs of whitespace and returns windows of up to chunkSize
// words, starting every chunkSize-overlap words until the start passes the last
// word. A window that starts inside the previous one's tail is still emitted.
// Text without words yields an empty slice.
func Chunk(text string, chunkSize, overlap int) ([]string, error) {
	if err := validateChunkParams(chunkSize, overlap); err != nil {
		return nil, err
	}
	return chunkWords(strings.Fields(text), chunkSize, chunkSize-overlap), nil
}

func validateChunkParams(size, overlap int) error {
	if size <= 0 || overlap < 0 || size-overlap <= 0 {
		return fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunkParams, size, overlap)
	}
	return nil
}

func chunkWords(words []string, size, step int) []string {
	chunks := make([]string, 0, len(words)/step+1)
	for i := 0; i < len(words); i += step {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if chunk == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
