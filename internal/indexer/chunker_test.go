package indexer

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestChunk(t *testing.T) {
	chunks, err := Chunk("one two three four five six seven", 3, 1)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	want := []string{
		"one two three",
		"three four five",
		"five six seven",
		"seven",
	}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("Chunk: got %q, want %q", chunks, want)
	}
}

func TestChunk_noOverlap(t *testing.T) {
	chunks, err := Chunk("a b c d e", 2, 0)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	want := []string{"a b", "c d", "e"}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("Chunk: got %q, want %q", chunks, want)
	}
}

func TestChunk_shortText(t *testing.T) {
	chunks, err := Chunk("  The blue widget\tcosts 10 dollars\n", DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "The blue widget costs 10 dollars" {
		t.Errorf("short text should be one normalized chunk, got %q", chunks)
	}
}

func TestChunk_empty(t *testing.T) {
	for _, text := range []string{"", "   \n\t  "} {
		chunks, err := Chunk(text, 5, 1)
		if err != nil {
			t.Fatalf("Chunk(%q): %v", text, err)
		}
		if len(chunks) != 0 {
			t.Errorf("Chunk(%q) should be empty, got %q", text, chunks)
		}
	}
}

func TestChunk_invalidParams(t *testing.T) {
	tests := []struct {
		size, overlap int
	}{
		{0, 0},
		{-1, 0},
		{5, -1},
		{5, 5},
		{3, 7},
	}
	for _, tt := range tests {
		_, err := Chunk("a b c", tt.size, tt.overlap)
		if !errors.Is(err, ErrInvalidChunkParams) {
			t.Errorf("Chunk(size=%d, overlap=%d): got %v, want ErrInvalidChunkParams", tt.size, tt.overlap, err)
		}
		if _, err := NewChunker(tt.size, tt.overlap); !errors.Is(err, ErrInvalidChunkParams) {
			t.Errorf("NewChunker(%d, %d): got %v, want ErrInvalidChunkParams", tt.size, tt.overlap, err)
		}
	}
}

func TestChunk_coverage(t *testing.T) {
	var words []string
	for i := 0; i < 137; i++ {
		words = append(words, "w"+strings.Repeat("x", i%7)+string(rune('a'+i%26)))
	}
	text := strings.Join(words, "  \n ")
	params := [][2]int{{1, 0}, {10, 3}, {50, 49}, {200, 50}, {DefaultChunkSize, DefaultChunkOverlap}}
	for _, p := range params {
		chunks, err := Chunk(text, p[0], p[1])
		if err != nil {
			t.Fatalf("Chunk(%d, %d): %v", p[0], p[1], err)
		}
		seen := make(map[int]bool)
		pos := 0
		step := p[0] - p[1]
		for ci, ch := range chunks {
			if ch == "" || strings.TrimSpace(ch) != ch || strings.Contains(ch, "  ") {
				t.Fatalf("chunk %d not trimmed/normalized: %q", ci, ch)
			}
			got := strings.Fields(ch)
			if len(got) > p[0] {
				t.Fatalf("chunk %d has %d words, max %d", ci, len(got), p[0])
			}
			for j, w := range got {
				if words[pos+j] != w {
					t.Fatalf("chunk %d word %d = %q, want %q", ci, j, w, words[pos+j])
				}
				seen[pos+j] = true
			}
			pos += step
		}
		if len(seen) != len(words) {
			t.Errorf("Chunk(%d, %d) covered %d of %d words", p[0], p[1], len(seen), len(words))
		}
	}
}

func TestChunk_deterministic(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 40)
	first, _ := Chunk(text, 7, 2)
	for i := 0; i < 5; i++ {
		again, _ := Chunk(text, 7, 2)
		if !reflect.DeepEqual(first, again) {
			t.Fatal("Chunk is not deterministic")
		}
	}
}

func TestChunker_methods(t *testing.T) {
	c, err := NewChunker(3, 1)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	if c.Size() != 3 || c.Overlap() != 1 {
		t.Errorf("Size/Overlap = %d/%d", c.Size(), c.Overlap())
	}
	want, _ := Chunk("one two three four", 3, 1)
	if got := c.Chunk("one two three four"); !reflect.DeepEqual(got, want) {
		t.Errorf("Chunker.Chunk: got %q, want %q", got, want)
	}
}
