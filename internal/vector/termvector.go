package vector

import "strings"

// Tokenize lowercases text and splits it on runs of whitespace.
// Punctuation is kept; there is no stemming or stop-word removal.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// TermVector is a sparse vector of raw term counts.
type TermVector struct {
	counts map[string]int
	total  int
}

// NewTermVector builds the term-count vector of text.
func NewTermVector(text string) *TermVector {
	tokens := Tokenize(text)
	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	return &TermVector{counts: counts, total: len(tokens)}
}

// Count returns how many times term occurs. term is matched case-insensitively.
func (v *TermVector) Count(term string) int {
	return v.counts[strings.ToLower(term)]
}

// Len returns the number of distinct terms.
func (v *TermVector) Len() int {
	return len(v.counts)
}

// Total returns the number of tokens.
func (v *TermVector) Total() int {
	return v.total
}
