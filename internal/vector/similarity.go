// Package vector provides bag-of-words term vectors and lexical similarity.
package vector

import "math"

// Cosine returns the cosine similarity of the raw term-count vectors of query and
// text, in [0, 1]. It returns exactly 0 when either side has no tokens.
func Cosine(query, text string) float64 {
	return NewTermVector(query).Cosine(NewTermVector(text))
}

// TFScore sums, over the distinct terms of query, the relative frequency of each
// term in doc (occurrences divided by the number of doc tokens). Terms absent
// from doc contribute 0; a doc without tokens scores 0.
func TFScore(query, doc string) float64 {
	docVec := NewTermVector(doc)
	if docVec.total == 0 {
		return 0
	}
	var score float64
	for term := range NewTermVector(query).counts {
		score += float64(docVec.counts[term]) / float64(docVec.total)
	}
	return score
}

// Cosine returns the cosine similarity between v and other.
// Dot product and squared norms are accumulated as integers, so the result does
// not depend on map iteration order: Cosine is symmetric and v.Cosine(v) == 1.
func (v *TermVector) Cosine(other *TermVector) float64 {
	if v.total == 0 || other.total == 0 {
		return 0
	}
	small, large := v, other
	if len(large.counts) < len(small.counts) {
		small, large = large, small
	}
	var dot int64
	for term, n := range small.counts {
		dot += int64(n) * int64(large.counts[term])
	}
	if dot == 0 {
		return 0
	}
	sim := float64(dot) / math.Sqrt(float64(v.SquaredNorm())*float64(other.SquaredNorm()))
	if sim > 1 {
		return 1
	}
	return sim
}

// L2Norm returns the Euclidean norm of the count vector.
func (v *TermVector) L2Norm() float64 {
	return math.Sqrt(float64(v.SquaredNorm()))
}

// SquaredNorm returns the sum of squared term counts.
func (v *TermVector) SquaredNorm() int64 {
	var sum int64
	for _, n := range v.counts {
		sum += int64(n) * int64(n)
	}
	return sum
}
