package vector

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("  The Blue\twidget,\n costs  ")
	want := []string{"the", "blue", "widget,", "costs"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if toks := Tokenize(" \n\t "); len(toks) != 0 {
		t.Errorf("whitespace-only text should have no tokens, got %v", toks)
	}
}

func TestTermVector(t *testing.T) {
	v := NewTermVector("a B b c c C")
	if v.Total() != 6 {
		t.Errorf("Total() = %d, want 6", v.Total())
	}
	if v.Len() != 3 {
		t.Errorf("Len() = %d, want 3", v.Len())
	}
	if v.Count("C") != 3 {
		t.Errorf("Count(C) = %d, want 3", v.Count("C"))
	}
	if v.SquaredNorm() != 1+4+9 {
		t.Errorf("SquaredNorm() = %d, want 14", v.SquaredNorm())
	}
	if math.Abs(v.L2Norm()-math.Sqrt(14)) > 1e-12 {
		t.Errorf("L2Norm() = %f", v.L2Norm())
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "blue widget", "blue widget", 1},
		{"case insensitive", "Blue WIDGET", "blue widget", 1},
		{"disjoint", "what is the weather today", "blue widget costs", 0},
		{"empty query", "", "blue widget", 0},
		{"empty text", "blue widget", "   ", 0},
		{"both empty", "", "", 0},
		// q = {a:1, b:1}, t = {a:1, c:1}: 1 / (sqrt2*sqrt2)
		{"half overlap", "a b", "a c", 0.5},
		// q = {a:2}, t = {a:1, b:1}: 2 / (2*sqrt2)
		{"repeated term", "a a", "a b", 1 / math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Cosine(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCosine_identityIsExact(t *testing.T) {
	texts := []string{
		"x",
		"the blue widget costs 10 dollars and is in stock",
		"a a a b b c d e f g h h h h",
		"Product: Lamp. Price: 25. Category: home. Stock: 3.",
	}
	for _, s := range texts {
		if got := Cosine(s, s); got != 1 {
			t.Errorf("Cosine(s, s) = %v, want exactly 1 for %q", got, s)
		}
	}
}

func TestCosine_symmetryAndBounds(t *testing.T) {
	pairs := [][2]string{
		{"how much is the blue widget", "The blue widget costs 10 dollars and is in stock"},
		{"a b c d e", "e e e d"},
		{"red lamp red lamp", "lamp"},
		{"one", "two"},
		{"", "anything"},
	}
	for _, p := range pairs {
		ab := Cosine(p[0], p[1])
		ba := Cosine(p[1], p[0])
		if ab != ba {
			t.Errorf("Cosine not symmetric for %q / %q: %v vs %v", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Errorf("Cosine(%q, %q) = %v out of [0,1]", p[0], p[1], ab)
		}
	}
}

func TestTFScore(t *testing.T) {
	tests := []struct {
		name       string
		query, doc string
		want       float64
	}{
		{"single term", "widget", "blue widget costs ten", 0.25},
		{"two terms", "blue widget", "blue widget costs ten", 0.5},
		{"distinct terms only", "widget widget", "blue widget costs ten", 0.25},
		{"repeated in doc", "a", "a a b b", 0.5},
		{"absent term", "lamp", "blue widget", 0},
		{"empty doc", "widget", "", 0},
		{"empty query", "", "blue widget", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TFScore(tt.query, tt.doc)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("TFScore(%q, %q) = %v, want %v", tt.query, tt.doc, got, tt.want)
			}
		})
	}
}
