package search

import "strings"

// NormalizeQuery trims surrounding whitespace. Scoring tokenizes the rest.
func NormalizeQuery(query string) string {
	return strings.TrimSpace(query)
}
