// Package models defines core data structures for documents and retrieval results.
package models

import "time"

// Document is a stored knowledge-base entry. Chunks are computed once when the
// document is added and never recomputed.
type Document struct {
	ID        int64                  `json:"id" db:"id"`
	Title     string                 `json:"title" db:"title"`
	Content   string                 `json:"content" db:"content"`
	Chunks    []string               `json:"chunks" db:"-"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	Timestamp int64                  `json:"timestamp" db:"timestamp"` // milliseconds since epoch
}

// CreatedAt returns Timestamp as a time.Time.
func (d *Document) CreatedAt() time.Time {
	return time.UnixMilli(d.Timestamp)
}

// DocumentInput is the input for adding a document.
type DocumentInput struct {
	Title    string                 `json:"title" yaml:"title"`
	Content  string                 `json:"content" yaml:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// NowMillis returns the current time in milliseconds since epoch.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
