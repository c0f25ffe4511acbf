// Package storage defines the persistence interface for knowledge-base documents
// and its SQLite, bbolt and in-memory backends.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/kioku/internal/models"
)

var (
	// ErrStoreUnavailable is returned by every operation on a store that is not open.
	ErrStoreUnavailable = errors.New("document store unavailable")
	// ErrTransactionFailed matches any *TxError.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrNotFound is returned when a document id does not exist.
	ErrNotFound = errors.New("document not found")
)

// TxError reports a failure of the backing medium during a store operation.
type TxError struct {
	Op  string
	Err error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("%s: transaction failed: %v", e.Op, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// Is reports ErrTransactionFailed as a match so callers need not know the cause.
func (e *TxError) Is(target error) bool { return target == ErrTransactionFailed }

func txError(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TxError
	if errors.As(err, &te) {
		return err
	}
	return &TxError{Op: op, Err: err}
}

// Storage persists documents with their precomputed chunks.
// Ids are assigned by the store, increase monotonically and are never reused.
type Storage interface {
	// CreateDocument stores doc, sets doc.ID and returns it.
	CreateDocument(ctx context.Context, doc *models.Document) (int64, error)
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	// ListDocuments returns every document in id order.
	ListDocuments(ctx context.Context) ([]*models.Document, error)
	// DeleteDocument returns ErrNotFound when id does not exist.
	DeleteDocument(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
	// ReplaceDocuments clears the store and stores docs as one atomic unit.
	ReplaceDocuments(ctx context.Context, docs []*models.Document) ([]int64, error)

	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}

func cloneDocument(doc *models.Document) *models.Document {
	out := *doc
	if doc.Chunks != nil {
		out.Chunks = make([]string, len(doc.Chunks))
		copy(out.Chunks, doc.Chunks)
	}
	if doc.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(doc.Metadata))
		for k, v := range doc.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
