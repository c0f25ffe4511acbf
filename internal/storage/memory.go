package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/kioku/internal/models"
)

// MemoryStorage implements Storage in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	docs   map[int64]*models.Document
	order  []int64
	nextID int64
	closed bool
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		docs:   make(map[int64]*models.Document),
		nextID: 1,
	}
}

// CreateDocument stores a copy of doc and assigns its id.
func (s *MemoryStorage) CreateDocument(ctx context.Context, doc *models.Document) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, txError("create document", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreUnavailable
	}
	return s.insertLocked(doc), nil
}

func (s *MemoryStorage) insertLocked(doc *models.Document) int64 {
	id := s.nextID
	s.nextID++
	doc.ID = id
	stored := cloneDocument(doc)
	if stored.Chunks == nil {
		stored.Chunks = []string{}
	}
	s.docs[id] = stored
	s.order = append(s.order, id)
	return id
}

// GetDocument returns a copy of the document with the given id.
func (s *MemoryStorage) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, txError("get document", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	return cloneDocument(doc), nil
}

// ListDocuments returns copies of all documents in insertion order.
func (s *MemoryStorage) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, txError("list documents", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}
	docs := make([]*models.Document, 0, len(s.order))
	for _, id := range s.order {
		docs = append(docs, cloneDocument(s.docs[id]))
	}
	return docs, nil
}

// DeleteDocument removes a document by id.
func (s *MemoryStorage) DeleteDocument(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return txError("delete document", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreUnavailable
	}
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	delete(s.docs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes all documents. Ids keep increasing afterwards.
func (s *MemoryStorage) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return txError("clear", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreUnavailable
	}
	s.docs = make(map[int64]*models.Document)
	s.order = nil
	return nil
}

// ReplaceDocuments clears the store and inserts docs under a single lock.
func (s *MemoryStorage) ReplaceDocuments(ctx context.Context, docs []*models.Document) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, txError("replace documents", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}
	s.docs = make(map[int64]*models.Document, len(docs))
	s.order = make([]int64, 0, len(docs))
	ids := make([]int64, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, s.insertLocked(doc))
	}
	return ids, nil
}

// CountDocuments returns the number of stored documents.
func (s *MemoryStorage) CountDocuments(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, txError("count documents", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreUnavailable
	}
	return int64(len(s.docs)), nil
}

// CountChunks returns the number of chunks across all documents.
func (s *MemoryStorage) CountChunks(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, txError("count chunks", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreUnavailable
	}
	var n int64
	for _, doc := range s.docs {
		n += int64(len(doc.Chunks))
	}
	return n, nil
}

// Close releases the store. Later operations fail with ErrStoreUnavailable.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.docs = nil
	s.order = nil
	return nil
}
