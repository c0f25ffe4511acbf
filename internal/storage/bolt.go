package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hyperjump/kioku/internal/models"
)

var documentsBucket = []byte("documents")

// BoltStorage implements Storage on a bbolt key-value file. Documents are JSON
// values keyed by their big-endian id; ids come from the bucket sequence.
type BoltStorage struct {
	mu sync.RWMutex
	db *bbolt.DB
}

// NewBoltStorage opens or creates a bbolt database at path.
// A second open of the same file fails after one second instead of blocking.
func NewBoltStorage(path string) (*BoltStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrStoreUnavailable)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(documentsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}
	return &BoltStorage{db: db}, nil
}

func idKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func (s *BoltStorage) update(ctx context.Context, op string, fn func(b *bbolt.Bucket) error) error {
	return s.run(ctx, op, true, fn)
}

func (s *BoltStorage) view(ctx context.Context, op string, fn func(b *bbolt.Bucket) error) error {
	return s.run(ctx, op, false, fn)
}

func (s *BoltStorage) run(ctx context.Context, op string, writable bool, fn func(b *bbolt.Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return txError(op, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrStoreUnavailable
	}
	txFn := func(tx *bbolt.Tx) error {
		b := tx.Bucket(documentsBucket)
		if b == nil {
			return bbolt.ErrBucketNotFound
		}
		return fn(b)
	}
	var err error
	if writable {
		err = s.db.Update(txFn)
	} else {
		err = s.db.View(txFn)
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return txError(op, err)
	}
	return err
}

func putDocument(b *bbolt.Bucket, doc *models.Document) error {
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	stored := cloneDocument(doc)
	stored.ID = int64(seq)
	if stored.Chunks == nil {
		stored.Chunks = []string{}
	}
	val, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := b.Put(idKey(stored.ID), val); err != nil {
		return err
	}
	doc.ID = stored.ID
	return nil
}

func decodeDocument(val []byte) (*models.Document, error) {
	var doc models.Document
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

// CreateDocument stores doc under the next sequence id.
func (s *BoltStorage) CreateDocument(ctx context.Context, doc *models.Document) (int64, error) {
	err := s.update(ctx, "create document", func(b *bbolt.Bucket) error {
		return putDocument(b, doc)
	})
	if err != nil {
		return 0, err
	}
	return doc.ID, nil
}

// GetDocument returns a document by id.
func (s *BoltStorage) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	var doc *models.Document
	err := s.view(ctx, "get document", func(b *bbolt.Bucket) error {
		val := b.Get(idKey(id))
		if val == nil {
			return fmt.Errorf("document %d: %w", id, ErrNotFound)
		}
		var err error
		doc, err = decodeDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns all documents in key (id) order.
func (s *BoltStorage) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	docs := make([]*models.Document, 0)
	err := s.view(ctx, "list documents", func(b *bbolt.Bucket) error {
		return b.ForEach(func(_, v []byte) error {
			doc, err := decodeDocument(v)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocument removes a document by id.
func (s *BoltStorage) DeleteDocument(ctx context.Context, id int64) error {
	return s.update(ctx, "delete document", func(b *bbolt.Bucket) error {
		key := idKey(id)
		if b.Get(key) == nil {
			return fmt.Errorf("document %d: %w", id, ErrNotFound)
		}
		return b.Delete(key)
	})
}

// Clear removes every key. The bucket and its sequence are kept so ids are not reused.
func (s *BoltStorage) Clear(ctx context.Context) error {
	return s.update(ctx, "clear", deleteAll)
}

func deleteAll(b *bbolt.Bucket) error {
	var keys [][]byte
	if err := b.ForEach(func(k, _ []byte) error {
		keys = append(keys, append([]byte(nil), k...))
		return nil
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceDocuments clears the bucket and stores docs in one write transaction.
func (s *BoltStorage) ReplaceDocuments(ctx context.Context, docs []*models.Document) ([]int64, error) {
	ids := make([]int64, 0, len(docs))
	err := s.update(ctx, "replace documents", func(b *bbolt.Bucket) error {
		if err := deleteAll(b); err != nil {
			return err
		}
		for _, doc := range docs {
			if err := putDocument(b, doc); err != nil {
				return err
			}
			ids = append(ids, doc.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountDocuments returns the number of keys in the bucket.
func (s *BoltStorage) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	err := s.view(ctx, "count documents", func(b *bbolt.Bucket) error {
		return b.ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n, err
}

// CountChunks decodes every document and sums its chunks.
func (s *BoltStorage) CountChunks(ctx context.Context) (int64, error) {
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, d := range docs {
		n += int64(len(d.Chunks))
	}
	return n, nil
}

// Close closes the database file. Later operations fail with ErrStoreUnavailable.
func (s *BoltStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
