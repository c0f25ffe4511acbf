package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kioku/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. Use ":memory:" for a private
// in-memory database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrStoreUnavailable)
	}
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: transactions serialize writers and a :memory: database
	// stays the same database for the lifetime of the store.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_title ON documents(title);
	CREATE INDEX IF NOT EXISTS idx_documents_timestamp ON documents(timestamp);

	CREATE TABLE IF NOT EXISTS document_chunks (
		document_id INTEGER NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		PRIMARY KEY (document_id, chunk_index),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// withTx runs fn in a transaction and wraps any failure in a *TxError.
func (s *SQLiteStorage) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrStoreUnavailable
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return txError(op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return txError(op, err)
	}
	return txError(op, tx.Commit())
}

// CreateDocument inserts a document and its chunks.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) (int64, error) {
	err := s.withTx(ctx, "create document", func(tx *sql.Tx) error {
		return insertDocument(ctx, tx, doc)
	})
	if err != nil {
		return 0, err
	}
	return doc.ID, nil
}

func insertDocument(ctx context.Context, tx *sql.Tx, doc *models.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents (title, content, metadata, timestamp) VALUES (?, ?, ?, ?)`,
		doc.Title, doc.Content, string(metadataJSON), doc.Timestamp,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO document_chunks (document_id, chunk_index, content) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, chunk := range doc.Chunks {
		if _, err := stmt.ExecContext(ctx, id, i, chunk); err != nil {
			return err
		}
	}
	doc.ID = id
	return nil
}

// GetDocument returns a document by id with its chunks.
func (s *SQLiteStorage) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	var doc *models.Document
	err := s.withTx(ctx, "get document", func(tx *sql.Tx) error {
		var d models.Document
		var metadataJSON sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT id, title, content, metadata, timestamp FROM documents WHERE id = ?`, id,
		).Scan(&d.ID, &d.Title, &d.Content, &metadataJSON, &d.Timestamp)
		if err == sql.ErrNoRows {
			return fmt.Errorf("document %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := decodeMetadata(metadataJSON, &d); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT content FROM document_chunks WHERE document_id = ? ORDER BY chunk_index`, id,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		d.Chunks = []string{}
		for rows.Next() {
			var chunk string
			if err := rows.Scan(&chunk); err != nil {
				return err
			}
			d.Chunks = append(d.Chunks, chunk)
		}
		doc = &d
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns all documents with their chunks, ordered by id.
func (s *SQLiteStorage) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	var docs []*models.Document
	err := s.withTx(ctx, "list documents", func(tx *sql.Tx) error {
		var err error
		docs, err = listDocuments(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func listDocuments(ctx context.Context, tx *sql.Tx) ([]*models.Document, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, title, content, metadata, timestamp FROM documents ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	docs := make([]*models.Document, 0)
	byID := make(map[int64]*models.Document)
	for rows.Next() {
		var d models.Document
		var metadataJSON sql.NullString
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &metadataJSON, &d.Timestamp); err != nil {
			rows.Close()
			return nil, err
		}
		if err := decodeMetadata(metadataJSON, &d); err != nil {
			rows.Close()
			return nil, err
		}
		d.Chunks = []string{}
		docs = append(docs, &d)
		byID[d.ID] = &d
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	chunkRows, err := tx.QueryContext(ctx,
		`SELECT document_id, content FROM document_chunks ORDER BY document_id, chunk_index`,
	)
	if err != nil {
		return nil, err
	}
	defer chunkRows.Close()
	for chunkRows.Next() {
		var docID int64
		var chunk string
		if err := chunkRows.Scan(&docID, &chunk); err != nil {
			return nil, err
		}
		if d, ok := byID[docID]; ok {
			d.Chunks = append(d.Chunks, chunk)
		}
	}
	return docs, chunkRows.Err()
}

func decodeMetadata(raw sql.NullString, doc *models.Document) error {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw.String), &doc.Metadata); err != nil {
		return fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return nil
}

// DeleteDocument removes a document and its chunks.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, id int64) error {
	return s.withTx(ctx, "delete document", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("document %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Clear removes all documents. AUTOINCREMENT keeps ids from being reused.
func (s *SQLiteStorage) Clear(ctx context.Context) error {
	return s.withTx(ctx, "clear", clearTables(ctx))
}

func clearTables(ctx context.Context) func(tx *sql.Tx) error {
	return func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM documents`)
		return err
	}
}

// ReplaceDocuments clears both tables and inserts docs in one transaction.
func (s *SQLiteStorage) ReplaceDocuments(ctx context.Context, docs []*models.Document) ([]int64, error) {
	ids := make([]int64, 0, len(docs))
	err := s.withTx(ctx, "replace documents", func(tx *sql.Tx) error {
		if err := clearTables(ctx)(tx); err != nil {
			return err
		}
		for _, doc := range docs {
			if err := insertDocument(ctx, tx, doc); err != nil {
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

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	return s.count(ctx, "count documents", `SELECT COUNT(*) FROM documents`)
}

// CountChunks returns the total number of chunks.
func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	return s.count(ctx, "count chunks", `SELECT COUNT(*) FROM document_chunks`)
}

func (s *SQLiteStorage) count(ctx context.Context, op, query string) (int64, error) {
	var count int64
	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query).Scan(&count)
	})
	return count, err
}

// Close closes the database connection. Later operations fail with ErrStoreUnavailable.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
