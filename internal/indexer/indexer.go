package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/kioku/internal/extract"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/storage"
	"go.uber.org/zap"
)

const (
	metaKeyType       = "type"
	metaKeySourcePath = "source_path"
	metaKeySourceSize = "source_size"
	docTypeFile       = "file"
)

// Indexer chunks documents and writes them to the document store.
type Indexer struct {
	storage   storage.Storage
	chunker   *Chunker
	extractor *extract.Extractor
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (document added, file indexed, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithExtractor sets the extractor used by AddFile. Without one, files are read as text.
func WithExtractor(e *extract.Extractor) IndexerOption {
	return func(idx *Indexer) { idx.extractor = e }
}

// NewIndexer creates an indexer that chunks with chunkSize and overlap words.
func NewIndexer(store storage.Storage, chunkSize, overlap int, opts ...IndexerOption) (*Indexer, error) {
	chunker, err := NewChunker(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	idx := &Indexer{
		storage: store,
		chunker: chunker,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// Storage returns the underlying document store.
func (idx *Indexer) Storage() storage.Storage { return idx.storage }

// Build turns input into a document with chunks and the current timestamp. It
// does not store it. Content without words yields a document with no chunks.
func (idx *Indexer) Build(input *models.DocumentInput) *models.Document {
	chunks := idx.chunker.Chunk(input.Content)
	if chunks == nil {
		chunks = []string{}
	}
	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return &models.Document{
		Title:     input.Title,
		Content:   input.Content,
		Chunks:    chunks,
		Metadata:  metadata,
		Timestamp: models.NowMillis(),
	}
}

// Add chunks and stores one document and returns its id.
func (idx *Indexer) Add(ctx context.Context, title, content string, metadata map[string]interface{}) (int64, error) {
	return idx.AddInput(ctx, &models.DocumentInput{Title: title, Content: content, Metadata: metadata})
}

// AddInput is Add for a DocumentInput.
func (idx *Indexer) AddInput(ctx context.Context, input *models.DocumentInput) (int64, error) {
	doc := idx.Build(input)
	id, err := idx.storage.CreateDocument(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("failed to store document: %w", err)
	}
	idx.logger.Debug("indexer document added",
		zap.Int64("id", id),
		zap.String("title", doc.Title),
		zap.Int("chunks", len(doc.Chunks)))
	return id, nil
}

// AddFile extracts the text of the file at path and stores it. An empty title
// defaults to the file name.
func (idx *Indexer) AddFile(ctx context.Context, path, title string) (int64, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", absPath)
	}
	idx.logger.Debug("indexer indexing file", zap.String("path", absPath))

	text, err := idx.extractContent(absPath)
	if err != nil {
		return 0, fmt.Errorf("extract content: %w", err)
	}
	if strings.TrimSpace(title) == "" {
		title = filepath.Base(absPath)
	}
	id, err := idx.AddInput(ctx, &models.DocumentInput{
		Title:   title,
		Content: text,
		Metadata: map[string]interface{}{
			metaKeyType:       docTypeFile,
			metaKeySourcePath: absPath,
			metaKeySourceSize: info.Size(),
		},
	})
	if err != nil {
		return 0, err
	}
	idx.logger.Info("indexer file indexed", zap.String("path", absPath), zap.Int64("id", id))
	return id, nil
}

func (idx *Indexer) extractContent(path string) (string, error) {
	if idx.extractor != nil {
		return idx.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Replace clears the store and adds inputs as a single atomic unit.
func (idx *Indexer) Replace(ctx context.Context, inputs []*models.DocumentInput) ([]int64, error) {
	docs := make([]*models.Document, 0, len(inputs))
	for _, in := range inputs {
		docs = append(docs, idx.Build(in))
	}
	ids, err := idx.storage.ReplaceDocuments(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to replace documents: %w", err)
	}
	idx.logger.Info("indexer documents replaced", zap.Int("count", len(ids)))
	return ids, nil
}

// SeedIfEmpty adds seeds only when the store holds no documents. It returns the
// number of documents added.
func (idx *Indexer) SeedIfEmpty(ctx context.Context, seeds []*models.DocumentInput) (int, error) {
	if len(seeds) == 0 {
		return 0, nil
	}
	n, err := idx.storage.CountDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	added := 0
	for _, seed := range seeds {
		if _, err := idx.AddInput(ctx, seed); err != nil {
			return added, fmt.Errorf("failed to seed %q: %w", seed.Title, err)
		}
		added++
	}
	idx.logger.Info("indexer seeded empty knowledge base", zap.Int("count", added))
	return added, nil
}

// Delete removes a document by id. A missing id is reported as storage.ErrNotFound.
func (idx *Indexer) Delete(ctx context.Context, id int64) error {
	if err := idx.storage.DeleteDocument(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			idx.logger.Debug("indexer document already absent", zap.Int64("id", id))
		}
		return err
	}
	idx.logger.Debug("indexer document deleted", zap.Int64("id", id))
	return nil
}

// Clear removes every document.
func (idx *Indexer) Clear(ctx context.Context) error {
	if err := idx.storage.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	idx.logger.Info("indexer knowledge base cleared")
	return nil
}

// GetAll returns every stored document.
func (idx *Indexer) GetAll(ctx context.Context) ([]*models.Document, error) {
	return idx.storage.ListDocuments(ctx)
}
