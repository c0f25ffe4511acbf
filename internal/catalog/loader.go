package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/watcher"
	"go.uber.org/zap"
)

// Loader replaces the knowledge base with the products of a source.
type Loader struct {
	source  Source
	indexer *indexer.Indexer
	logger  *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

// NewLoader creates a loader that writes through idx.
func NewLoader(source Source, idx *indexer.Indexer, opts ...LoaderOption) *Loader {
	ld := &Loader{source: source, indexer: idx, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Reload fetches all products and swaps them in as one atomic replace. When
// fetching fails the knowledge base is left as it was. It returns the number
// of documents stored.
func (ld *Loader) Reload(ctx context.Context) (int, error) {
	products, err := ld.source.Products(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}
	inputs := make([]*models.DocumentInput, len(products))
	for i, p := range products {
		inputs[i] = p.Input()
	}
	ids, err := ld.indexer.Replace(ctx, inputs)
	if err != nil {
		return 0, err
	}
	ld.logger.Info("catalog loaded", zap.String("source", ld.source.Name()), zap.Int("products", len(ids)))
	return len(ids), nil
}

// Watch reloads the catalog whenever the file at path changes. The watcher
// stops when ctx is done.
func (ld *Loader) Watch(ctx context.Context, path string, opts ...watcher.WatcherOption) (*watcher.Watcher, error) {
	onChange := func(changed string) {
		if _, err := ld.Reload(ctx); err != nil {
			ld.logger.Warn("catalog reload failed", zap.String("path", changed), zap.Error(err))
		}
	}
	opts = append([]watcher.WatcherOption{watcher.WithLogger(ld.logger)}, opts...)
	w, err := watcher.NewWatcher([]string{filepath.Clean(path)}, onChange, opts...)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("watch catalog: %w", err)
	}
	ld.logger.Info("watching catalog", zap.String("path", path))
	return w, nil
}
