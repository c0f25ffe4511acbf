package main

import (
	"fmt"
	"time"

	"github.com/hyperjump/kioku/internal/catalog"
	"github.com/hyperjump/kioku/internal/chat"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/extract"
	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/llm"
	"github.com/hyperjump/kioku/internal/search"
	"github.com/hyperjump/kioku/internal/storage"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Storage   storage.Storage
	Indexer   *indexer.Indexer
	Retriever *search.Retriever
	Chat      *chat.Service
	LLM       *llm.OpenAIClient
	Catalog   *catalog.Loader
}

// Close releases the store.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Components log only in debug mode.
	compLogger := zap.NewNop()
	if debug && logger != nil {
		compLogger = logger
	}

	idx, err := indexer.NewIndexer(store, cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap,
		indexer.WithLogger(compLogger),
		indexer.WithExtractor(extract.NewExtractor()),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize indexer: %w", err)
	}

	retriever := search.NewRetriever(store,
		search.WithLogger(compLogger),
		search.WithDefaultTopK(cfg.Retrieval.TopK),
		search.WithMinScore(cfg.Retrieval.MinScore),
	)

	client := llm.NewOpenAIClient(llm.Config{
		APIKey:      cfg.Chat.APIKey,
		BaseURL:     cfg.Chat.BaseURL,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
		Referer:     cfg.Chat.Referer,
		Title:       cfg.Chat.Title,
		Timeout:     time.Duration(cfg.Chat.TimeoutSec) * time.Second,
	}, llm.WithLogger(compLogger))

	svc := chat.NewService(retriever, client,
		chat.WithLogger(compLogger),
		chat.WithTopK(cfg.Retrieval.TopK),
		chat.WithHistoryLimit(cfg.Chat.HistoryLimit),
	)

	c := &Components{
		Storage:   store,
		Indexer:   idx,
		Retriever: retriever,
		Chat:      svc,
		LLM:       client,
	}
	if src := newCatalogSource(&cfg.Catalog, compLogger); src != nil {
		c.Catalog = catalog.NewLoader(src, idx, catalog.WithLogger(compLogger))
	}
	return c, nil
}

// newCatalogSource returns the configured catalog source: the URL first, then
// the file. It returns nil when neither is set.
func newCatalogSource(cfg *config.CatalogConfig, logger *zap.Logger) catalog.Source {
	var sources []catalog.Source
	if cfg.URL != "" {
		sources = append(sources, &catalog.HTTPSource{URL: cfg.URL, APIKey: cfg.URLAPIKey})
	}
	if cfg.Path != "" {
		sources = append(sources, &catalog.FileSource{Path: cfg.Path})
	}
	switch len(sources) {
	case 0:
		return nil
	case 1:
		return sources[0]
	default:
		return &catalog.FallbackSource{Sources: sources, Logger: logger}
	}
}
