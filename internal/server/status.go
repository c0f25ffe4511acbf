package server

import (
	"context"
	"fmt"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/storage"
)

// BuildStatus counts documents and chunks in store and, when cfg is set,
// reports the effective configuration and on-disk size.
func BuildStatus(ctx context.Context, store storage.Storage, cfg *config.Config) (*models.Status, error) {
	docCount, err := store.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	chunkCount, err := store.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	status := &models.Status{Documents: docCount, Chunks: chunkCount}
	if cfg == nil {
		return status, nil
	}
	st := cfg.Storage
	status.Config = &models.StatusConfig{
		Backend:      st.Backend,
		DatabasePath: st.DatabasePath,
		ChunkSize:    cfg.Retrieval.ChunkSize,
		ChunkOverlap: cfg.Retrieval.ChunkOverlap,
		TopK:         cfg.Retrieval.TopK,
		MinScore:     cfg.Retrieval.MinScore,
		Model:        cfg.Chat.Model,
		Catalog:      cfg.Catalog.Enabled(),
	}
	if diskBytes, err := storage.DiskUsage(st.Backend, st.DatabasePath); err == nil && diskBytes > 0 {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}
