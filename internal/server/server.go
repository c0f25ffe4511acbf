// Package server provides the HTTP API for kioku.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kioku/internal/catalog"
	"github.com/hyperjump/kioku/internal/chat"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/search"
	"go.uber.org/zap"
)

// Server is the HTTP server for the kioku API.
type Server struct {
	indexer   *indexer.Indexer
	retriever *search.Retriever
	chat      *chat.Service
	sessions  *chat.SessionStore
	catalog   *catalog.Loader
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// ServerOption enables optional parts of the API.
type ServerOption func(*Server)

// WithChat enables the chat endpoints.
func WithChat(svc *chat.Service, sessions *chat.SessionStore) ServerOption {
	return func(s *Server) {
		s.chat = svc
		s.sessions = sessions
	}
}

// WithCatalog enables catalog reloads.
func WithCatalog(loader *catalog.Loader) ServerOption {
	return func(s *Server) { s.catalog = loader }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	idx *indexer.Indexer,
	retriever *search.Retriever,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...ServerOption,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		indexer:   idx,
		retriever: retriever,
		config:    cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.handleCreateDocument)
		r.Get("/documents", s.handleListDocuments)
		r.Delete("/documents", s.handleClearDocuments)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Delete("/documents/{id}", s.handleDeleteDocument)
		r.Post("/retrieve", s.handleRetrieve)
		r.Post("/chat", s.handleChat)
		r.Delete("/chat/{sessionID}", s.handleDeleteSession)
		r.Post("/catalog/reload", s.handleCatalogReload)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
