// Package server provides the HTTP API for bunko.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/bunko/internal/catalog"
	"github.com/hyperjump/bunko/internal/config"
	"github.com/hyperjump/bunko/internal/extract"
	"github.com/hyperjump/bunko/internal/index"
	"github.com/hyperjump/bunko/internal/ingest"
	"github.com/hyperjump/bunko/internal/retrieval"
)

// Server is the HTTP server for the bunko API.
type Server struct {
	coordinator *ingest.Coordinator
	aggregator  *retrieval.Aggregator
	extractor   *extract.Extractor
	catalog     *catalog.Catalog
	idx         index.VectorIndex
	config      *config.ServerConfig
	logger      *zap.Logger
	server      *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	coordinator *ingest.Coordinator,
	aggregator *retrieval.Aggregator,
	extractor *extract.Extractor,
	cat *catalog.Catalog,
	idx index.VectorIndex,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		coordinator: coordinator,
		aggregator:  aggregator,
		extractor:   extractor,
		catalog:     cat,
		idx:         idx,
		config:      cfg,
		logger:      logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler: s.routes(),
	}
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.handleUpload)
		r.Post("/documents/text", s.handleIngestText)
		r.Get("/documents", s.handleListDocuments)
		r.Delete("/documents/{id}", s.handleDeleteDocument)
		r.Post("/query", s.handleQuery)
		r.Get("/stats", s.handleStats)
	})
	return r
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
