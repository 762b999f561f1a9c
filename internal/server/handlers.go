package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/bunko/internal/extract"
	"github.com/hyperjump/bunko/internal/ingest"
	"github.com/hyperjump/bunko/internal/metadata"
	"github.com/hyperjump/bunko/internal/models"
)

// maxUploadBytes caps document uploads at 50 MiB.
const maxUploadBytes = 50 << 20

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service":           "bunko",
		"status":            "healthy",
		"supported_formats": extract.SupportedExtensions(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload ingests an uploaded file: extract text and metadata, chunk,
// and write to the vector index.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	res, err := s.extractor.ExtractBytes(content, ext)
	if err != nil {
		s.logger.Warn("extraction failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := &models.IngestInput{
		ID:       r.FormValue("document_id"),
		Text:     res.Text,
		Metadata: res.Metadata,
		BaseMetadata: map[string]interface{}{
			"filename":         header.Filename,
			"content_type":     header.Header.Get("Content-Type"),
			"file_type":        strings.TrimPrefix(ext, "."),
			"upload_timestamp": time.Now().Format(time.RFC3339),
		},
	}
	docID, err := s.coordinator.IngestDocument(r.Context(), input)
	if err != nil {
		s.respondIngestError(w, err)
		return
	}
	s.logger.Debug("document uploaded", zap.String("document_id", docID), zap.String("filename", header.Filename))
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"document_id": docID,
		"filename":    header.Filename,
	})
}

// handleIngestText ingests raw text from a JSON body.
func (s *Server) handleIngestText(w http.ResponseWriter, r *http.Request) {
	var input models.IngestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	docID, err := s.coordinator.IngestDocument(r.Context(), &input)
	if err != nil {
		s.respondIngestError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"document_id": docID})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query cannot be empty")
		return
	}
	resp, err := s.aggregator.Query(r.Context(), &req)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.coordinator.DeleteDocument(r.Context(), id)
	if err != nil {
		s.logger.Error("deletion failed", zap.String("document_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Zero removed chunks is still success: deleting nothing is not a failure.
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"document_id":    id,
		"chunks_removed": removed,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	entries, err := s.catalog.List(r.Context(), offset, limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*models.CatalogEntry{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": entries})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := s.idx.Stats(ctx)
	if err != nil {
		s.logger.Error("stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"collection": stats.Name,
		"chunks":     stats.Count,
		"metadata":   stats.Metadata,
	}
	if docCount, err := s.catalog.Count(ctx); err == nil {
		resp["documents"] = docCount
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondIngestError maps ingestion failures: validation problems are the
// caller's fault, anything else is an upstream failure.
func (s *Server) respondIngestError(w http.ResponseWriter, err error) {
	if errors.Is(err, ingest.ErrEmptyDocument) || errors.Is(err, metadata.ErrInvalidDocumentID) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("ingestion failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
