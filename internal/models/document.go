// Package models defines core data structures for documents, chunks, and query results.
package models

import "time"

// Document is one ingested source file: extracted text plus document-level metadata.
// Immutable after chunking; referenced by ID afterwards.
type Document struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Chunk is a bounded contiguous slice of a document's normalized text together
// with its per-chunk metadata, before composition into a ChunkRecord.
type Chunk struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ChunkRecord is the persisted unit written to the vector index: a stable chunk
// ID, the chunk text, and a flat metadata mapping (scalar values only).
type ChunkRecord struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// CatalogEntry records one ingested document in the local catalog.
type CatalogEntry struct {
	ID          string    `json:"id" db:"id"`
	Filename    string    `json:"filename,omitempty" db:"filename"`
	ContentType string    `json:"content_type,omitempty" db:"content_type"`
	ChunkTotal  int       `json:"chunk_total" db:"chunk_total"`
	IngestedAt  time.Time `json:"ingested_at" db:"ingested_at"`
}

// IngestInput is the input for ingesting a document.
type IngestInput struct {
	ID       string                 `json:"id,omitempty"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	// BaseMetadata is caller-supplied metadata merged over the document metadata
	// on key collision (filename, content type, upload time and the like).
	BaseMetadata map[string]interface{} `json:"base_metadata,omitempty"`
}
