// Package ingest coordinates document ingestion: chunking, metadata
// composition, and the batched write to the vector index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/bunko/internal/chunker"
	"github.com/hyperjump/bunko/internal/index"
	"github.com/hyperjump/bunko/internal/metadata"
	"github.com/hyperjump/bunko/internal/models"
)

// ErrEmptyDocument is returned when ingestion would write zero chunks.
// It is a validation failure and is never retried.
var ErrEmptyDocument = errors.New("document produced no chunks")

// Recorder is the optional bookkeeping sink for ingested documents.
type Recorder interface {
	Record(ctx context.Context, entry models.CatalogEntry) error
	Remove(ctx context.Context, documentID string) error
}

// Coordinator ingests documents into the vector index. It holds no state
// between calls beyond the injected index handle; concurrent ingests are safe.
// Two concurrent ingests of the same caller-supplied document ID can
// interleave; callers needing per-document exclusivity serialize externally.
type Coordinator struct {
	idx      index.VectorIndex
	splitter *chunker.Splitter
	recorder Recorder
	logger   *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRecorder sets a catalog recorder for ingested documents.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator creates a coordinator writing through idx.
func NewCoordinator(idx index.VectorIndex, splitter *chunker.Splitter, opts ...Option) *Coordinator {
	c := &Coordinator{idx: idx, splitter: splitter}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IngestDocument normalizes and splits the input text, composes chunk records,
// and writes them in one batch. Returns the resolved document ID. Text that
// yields zero chunks fails with ErrEmptyDocument before anything is written.
func (c *Coordinator) IngestDocument(ctx context.Context, input *models.IngestInput) (string, error) {
	texts := c.splitter.Split(input.Text)
	if len(texts) == 0 {
		return "", fmt.Errorf("ingest document: %w", ErrEmptyDocument)
	}
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{Text: text, Metadata: input.Metadata}
	}
	return c.IngestChunks(ctx, chunks, input.ID, input.BaseMetadata)
}

// IngestChunks writes an ordered chunk sequence for one document as a single
// batch: either the whole batch is accepted or the call fails, with no
// per-chunk compensation. Returns the resolved document ID so the caller can
// reference the document later.
func (c *Coordinator) IngestChunks(ctx context.Context, chunks []models.Chunk, documentID string, baseMeta map[string]interface{}) (string, error) {
	if len(chunks) == 0 {
		return "", fmt.Errorf("ingest chunks: %w", ErrEmptyDocument)
	}
	if documentID == "" {
		documentID = metadata.NewDocumentID()
	} else if err := metadata.ValidateDocumentID(documentID); err != nil {
		return "", fmt.Errorf("ingest chunks: %w", err)
	}

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	metas := make([]map[string]interface{}, len(chunks))
	for i, ch := range chunks {
		metas[i], ids[i] = metadata.Compose(ch.Metadata, baseMeta, documentID, i, len(chunks), ch.Text)
		texts[i] = ch.Text
	}

	if err := c.idx.Add(ctx, ids, texts, metas); err != nil {
		return "", fmt.Errorf("write chunks for document %s: %w", documentID, err)
	}
	if c.logger != nil {
		c.logger.Debug("document ingested",
			zap.String("document_id", documentID),
			zap.Int("chunks", len(chunks)),
		)
	}
	c.record(ctx, documentID, len(chunks), baseMeta)
	return documentID, nil
}

// DeleteDocument removes all chunks of a document. A document with zero
// matching chunks is a no-op success, not an error. Returns the number of
// chunks removed. Not atomic with respect to a concurrent ingest of the same
// document ID.
func (c *Coordinator) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	ids, _, err := c.idx.Get(ctx, map[string]interface{}{metadata.KeyDocumentID: documentID})
	if err != nil {
		return 0, fmt.Errorf("find chunks for document %s: %w", documentID, err)
	}
	if len(ids) == 0 {
		c.removeRecord(ctx, documentID)
		return 0, nil
	}
	if err := c.idx.Delete(ctx, ids); err != nil {
		return 0, fmt.Errorf("delete chunks for document %s: %w", documentID, err)
	}
	if c.logger != nil {
		c.logger.Debug("document deleted",
			zap.String("document_id", documentID),
			zap.Int("chunks", len(ids)),
		)
	}
	c.removeRecord(ctx, documentID)
	return len(ids), nil
}

// record writes catalog bookkeeping. Failures are logged, not surfaced: the
// index write already succeeded and the catalog is not the source of truth.
func (c *Coordinator) record(ctx context.Context, documentID string, chunkTotal int, baseMeta map[string]interface{}) {
	if c.recorder == nil {
		return
	}
	entry := models.CatalogEntry{
		ID:         documentID,
		ChunkTotal: chunkTotal,
		IngestedAt: time.Now(),
	}
	if v, ok := baseMeta["filename"].(string); ok {
		entry.Filename = v
	}
	if v, ok := baseMeta["content_type"].(string); ok {
		entry.ContentType = v
	}
	if err := c.recorder.Record(ctx, entry); err != nil && c.logger != nil {
		c.logger.Warn("catalog record failed", zap.String("document_id", documentID), zap.Error(err))
	}
}

func (c *Coordinator) removeRecord(ctx context.Context, documentID string) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Remove(ctx, documentID); err != nil && c.logger != nil {
		c.logger.Warn("catalog remove failed", zap.String("document_id", documentID), zap.Error(err))
	}
}
