// Package retrieval runs semantic queries against the vector index and groups
// chunk hits back into parent-document results.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/bunko/internal/index"
	"github.com/hyperjump/bunko/internal/metadata"
	"github.com/hyperjump/bunko/internal/models"
)

// GroupFetchFactor is the over-fetch multiplier for grouped queries: k groups
// are selected from a pool of GroupFetchFactor*k chunk candidates so that k
// distinct documents are almost always present even when several top
// candidates share a parent. Fixed; sparse corpora yield fewer groups rather
// than triggering a larger fetch.
const GroupFetchFactor = 3

// Aggregator answers retrieval requests. Stateless between calls.
type Aggregator struct {
	idx    index.VectorIndex
	logger *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// NewAggregator creates an aggregator reading from idx.
func NewAggregator(idx index.VectorIndex, opts ...Option) *Aggregator {
	a := &Aggregator{idx: idx}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Query validates the request and returns either the index's chunk-level
// ranking (ungrouped) or a document-grouped ranking. Grouped results are
// ranked by each document's best-matching chunk and truncated to TopK groups;
// fewer groups are returned when the pool holds fewer distinct documents.
func (a *Aggregator) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp := &models.QueryResponse{Query: req.Query}
	if !req.GroupByDocument {
		candidates, err := a.idx.Query(ctx, req.Query, req.TopK, req.Where)
		if err != nil {
			return nil, fmt.Errorf("query index: %w", err)
		}
		resp.Results = candidates
		resp.QueryTime = time.Since(start).Milliseconds()
		return resp, nil
	}

	pool, err := a.idx.Query(ctx, req.Query, req.TopK*GroupFetchFactor, req.Where)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	groups := groupByDocument(pool)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].BestDistance < groups[j].BestDistance
	})
	if req.TopK < len(groups) {
		groups = groups[:req.TopK]
	}
	for g := range groups {
		candidates := groups[g].Candidates
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Distance < candidates[j].Distance
		})
	}
	if a.logger != nil {
		a.logger.Debug("grouped query",
			zap.String("query", req.Query),
			zap.Int("pool", len(pool)),
			zap.Int("groups", len(groups)),
		)
	}
	resp.Groups = groups
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

// groupByDocument buckets candidates by their document_id metadata, preserving
// pool order (distance-ascending) for group creation so ties keep index order.
// A candidate with no document_id forms its own singleton group. Every
// candidate is kept; none are dropped within a group.
func groupByDocument(pool []models.Candidate) []models.GroupedResult {
	var groups []models.GroupedResult
	byID := make(map[string]int)
	for _, cand := range pool {
		docID, _ := cand.Metadata[metadata.KeyDocumentID].(string)
		at, seen := byID[docID]
		if docID == "" || !seen {
			groups = append(groups, models.GroupedResult{
				DocumentID:   docID,
				Metadata:     documentMetadata(cand.Metadata),
				Candidates:   []models.Candidate{cand},
				BestDistance: cand.Distance,
			})
			if docID != "" {
				byID[docID] = len(groups) - 1
			}
			continue
		}
		g := &groups[at]
		g.Candidates = append(g.Candidates, cand)
		if cand.Distance < g.BestDistance {
			g.BestDistance = cand.Distance
		}
	}
	return groups
}

// documentMetadata returns the document-level view of a chunk's flat metadata:
// everything except the chunk-scoped derived keys and the linkage key.
func documentMetadata(meta map[string]interface{}) map[string]interface{} {
	doc := make(map[string]interface{}, len(meta))
	for key, value := range meta {
		if key == metadata.KeyDocumentID || strings.HasPrefix(key, metadata.ChunkScopedPrefix) {
			continue
		}
		doc[key] = value
	}
	return doc
}
