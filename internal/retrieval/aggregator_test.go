package retrieval

import (
	"context"
	"testing"

	"github.com/hyperjump/bunko/internal/index"
	"github.com/hyperjump/bunko/internal/metadata"
	"github.com/hyperjump/bunko/internal/models"
)

// stubIndex returns a fixed candidate pool and records the requested k.
type stubIndex struct {
	pool  []models.Candidate
	lastK int
	lastQ string
	stats index.Stats
}

func (s *stubIndex) Query(ctx context.Context, text string, k int, where map[string]interface{}) ([]models.Candidate, error) {
	s.lastQ, s.lastK = text, k
	if k < len(s.pool) {
		return s.pool[:k], nil
	}
	return s.pool, nil
}

func (s *stubIndex) Add(ctx context.Context, ids, texts []string, metadatas []map[string]interface{}) error {
	return nil
}

func (s *stubIndex) Get(ctx context.Context, where map[string]interface{}) ([]string, []map[string]interface{}, error) {
	return nil, nil, nil
}

func (s *stubIndex) Delete(ctx context.Context, ids []string) error { return nil }

func (s *stubIndex) Count(ctx context.Context) (int, error) { return len(s.pool), nil }

func (s *stubIndex) Stats(ctx context.Context) (*index.Stats, error) { return &s.stats, nil }

func (s *stubIndex) Close() error { return nil }

func chunkHit(docID string, chunkIndex int, distance float64) models.Candidate {
	return models.Candidate{
		ID:       metadata.ChunkID(docID, chunkIndex),
		Text:     "chunk text",
		Distance: distance,
		Metadata: map[string]interface{}{
			metadata.KeyDocumentID: docID,
			metadata.KeyChunkIndex: chunkIndex,
			"filename":             docID + ".txt",
		},
	}
}

func TestQuery_ungroupedPassesThrough(t *testing.T) {
	stub := &stubIndex{pool: []models.Candidate{
		chunkHit("a", 0, 0.1),
		chunkHit("b", 0, 0.2),
	}}
	a := NewAggregator(stub)

	resp, err := a.Query(context.Background(), &models.QueryRequest{Query: "hello", TopK: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 || resp.Groups != nil {
		t.Errorf("results=%d groups=%v", len(resp.Results), resp.Groups)
	}
	if stub.lastK != 2 {
		t.Errorf("k passed to index: got %d", stub.lastK)
	}
	if stub.lastQ != "hello" {
		t.Errorf("query passed to index: got %q", stub.lastQ)
	}
}

func TestQuery_emptyQueryFails(t *testing.T) {
	a := NewAggregator(&stubIndex{})
	if _, err := a.Query(context.Background(), &models.QueryRequest{}); err == nil {
		t.Error("empty query should fail")
	}
}

func TestQuery_groupedOverFetchesPool(t *testing.T) {
	stub := &stubIndex{}
	a := NewAggregator(stub)
	if _, err := a.Query(context.Background(), &models.QueryRequest{Query: "q", TopK: 4, GroupByDocument: true}); err != nil {
		t.Fatal(err)
	}
	if stub.lastK != 4*GroupFetchFactor {
		t.Errorf("pool size: got %d, want %d", stub.lastK, 4*GroupFetchFactor)
	}
}

func TestQuery_groupsByDocumentAndTruncates(t *testing.T) {
	stub := &stubIndex{pool: []models.Candidate{
		chunkHit("doc-a", 0, 0.10),
		chunkHit("doc-b", 2, 0.15),
		chunkHit("doc-a", 3, 0.20),
		chunkHit("doc-c", 0, 0.35),
		chunkHit("doc-b", 1, 0.40),
	}}
	a := NewAggregator(stub)

	resp, err := a.Query(context.Background(), &models.QueryRequest{Query: "q", TopK: 2, GroupByDocument: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Groups) != 2 {
		t.Fatalf("groups: got %d", len(resp.Groups))
	}

	first := resp.Groups[0]
	if first.DocumentID != "doc-a" || first.BestDistance != 0.10 {
		t.Errorf("first group: %q best %f", first.DocumentID, first.BestDistance)
	}
	if len(first.Candidates) != 2 {
		t.Errorf("doc-a candidates: got %d", len(first.Candidates))
	}

	second := resp.Groups[1]
	if second.DocumentID != "doc-b" || second.BestDistance != 0.15 {
		t.Errorf("second group: %q best %f", second.DocumentID, second.BestDistance)
	}
	if len(second.Candidates) != 2 {
		t.Errorf("doc-b candidates: got %d", len(second.Candidates))
	}
}

func TestQuery_candidatesSortedWithinGroup(t *testing.T) {
	stub := &stubIndex{pool: []models.Candidate{
		chunkHit("doc", 5, 0.30),
		chunkHit("doc", 1, 0.10),
		chunkHit("doc", 3, 0.20),
	}}
	a := NewAggregator(stub)

	resp, err := a.Query(context.Background(), &models.QueryRequest{Query: "q", TopK: 1, GroupByDocument: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Groups) != 1 {
		t.Fatalf("groups: got %d", len(resp.Groups))
	}
	cands := resp.Groups[0].Candidates
	for i := 1; i < len(cands); i++ {
		if cands[i-1].Distance > cands[i].Distance {
			t.Errorf("candidates out of order: %v", cands)
		}
	}
	if resp.Groups[0].BestDistance != 0.10 {
		t.Errorf("best distance: got %f", resp.Groups[0].BestDistance)
	}
}

func TestQuery_stripsChunkKeysFromGroupMetadata(t *testing.T) {
	stub := &stubIndex{pool: []models.Candidate{chunkHit("doc", 0, 0.1)}}
	a := NewAggregator(stub)

	resp, err := a.Query(context.Background(), &models.QueryRequest{Query: "q", TopK: 1, GroupByDocument: true})
	if err != nil {
		t.Fatal(err)
	}
	meta := resp.Groups[0].Metadata
	if _, ok := meta[metadata.KeyDocumentID]; ok {
		t.Error("document_id should be stripped from group metadata")
	}
	if _, ok := meta[metadata.KeyChunkIndex]; ok {
		t.Error("chunk_index should be stripped from group metadata")
	}
	if meta["filename"] != "doc.txt" {
		t.Errorf("document-level key lost: %v", meta)
	}
	// Candidate-level metadata keeps the full view.
	if resp.Groups[0].Candidates[0].Metadata[metadata.KeyChunkIndex] != 0 {
		t.Error("candidate metadata should keep chunk keys")
	}
}

func TestQuery_missingDocumentIDFormsSingletonGroups(t *testing.T) {
	noDoc := models.Candidate{ID: "x1", Text: "t", Distance: 0.2, Metadata: map[string]interface{}{}}
	noDoc2 := models.Candidate{ID: "x2", Text: "t", Distance: 0.3, Metadata: map[string]interface{}{}}
	stub := &stubIndex{pool: []models.Candidate{noDoc, noDoc2}}
	a := NewAggregator(stub)

	resp, err := a.Query(context.Background(), &models.QueryRequest{Query: "q", TopK: 5, GroupByDocument: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Groups) != 2 {
		t.Fatalf("groups: got %d, want one singleton per candidate", len(resp.Groups))
	}
	for _, g := range resp.Groups {
		if g.DocumentID != "" || len(g.Candidates) != 1 {
			t.Errorf("group: %+v", g)
		}
	}
}

func TestQuery_defaultsTopK(t *testing.T) {
	stub := &stubIndex{}
	a := NewAggregator(stub)
	if _, err := a.Query(context.Background(), &models.QueryRequest{Query: "q"}); err != nil {
		t.Fatal(err)
	}
	if stub.lastK != 3 {
		t.Errorf("default top_k: index received k=%d", stub.lastK)
	}
}
