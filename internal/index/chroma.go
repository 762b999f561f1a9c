// Package index: Chroma REST client implementation.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hyperjump/bunko/internal/models"
)

// ChromaIndex talks to a Chroma server over its REST API. The collection is
// created on first use with cosine space, so distances fall in [0,2] and are
// typically in [0,1] for natural-language text.
type ChromaIndex struct {
	baseURL    string
	collection string
	client     *http.Client

	mu           sync.Mutex
	collectionID string
}

// NewChromaIndex creates a client for the Chroma server at host:port using the
// named collection. The collection is resolved lazily on first use.
func NewChromaIndex(host string, port int, collection string) *ChromaIndex {
	if collection == "" {
		collection = "documents"
	}
	return &ChromaIndex{
		baseURL:    fmt.Sprintf("http://%s:%d/api/v1", host, port),
		collection: collection,
		client:     &http.Client{Timeout: 60 * time.Second},
	}
}

// ensureCollection resolves the collection ID, creating the collection with
// cosine space if it does not exist.
func (c *ChromaIndex) ensureCollection(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.collectionID != "" {
		return c.collectionID, nil
	}
	var created struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "/collections", map[string]interface{}{
		"name":          c.collection,
		"get_or_create": true,
		"metadata":      map[string]interface{}{"hnsw:space": "cosine"},
	}, &created)
	if err != nil {
		return "", fmt.Errorf("get or create collection %q: %w", c.collection, err)
	}
	c.collectionID = created.ID
	return c.collectionID, nil
}

// Add stores chunk records in one batched write.
func (c *ChromaIndex) Add(ctx context.Context, ids, texts []string, metadatas []map[string]interface{}) error {
	if len(ids) != len(texts) || len(ids) != len(metadatas) {
		return fmt.Errorf("ids, texts, and metadatas length mismatch: %d/%d/%d", len(ids), len(texts), len(metadatas))
	}
	collID, err := c.ensureCollection(ctx)
	if err != nil {
		return err
	}
	return c.post(ctx, "/collections/"+collID+"/add", map[string]interface{}{
		"ids":       ids,
		"documents": texts,
		"metadatas": metadatas,
	}, nil)
}

// Query returns up to k candidates sorted ascending by distance.
func (c *ChromaIndex) Query(ctx context.Context, text string, k int, where map[string]interface{}) ([]models.Candidate, error) {
	collID, err := c.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{
		"query_texts": []string{text},
		"n_results":   k,
		"include":     []string{"documents", "metadatas", "distances"},
	}
	if len(where) > 0 {
		body["where"] = where
	}
	var out struct {
		IDs       [][]string                 `json:"ids"`
		Documents [][]string                 `json:"documents"`
		Metadatas [][]map[string]interface{} `json:"metadatas"`
		Distances [][]float64                `json:"distances"`
	}
	if err := c.post(ctx, "/collections/"+collID+"/query", body, &out); err != nil {
		return nil, err
	}
	if len(out.IDs) == 0 {
		return nil, nil
	}
	// The parallel arrays may be null or short when the server omits an
	// include; each is guarded independently.
	candidates := make([]models.Candidate, 0, len(out.IDs[0]))
	for i, id := range out.IDs[0] {
		cand := models.Candidate{ID: id}
		if len(out.Documents) > 0 && i < len(out.Documents[0]) {
			cand.Text = out.Documents[0][i]
		}
		if len(out.Metadatas) > 0 && i < len(out.Metadatas[0]) {
			cand.Metadata = out.Metadatas[0][i]
		}
		if len(out.Distances) > 0 && i < len(out.Distances[0]) {
			cand.Distance = out.Distances[0][i]
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// Get returns ids and metadatas of records matching where.
func (c *ChromaIndex) Get(ctx context.Context, where map[string]interface{}) ([]string, []map[string]interface{}, error) {
	collID, err := c.ensureCollection(ctx)
	if err != nil {
		return nil, nil, err
	}
	body := map[string]interface{}{
		"include": []string{"metadatas"},
	}
	if len(where) > 0 {
		body["where"] = where
	}
	var out struct {
		IDs       []string                 `json:"ids"`
		Metadatas []map[string]interface{} `json:"metadatas"`
	}
	if err := c.post(ctx, "/collections/"+collID+"/get", body, &out); err != nil {
		return nil, nil, err
	}
	return out.IDs, out.Metadatas, nil
}

// Delete removes records by id.
func (c *ChromaIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	collID, err := c.ensureCollection(ctx)
	if err != nil {
		return err
	}
	return c.post(ctx, "/collections/"+collID+"/delete", map[string]interface{}{
		"ids": ids,
	}, nil)
}

// Count returns the number of stored records.
func (c *ChromaIndex) Count(ctx context.Context) (int, error) {
	collID, err := c.ensureCollection(ctx)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/collections/"+collID+"/count", nil)
	if err != nil {
		return 0, err
	}
	var count int
	if err := c.do(req, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Stats returns the collection name, count, and metadata.
func (c *ChromaIndex) Stats(ctx context.Context) (*Stats, error) {
	count, err := c.Count(ctx)
	if err != nil {
		return nil, err
	}
	collID, err := c.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/collections/"+collID, nil)
	if err != nil {
		return nil, err
	}
	var coll struct {
		Name     string                 `json:"name"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := c.do(req, &coll); err != nil {
		return nil, err
	}
	return &Stats{Name: coll.Name, Count: count, Metadata: coll.Metadata}, nil
}

// Close is a no-op; the HTTP client holds no persistent connection state
// worth tearing down explicitly.
func (c *ChromaIndex) Close() error {
	return nil
}

func (c *ChromaIndex) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do sends the request and decodes the response into out. Failures are
// classified into typed kinds at this boundary so callers never inspect
// error strings.
func (c *ChromaIndex) do(req *http.Request, out interface{}) error {
	op := req.Method + " " + req.URL.Path
	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Kind: KindUnavailable, Op: op, Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindUnavailable, Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Kind: classifyStatus(resp.StatusCode, raw), Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw, 200))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindUnavailable, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// classifyStatus maps an error response to a Kind. Chroma surfaces SQLite's
// read-only failure in the error body; that classification happens once here.
func classifyStatus(status int, body []byte) Kind {
	if status == http.StatusNotFound {
		return KindNotFound
	}
	if strings.Contains(strings.ToLower(string(body)), "readonly database") {
		return KindReadOnly
	}
	return KindUnavailable
}

func truncate(raw []byte, n int) string {
	s := string(raw)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
