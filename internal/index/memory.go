// Package index: in-memory implementation for tests and single-process use.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/hyperjump/bunko/internal/models"
)

// MemoryIndex is an in-process vector index using brute-force cosine
// similarity over term-frequency vectors. Suitable for tests and small
// datasets; distances are 1 - cosine, so they fall in [0,1].
type MemoryIndex struct {
	name    string
	mu      sync.RWMutex
	ids     []string
	texts   []string
	metas   []map[string]interface{}
	vectors []map[string]float64
}

// NewMemoryIndex creates an empty in-memory index for the named collection.
func NewMemoryIndex(name string) *MemoryIndex {
	if name == "" {
		name = "documents"
	}
	return &MemoryIndex{name: name}
}

// Add stores records, replacing any existing record with the same id.
func (m *MemoryIndex) Add(ctx context.Context, ids, texts []string, metadatas []map[string]interface{}) error {
	if len(ids) != len(texts) || len(ids) != len(metadatas) {
		return fmt.Errorf("ids, texts, and metadatas length mismatch: %d/%d/%d", len(ids), len(texts), len(metadatas))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		vec := termFrequencyVector(texts[i])
		if at := m.indexOfLocked(id); at >= 0 {
			m.texts[at] = texts[i]
			m.metas[at] = metadatas[i]
			m.vectors[at] = vec
			continue
		}
		m.ids = append(m.ids, id)
		m.texts = append(m.texts, texts[i])
		m.metas = append(m.metas, metadatas[i])
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Query returns up to k candidates sorted ascending by distance. Ties keep
// insertion order.
func (m *MemoryIndex) Query(ctx context.Context, text string, k int, where map[string]interface{}) ([]models.Candidate, error) {
	if k <= 0 {
		return nil, nil
	}
	queryVec := termFrequencyVector(text)
	m.mu.RLock()
	defer m.mu.RUnlock()
	candidates := make([]models.Candidate, 0, len(m.ids))
	for i, id := range m.ids {
		if where != nil && !matchWhere(m.metas[i], where) {
			continue
		}
		candidates = append(candidates, models.Candidate{
			ID:       id,
			Text:     m.texts[i],
			Metadata: m.metas[i],
			Distance: cosineDistance(queryVec, m.vectors[i]),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Distance < candidates[j].Distance
	})
	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// Get returns ids and metadatas of records matching where.
func (m *MemoryIndex) Get(ctx context.Context, where map[string]interface{}) ([]string, []map[string]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	var metas []map[string]interface{}
	for i, id := range m.ids {
		if where != nil && !matchWhere(m.metas[i], where) {
			continue
		}
		ids = append(ids, id)
		metas = append(metas, m.metas[i])
	}
	return ids, metas, nil
}

// Delete removes records by id. Unknown ids are ignored.
func (m *MemoryIndex) Delete(ctx context.Context, ids []string) error {
	removeSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		removeSet[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	newIDs := m.ids[:0]
	newTexts := m.texts[:0]
	newMetas := m.metas[:0]
	newVectors := m.vectors[:0]
	for i, id := range m.ids {
		if removeSet[id] {
			continue
		}
		newIDs = append(newIDs, id)
		newTexts = append(newTexts, m.texts[i])
		newMetas = append(newMetas, m.metas[i])
		newVectors = append(newVectors, m.vectors[i])
	}
	m.ids, m.texts, m.metas, m.vectors = newIDs, newTexts, newMetas, newVectors
	return nil
}

// Count returns the number of stored records.
func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids), nil
}

// Stats returns the collection name and record count.
func (m *MemoryIndex) Stats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &Stats{Name: m.name, Count: len(m.ids)}, nil
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}

func (m *MemoryIndex) indexOfLocked(id string) int {
	for i, existing := range m.ids {
		if existing == id {
			return i
		}
	}
	return -1
}

// termFrequencyVector returns an L2-normalized bag-of-words vector.
func termFrequencyVector(text string) map[string]float64 {
	vec := make(map[string]float64)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()[]")
		if word != "" {
			vec[word]++
		}
	}
	var norm float64
	for _, count := range vec {
		norm += count * count
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for word := range vec {
			vec[word] /= norm
		}
	}
	return vec
}

// cosineDistance returns 1 - cosine similarity of two normalized vectors,
// clamped to [0,1].
func cosineDistance(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for word, weight := range a {
		dot += weight * b[word]
	}
	return math.Max(0, math.Min(1, 1-dot))
}
