// Package index abstracts the external vector index service: embedding-based
// storage and nearest-neighbor search over chunk records.
package index

import (
	"context"

	"github.com/hyperjump/bunko/internal/models"
)

// VectorIndex is the capability handle for the external vector index. Query
// results are sorted ascending by distance; distances are comparable within
// one call but carry no cross-call scale guarantee. Implementations must be
// safe for concurrent use.
type VectorIndex interface {
	// Add stores the given chunk records. ids, texts, and metadatas are
	// parallel slices.
	Add(ctx context.Context, ids, texts []string, metadatas []map[string]interface{}) error
	// Query returns up to k candidates for text, most similar first.
	// where optionally filters candidates by exact metadata match.
	Query(ctx context.Context, text string, k int, where map[string]interface{}) ([]models.Candidate, error)
	// Get returns the ids and metadatas of records matching where
	// (all records when where is nil).
	Get(ctx context.Context, where map[string]interface{}) ([]string, []map[string]interface{}, error)
	// Delete removes the records with the given ids. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
	// Stats returns collection name and metadata.
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// Stats describes the index collection.
type Stats struct {
	Name     string                 `json:"name"`
	Count    int                    `json:"count"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// matchWhere reports whether meta satisfies every key/value pair in where.
// Numbers compare by value across int and float representations.
func matchWhere(meta, where map[string]interface{}) bool {
	for key, want := range where {
		got, ok := meta[key]
		if !ok || !scalarEqual(got, want) {
			return false
		}
	}
	return true
}

func scalarEqual(a, b interface{}) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return a == b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
