package index

import (
	"context"
	"testing"
)

func addRecord(t *testing.T, idx *MemoryIndex, id, text string, meta map[string]interface{}) {
	t.Helper()
	if meta == nil {
		meta = map[string]interface{}{}
	}
	if err := idx.Add(context.Background(), []string{id}, []string{text}, []map[string]interface{}{meta}); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryIndex_addAndCount(t *testing.T) {
	idx := NewMemoryIndex("test")
	ctx := context.Background()
	addRecord(t, idx, "a", "first text", nil)
	addRecord(t, idx, "b", "second text", nil)
	n, err := idx.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count: got %d", n)
	}
}

func TestMemoryIndex_addLengthMismatch(t *testing.T) {
	idx := NewMemoryIndex("test")
	err := idx.Add(context.Background(), []string{"a", "b"}, []string{"one"}, nil)
	if err == nil {
		t.Error("mismatched slice lengths should fail")
	}
}

func TestMemoryIndex_upsertReplacesSameID(t *testing.T) {
	idx := NewMemoryIndex("test")
	ctx := context.Background()
	addRecord(t, idx, "a", "old text", map[string]interface{}{"v": 1})
	addRecord(t, idx, "a", "new text", map[string]interface{}{"v": 2})
	n, _ := idx.Count(ctx)
	if n != 1 {
		t.Fatalf("count after upsert: got %d", n)
	}
	got, err := idx.Query(ctx, "new text", 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Text != "new text" {
		t.Errorf("got %+v", got)
	}
}

func TestMemoryIndex_queryRanksBySimilarity(t *testing.T) {
	idx := NewMemoryIndex("test")
	ctx := context.Background()
	addRecord(t, idx, "cats", "the cat sat on the mat", nil)
	addRecord(t, idx, "dogs", "dogs play fetch in the park", nil)
	addRecord(t, idx, "fish", "fish swim in the deep ocean", nil)

	got, err := idx.Query(ctx, "cat on a mat", 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d results", len(got))
	}
	if got[0].ID != "cats" {
		t.Errorf("best match: got %q", got[0].ID)
	}
	for i, c := range got {
		if c.Distance < 0 || c.Distance > 1 {
			t.Errorf("distance out of range: %f", c.Distance)
		}
		if i > 0 && got[i-1].Distance > c.Distance {
			t.Error("results not sorted ascending by distance")
		}
	}
}

func TestMemoryIndex_queryTruncatesToK(t *testing.T) {
	idx := NewMemoryIndex("test")
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		addRecord(t, idx, id, "shared words here", nil)
	}
	got, err := idx.Query(ctx, "shared words", 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d results", len(got))
	}
	if got, _ := idx.Query(ctx, "shared words", 0, nil); got != nil {
		t.Errorf("k=0 should return nothing, got %v", got)
	}
}

func TestMemoryIndex_queryWhereFilter(t *testing.T) {
	idx := NewMemoryIndex("test")
	ctx := context.Background()
	addRecord(t, idx, "a", "alpha text", map[string]interface{}{"document_id": "doc1"})
	addRecord(t, idx, "b", "alpha text", map[string]interface{}{"document_id": "doc2"})

	got, err := idx.Query(ctx, "alpha", 10, map[string]interface{}{"document_id": "doc1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("got %+v", got)
	}
}

func TestMemoryIndex_whereMatchesNumbersAcrossTypes(t *testing.T) {
	idx := NewMemoryIndex("test")
	ctx := context.Background()
	addRecord(t, idx, "a", "some text", map[string]interface{}{"chunk_index": 1})

	// JSON round trips integers as float64; filtering must still match.
	ids, _, err := idx.Get(ctx, map[string]interface{}{"chunk_index": float64(1)})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Errorf("float64 filter on int metadata: got %v", ids)
	}
}

func TestMemoryIndex_getAllWhenWhereNil(t *testing.T) {
	idx := NewMemoryIndex("test")
	ctx := context.Background()
	addRecord(t, idx, "a", "one", nil)
	addRecord(t, idx, "b", "two", nil)
	ids, metas, err := idx.Get(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || len(metas) != 2 {
		t.Errorf("got %v", ids)
	}
}

func TestMemoryIndex_delete(t *testing.T) {
	idx := NewMemoryIndex("test")
	ctx := context.Background()
	addRecord(t, idx, "a", "one", nil)
	addRecord(t, idx, "b", "two", nil)
	if err := idx.Delete(ctx, []string{"a", "unknown"}); err != nil {
		t.Fatal(err)
	}
	n, _ := idx.Count(ctx)
	if n != 1 {
		t.Errorf("count after delete: got %d", n)
	}
	ids, _, _ := idx.Get(ctx, nil)
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("remaining: got %v", ids)
	}
}

func TestMemoryIndex_stats(t *testing.T) {
	idx := NewMemoryIndex("")
	addRecord(t, idx, "a", "one", nil)
	stats, err := idx.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Name != "documents" {
		t.Errorf("default collection name: got %q", stats.Name)
	}
	if stats.Count != 1 {
		t.Errorf("count: got %d", stats.Count)
	}
}
