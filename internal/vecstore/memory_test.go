package vecstore

import (
	"context"
	"testing"
)

func TestMemoryIndexRanking(t *testing.T) {
	idx := NewMemoryIndex(3)
	ctx := context.Background()

	docs := map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
		"c": {0.7, 0.7, 0},
	}
	for id, vec := range docs {
		if err := idx.Upsert(ctx, id, vec, map[string]string{"content": id}); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].DocID != "a" {
		t.Fatalf("top result = %s, want a", results[0].DocID)
	}
	if results[0].Score < results[1].Score {
		t.Fatalf("results not ordered by descending score")
	}
}

func TestMemoryIndexFewerThanK(t *testing.T) {
	idx := NewMemoryIndex(2)
	ctx := context.Background()

	if err := idx.Upsert(ctx, "only", []float32{1, 0}, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	results, err := idx.Search(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestMemoryIndexUpsertReplaces(t *testing.T) {
	idx := NewMemoryIndex(2)
	ctx := context.Background()

	if err := idx.Upsert(ctx, "doc", []float32{1, 0}, map[string]string{"content": "old"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := idx.Upsert(ctx, "doc", []float32{0, 1}, map[string]string{"content": "new"}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	if idx.Len() != 1 {
		t.Fatalf("upsert duplicated the document: len=%d", idx.Len())
	}
	results, err := idx.Search(ctx, []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results[0].Content != "new" {
		t.Fatalf("content = %q, want new", results[0].Content)
	}
	if results[0].Score != 1 {
		t.Fatalf("replaced vector not used: score=%f", results[0].Score)
	}
}

func TestMemoryIndexEmpty(t *testing.T) {
	idx := NewMemoryIndex(2)
	results, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	idx := NewMemoryIndex(3)
	if err := idx.Upsert(context.Background(), "doc", []float32{1, 0}, nil); err == nil {
		t.Fatalf("expected dimension mismatch error")
	}
}
