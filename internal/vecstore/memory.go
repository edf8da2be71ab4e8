package vecstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memoryEntry struct {
	docID    string
	vector   []float32
	metadata map[string]string
}

// MemoryIndex is an in-memory brute-force inner-product index. It is the
// default backend for demos and tests.
type MemoryIndex struct {
	mu      sync.RWMutex
	dim     int
	entries []memoryEntry
	byID    map[string]int
}

// NewMemoryIndex constructs an empty index expecting vectors of the given
// dimension (0 accepts the first inserted dimension).
func NewMemoryIndex(dim int) *MemoryIndex {
	return &MemoryIndex{dim: dim, byID: make(map[string]int)}
}

// Upsert stores or replaces the vector and metadata for a document id.
func (m *MemoryIndex) Upsert(ctx context.Context, docID string, vector []float32, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if docID == "" {
		return fmt.Errorf("doc id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dim == 0 {
		m.dim = len(vector)
	}
	if len(vector) != m.dim {
		return fmt.Errorf("vector dimension %d does not match index dimension %d", len(vector), m.dim)
	}

	vec := append([]float32(nil), vector...)
	if idx, ok := m.byID[docID]; ok {
		m.entries[idx] = memoryEntry{docID: docID, vector: vec, metadata: metadata}
		return nil
	}
	m.byID[docID] = len(m.entries)
	m.entries = append(m.entries, memoryEntry{docID: docID, vector: vec, metadata: metadata})
	return nil
}

// Search returns up to topK entries ranked by descending inner product.
// Fewer candidates than topK returns all available, ranked.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, topK int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return nil, nil
	}
	if m.dim != 0 && len(query) != m.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), m.dim)
	}

	results := make([]Result, 0, len(m.entries))
	for _, entry := range m.entries {
		score := 0.0
		for i, v := range entry.vector {
			score += float64(v) * float64(query[i])
		}
		results = append(results, Result{
			DocID:    entry.docID,
			Score:    score,
			Content:  entry.metadata["content"],
			Metadata: entry.metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Len reports the number of stored documents.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
