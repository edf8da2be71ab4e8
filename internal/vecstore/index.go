// Package vecstore defines the vector-index capability used by the retrieval
// engine, with an in-memory inner-product index and a Weaviate-backed index.
package vecstore

import "context"

// Result is one ranked hit from a search.
type Result struct {
	DocID    string            `json:"doc_id"`
	Score    float64           `json:"score"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Index stores vectors keyed by document id and returns top-k nearest by
// inner-product similarity. Upsert on an existing id replaces the vector and
// metadata.
type Index interface {
	Upsert(ctx context.Context, docID string, vector []float32, metadata map[string]string) error
	Search(ctx context.Context, query []float32, topK int) ([]Result, error)
}
