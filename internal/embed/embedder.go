// Package embed defines the embedding capability and two implementations: a
// deterministic hash-projection embedder that needs no external API, and an
// OpenAI-backed embedder.
package embed

import "context"

// Embedder produces fixed-length float vectors from text. EmbedBatch returns
// one vector per input, same order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
