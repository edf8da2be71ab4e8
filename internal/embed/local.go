package embed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"strings"
)

// DefaultDim is the vector length produced by the local embedder.
const DefaultDim = 64

// LocalEmbedder builds deterministic pseudo-embeddings by projecting SHA-256
// digests of the normalized text into [-1, 1] and L2-normalizing. Good enough
// for demos and tests; identical text always maps to the identical vector.
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder constructs a hash embedder with the given dimension
// (DefaultDim when non-positive).
func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &LocalEmbedder{dim: dim}
}

// Embed returns the hash projection for a single text.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.hashEmbed(text), nil
}

// EmbedBatch embeds each text independently.
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

func (e *LocalEmbedder) hashEmbed(text string) []float32 {
	normalized := strings.ToLower(strings.TrimSpace(text))

	raw := make([]float64, 0, e.dim+sha256.Size)
	rounds := e.dim/sha256.Size + 2
	for i := 0; i < rounds && len(raw) < e.dim; i++ {
		sum := sha256.Sum256([]byte(fmt.Sprintf("%s::%d", normalized, i)))
		for _, b := range sum {
			raw = append(raw, (float64(b)/255)*2-1)
		}
	}
	raw = raw[:e.dim]

	norm := 0.0
	for _, v := range raw {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}

	vec := make([]float32, e.dim)
	for i, v := range raw {
		vec[i] = float32(v / norm)
	}
	return vec
}
