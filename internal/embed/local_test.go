package embed

import (
	"context"
	"math"
	"testing"
)

func TestLocalEmbedderDeterministic(t *testing.T) {
	e := NewLocalEmbedder(0)

	a, err := e.Embed(context.Background(), "OOMKilled container checkout")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := e.Embed(context.Background(), "  oomkilled CONTAINER checkout ")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if len(a) != DefaultDim {
		t.Fatalf("dim = %d, want %d", len(a), DefaultDim)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("normalized text should embed identically, differs at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestLocalEmbedderDistinctTexts(t *testing.T) {
	e := NewLocalEmbedder(32)

	a, _ := e.Embed(context.Background(), "memory pressure on checkout")
	b, _ := e.Embed(context.Background(), "deploy completed for frontend")

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("distinct texts should not produce identical vectors")
	}
}

func TestLocalEmbedderUnitNorm(t *testing.T) {
	e := NewLocalEmbedder(64)
	vec, err := e.Embed(context.Background(), "latency spike p99")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	norm := 0.0
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-3 {
		t.Errorf("vector norm = %v, want ~1", math.Sqrt(norm))
	}
}

func TestLocalEmbedderBatch(t *testing.T) {
	e := NewLocalEmbedder(16)
	texts := []string{"one", "two", "three"}

	vectors, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vectors), len(texts))
	}

	single, _ := e.Embed(context.Background(), "two")
	for i := range single {
		if vectors[1][i] != single[i] {
			t.Fatal("batch embedding should match single embedding for the same text")
		}
	}
}
