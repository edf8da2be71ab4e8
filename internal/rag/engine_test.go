package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalfold/triage-engine/internal/embed"
	"github.com/signalfold/triage-engine/internal/vecstore"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(nil, embed.NewLocalEmbedder(64), vecstore.NewMemoryIndex(64), WithTopK(3))
}

func TestRetrieveRanksExactMatchFirst(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "runbooks/oom", Content: "checkout OOMKilled memory limit runbook", Metadata: map[string]string{"type": "runbooks", "source": "runbooks/oom.md"}},
		{ID: "runbooks/latency", Content: "api-gateway latency investigation steps", Metadata: map[string]string{"type": "runbooks"}},
		{ID: "changelogs/v2", Content: "release v2.3 changed payment retry logic", Metadata: map[string]string{"type": "changelogs"}},
	}
	if count, err := engine.IndexDocuments(ctx, docs); err != nil || count != 3 {
		t.Fatalf("index documents: count=%d err=%v", count, err)
	}

	results, err := engine.Retrieve(ctx, "checkout OOMKilled memory limit runbook")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].DocID != "runbooks/oom" {
		t.Fatalf("top result = %s, want runbooks/oom", results[0].DocID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not in descending score order")
		}
	}
}

func TestRetrieveContextFormat(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	long := strings.Repeat("x", 600)
	err := engine.IndexDocument(ctx, Document{
		ID:       "postmortems/p1",
		Content:  long,
		Metadata: map[string]string{"type": "postmortems", "source": "postmortems/p1.md"},
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	text, err := engine.RetrieveContext(ctx, "anything", 500)
	if err != nil {
		t.Fatalf("retrieve context: %v", err)
	}
	if !strings.Contains(text, "[1] (postmortems) postmortems/p1 (score: ") {
		t.Fatalf("missing numbered header: %q", text)
	}
	if !strings.Contains(text, "Source: postmortems/p1.md") {
		t.Fatalf("missing source line: %q", text)
	}
	if !strings.Contains(text, "...") {
		t.Fatalf("long content not truncated with ellipsis")
	}
	if strings.Contains(text, strings.Repeat("x", 501)) {
		t.Fatalf("content not capped at 500 chars")
	}
}

func TestRetrieveContextEmptySentinel(t *testing.T) {
	engine := newTestEngine(t)

	text, err := engine.RetrieveContext(context.Background(), "whatever", 0)
	if err != nil {
		t.Fatalf("retrieve context: %v", err)
	}
	if text != NoDocumentsSentinel {
		t.Fatalf("got %q, want sentinel", text)
	}
}

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	runbooks := filepath.Join(dir, "runbooks")
	if err := os.MkdirAll(runbooks, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(runbooks, "oom.md"), []byte("# OOM runbook"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(runbooks, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	docs, err := LoadDocuments(dir)
	if err != nil {
		t.Fatalf("load documents: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 markdown document, got %d", len(docs))
	}
	if docs[0].ID != "runbooks/oom" {
		t.Fatalf("doc id = %s", docs[0].ID)
	}
	if docs[0].Metadata["type"] != "runbooks" {
		t.Fatalf("doc type = %s", docs[0].Metadata["type"])
	}
}
