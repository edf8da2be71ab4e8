package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/signalfold/triage-engine/internal/embed"
	"github.com/signalfold/triage-engine/internal/engine"
	"github.com/signalfold/triage-engine/internal/gen"
	"github.com/signalfold/triage-engine/internal/llm"
	"github.com/signalfold/triage-engine/internal/models"
	"github.com/signalfold/triage-engine/internal/rag"
	"github.com/signalfold/triage-engine/internal/store"
	"github.com/signalfold/triage-engine/internal/vecstore"
)

func newTestService(t *testing.T, events store.EventStore, batchSize int) *TriageService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ragEngine := rag.NewEngine(logger, embed.NewLocalEmbedder(0), vecstore.NewMemoryIndex(0))
	pipeline := engine.NewPipeline(logger, llm.NewDummyProvider(), ragEngine, nil, nil,
		engine.WithEventStore(events))
	return NewTriageService(logger, pipeline, events, gen.NewGenerator(42), batchSize)
}

func TestRunOncePrefersStoredEvents(t *testing.T) {
	mem := store.NewMemoryStore()
	stored := []models.RawEvent{
		models.NewRawEvent(models.SourceApplication, "orders", "ERROR HTTP 500 from payment gateway", nil),
		models.NewRawEvent(models.SourceLogCollector, "orders", "INFO health check passed", nil),
	}
	if err := mem.SaveRaw(context.Background(), stored); err != nil {
		t.Fatalf("SaveRaw: %v", err)
	}

	svc := newTestService(t, mem, 10)
	result, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(result.Enriched) != 2 {
		t.Fatalf("enriched = %d, want the 2 stored events", len(result.Enriched))
	}
	if result.Enriched[0].EventID != stored[0].EventID {
		t.Fatalf("stored events not processed in order")
	}
}

func TestRunOnceGeneratesWhenStoreEmpty(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newTestService(t, mem, 4)

	result, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(result.Enriched) != 4 {
		t.Fatalf("enriched = %d, want 4 generated events", len(result.Enriched))
	}
}

func TestRunOnceWithoutStore(t *testing.T) {
	svc := newTestService(t, nil, 3)

	result, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if len(result.Enriched) != 3 {
		t.Fatalf("enriched = %d, want 3", len(result.Enriched))
	}
}

func TestLastRunAndStats(t *testing.T) {
	svc := newTestService(t, nil, 2)

	if _, ok := svc.LastRun(); ok {
		t.Fatalf("LastRun before any batch should report false")
	}

	result, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	record, ok := svc.LastRun()
	if !ok {
		t.Fatalf("LastRun after a batch should report true")
	}
	if record.RunID != result.Record.RunID {
		t.Fatalf("run id = %s, want %s", record.RunID, result.Record.RunID)
	}

	stats := svc.Stats()
	if stats.Batches != 1 {
		t.Fatalf("batches = %d, want 1", stats.Batches)
	}
}
