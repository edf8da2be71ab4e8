package store

import (
	"context"
	"testing"

	"github.com/signalfold/triage-engine/internal/models"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	events := []models.RawEvent{
		models.NewRawEvent(models.SourceApplication, "checkout", "payload one", nil),
		models.NewRawEvent(models.SourceDeploy, "payments", "payload two", nil),
		models.NewRawEvent(models.SourceLogCollector, "auth", "payload three", nil),
	}
	if err := s.SaveRaw(ctx, events); err != nil {
		t.Fatalf("save raw: %v", err)
	}

	fetched, err := s.FetchUnprocessed(ctx, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(fetched) != 2 {
		t.Fatalf("fetched %d events, want 2", len(fetched))
	}
	if fetched[0].EventID != events[0].EventID {
		t.Fatalf("fetch order not preserved")
	}

	if err := s.MarkProcessed(ctx, []string{events[0].EventID}); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	remaining, err := s.FetchUnprocessed(ctx, 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 unprocessed after marking one, got %d", len(remaining))
	}
	for _, event := range remaining {
		if event.EventID == events[0].EventID {
			t.Fatalf("processed event still returned")
		}
	}
}

func TestMemoryStorePersistsOutput(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SaveEnriched(ctx, []models.EnrichedEvent{{RiskScore: 42}}); err != nil {
		t.Fatalf("save enriched: %v", err)
	}
	if err := s.SaveLLMCalls(ctx, []models.LLMCallRecord{{Step: "classify"}}); err != nil {
		t.Fatalf("save llm calls: %v", err)
	}

	if got := s.Enriched(); len(got) != 1 || got[0].RiskScore != 42 {
		t.Fatalf("enriched not persisted: %+v", got)
	}
	if got := s.LLMCalls(); len(got) != 1 || got[0].Step != "classify" {
		t.Fatalf("llm calls not persisted: %+v", got)
	}
}
