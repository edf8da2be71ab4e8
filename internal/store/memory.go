package store

import (
	"context"
	"sync"

	"github.com/signalfold/triage-engine/internal/models"
)

// MemoryStore is an in-memory EventStore for tests and dry runs.
type MemoryStore struct {
	mu        sync.Mutex
	raw       []models.RawEvent
	processed map[string]bool
	enriched  []models.EnrichedEvent
	llmCalls  []models.LLMCallRecord
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{processed: make(map[string]bool)}
}

// SaveRaw appends raw events to the unprocessed queue.
func (s *MemoryStore) SaveRaw(ctx context.Context, events []models.RawEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = append(s.raw, events...)
	return nil
}

// FetchUnprocessed returns up to limit events not yet marked processed,
// in insertion order.
func (s *MemoryStore) FetchUnprocessed(ctx context.Context, limit int) ([]models.RawEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.RawEvent, 0, limit)
	for _, event := range s.raw {
		if s.processed[event.EventID] {
			continue
		}
		out = append(out, event)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// MarkProcessed flags the given event ids.
func (s *MemoryStore) MarkProcessed(ctx context.Context, eventIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range eventIDs {
		s.processed[id] = true
	}
	return nil
}

// SaveEnriched appends enriched events.
func (s *MemoryStore) SaveEnriched(ctx context.Context, events []models.EnrichedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enriched = append(s.enriched, events...)
	return nil
}

// SaveLLMCalls appends call records.
func (s *MemoryStore) SaveLLMCalls(ctx context.Context, records []models.LLMCallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.llmCalls = append(s.llmCalls, records...)
	return nil
}

// Enriched returns a copy of persisted enriched events.
func (s *MemoryStore) Enriched() []models.EnrichedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.EnrichedEvent(nil), s.enriched...)
}

// LLMCalls returns a copy of persisted call records.
func (s *MemoryStore) LLMCalls() []models.LLMCallRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LLMCallRecord(nil), s.llmCalls...)
}
