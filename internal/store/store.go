// Package store defines the event persistence capability consumed by the
// runner: a queue of unprocessed raw events plus append-only persistence of
// enriched events and LLM call records.
package store

import (
	"context"

	"github.com/signalfold/triage-engine/internal/models"
)

// EventStore reads raw events and persists pipeline output.
type EventStore interface {
	FetchUnprocessed(ctx context.Context, limit int) ([]models.RawEvent, error)
	MarkProcessed(ctx context.Context, eventIDs []string) error
	SaveRaw(ctx context.Context, events []models.RawEvent) error
	SaveEnriched(ctx context.Context, events []models.EnrichedEvent) error
	SaveLLMCalls(ctx context.Context, records []models.LLMCallRecord) error
}
