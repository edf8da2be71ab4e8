// Package services hosts the run facade shared by the CLI and the ops API:
// it feeds batches into the pipeline, remembers the last run, and tracks
// batch latencies.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/signalfold/triage-engine/internal/engine"
	"github.com/signalfold/triage-engine/internal/gen"
	"github.com/signalfold/triage-engine/internal/models"
	"github.com/signalfold/triage-engine/internal/store"
	"github.com/signalfold/triage-engine/internal/utils"
)

// TriageService drives the enrichment pipeline over stored or synthetic
// events and retains observability state for the ops API.
type TriageService struct {
	logger    *slog.Logger
	pipeline  *engine.Pipeline
	events    store.EventStore
	generator *gen.Generator
	batchSize int

	mu        sync.RWMutex
	lastRun   models.PipelineRunRecord
	hasRun    bool
	latencies *utils.LatencyTracker
}

// NewTriageService constructs the facade. The event store may be nil, in
// which case every batch is synthesized by the generator.
func NewTriageService(
	logger *slog.Logger,
	pipeline *engine.Pipeline,
	events store.EventStore,
	generator *gen.Generator,
	batchSize int,
) *TriageService {
	if logger == nil {
		logger = slog.Default()
	}
	if generator == nil {
		generator = gen.NewGenerator(0)
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &TriageService{
		logger:    logger,
		pipeline:  pipeline,
		events:    events,
		generator: generator,
		batchSize: batchSize,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// RunOnce processes one batch. Stored unprocessed events run first; when the
// store is empty (or absent) a synthetic batch is generated and persisted.
func (s *TriageService) RunOnce(ctx context.Context) (engine.BatchResult, error) {
	events, err := s.nextBatch(ctx)
	if err != nil {
		return engine.BatchResult{}, err
	}
	if len(events) == 0 {
		return engine.BatchResult{}, nil
	}

	start := time.Now()
	result, err := s.pipeline.ProcessBatch(ctx, events)
	if err != nil {
		return engine.BatchResult{}, fmt.Errorf("process batch: %w", err)
	}
	duration := time.Since(start)
	s.latencies.Observe(duration)

	s.mu.Lock()
	s.lastRun = result.Record
	s.hasRun = true
	s.mu.Unlock()

	if count := s.latencies.Count(); count >= 5 && count%5 == 0 {
		s.logger.Info("batch latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", count),
		)
	}
	return result, nil
}

// RunContinuous processes batches on the given interval until the context is
// cancelled. Individual batch failures are logged and the loop keeps going.
func (s *TriageService) RunContinuous(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("continuous mode started", slog.Duration("interval", interval))

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("batch run failed", slog.Any("error", err))
		}
		select {
		case <-ctx.Done():
			s.logger.Info("continuous mode stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LastRun returns the most recent run record, if any batch has completed.
func (s *TriageService) LastRun() (models.PipelineRunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.hasRun
}

// BatchStats summarises batch latencies observed so far.
type BatchStats struct {
	Batches int           `json:"batches"`
	P50     time.Duration `json:"p50_ns"`
	P95     time.Duration `json:"p95_ns"`
	P99     time.Duration `json:"p99_ns"`
}

// Stats reports latency percentiles across completed batches.
func (s *TriageService) Stats() BatchStats {
	return BatchStats{
		Batches: s.latencies.Count(),
		P50:     s.latencies.Percentile(50),
		P95:     s.latencies.Percentile(95),
		P99:     s.latencies.Percentile(99),
	}
}

func (s *TriageService) nextBatch(ctx context.Context) ([]models.RawEvent, error) {
	if s.events != nil {
		stored, err := s.events.FetchUnprocessed(ctx, s.batchSize)
		if err != nil {
			return nil, fmt.Errorf("fetch unprocessed: %w", err)
		}
		if len(stored) > 0 {
			return stored, nil
		}
	}

	generated := s.generator.Events(s.batchSize)
	if s.events != nil {
		if err := s.events.SaveRaw(ctx, generated); err != nil {
			s.logger.Warn("save generated events failed", slog.Any("error", err))
		}
	}
	return generated, nil
}
