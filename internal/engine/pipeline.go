// Package engine orchestrates the enrichment pipeline: classification,
// extraction, anomaly detection, root cause analysis, risk scoring, and alert
// emission. Events in a batch are processed strictly in order; a failure in
// one event never stops the rest of the batch.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/signalfold/triage-engine/internal/anomaly"
	"github.com/signalfold/triage-engine/internal/llm"
	"github.com/signalfold/triage-engine/internal/metrics"
	"github.com/signalfold/triage-engine/internal/models"
	"github.com/signalfold/triage-engine/internal/rag"
	"github.com/signalfold/triage-engine/internal/risk"
	"github.com/signalfold/triage-engine/internal/sink"
	"github.com/signalfold/triage-engine/internal/store"
	"github.com/signalfold/triage-engine/internal/trace"
)

const (
	// DefaultAlertThreshold is the risk score at or above which alerts fire.
	DefaultAlertThreshold = 60
	// DefaultPromptVersion selects the prompt template set.
	DefaultPromptVersion = "v1"

	defaultLLMMaxTokens = 1024
)

// BatchResult is everything a batch run produced.
type BatchResult struct {
	Enriched []models.EnrichedEvent
	Alerts   []models.Alert
	Record   models.PipelineRunRecord
}

// Pipeline runs raw events through all enrichment steps sequentially.
type Pipeline struct {
	logger   *slog.Logger
	provider llm.Provider
	rag      *rag.Engine
	detector *anomaly.Detector
	sinks    []sink.Sink
	events   store.EventStore

	promptVersion  string
	alertThreshold int
	llmMaxTokens   int
	onEventDone    func()
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPromptVersion selects a prompt template version.
func WithPromptVersion(version string) Option {
	return func(p *Pipeline) {
		if version != "" {
			p.promptVersion = version
		}
	}
}

// WithAlertThreshold overrides the risk score at which alerts fire.
func WithAlertThreshold(threshold int) Option {
	return func(p *Pipeline) {
		if threshold > 0 {
			p.alertThreshold = threshold
		}
	}
}

// WithLLMMaxTokens caps the root cause generation length.
func WithLLMMaxTokens(max int) Option {
	return func(p *Pipeline) {
		if max > 0 {
			p.llmMaxTokens = max
		}
	}
}

// WithEventStore persists enriched events, call records, and processed marks
// after each batch.
func WithEventStore(events store.EventStore) Option {
	return func(p *Pipeline) {
		p.events = events
	}
}

// WithEventCallback registers a hook invoked after each event finishes,
// typically for progress reporting.
func WithEventCallback(fn func()) Option {
	return func(p *Pipeline) {
		p.onEventDone = fn
	}
}

// NewPipeline constructs the orchestrator over the given capabilities.
func NewPipeline(
	logger *slog.Logger,
	provider llm.Provider,
	ragEngine *rag.Engine,
	detector *anomaly.Detector,
	sinks []sink.Sink,
	opts ...Option,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if detector == nil {
		detector = anomaly.NewDetector(logger)
	}
	p := &Pipeline{
		logger:         logger,
		provider:       provider,
		rag:            ragEngine,
		detector:       detector,
		sinks:          sinks,
		promptVersion:  DefaultPromptVersion,
		alertThreshold: DefaultAlertThreshold,
		llmMaxTokens:   defaultLLMMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Detector exposes the pipeline's anomaly detector for state inspection.
func (p *Pipeline) Detector() *anomaly.Detector {
	return p.detector
}

// ProcessBatch runs every event through the full pipeline in order. A failing
// event is logged and skipped; the remaining events still run. Detector state
// is persisted once at the end of the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, events []models.RawEvent) (BatchResult, error) {
	tracer := trace.NewTracer(p.logger, p.promptVersion)
	batchStart := time.Now()

	p.logger.Info("pipeline batch start",
		slog.String("run_id", tracer.RunID),
		slog.Int("batch_size", len(events)),
		slog.String("prompt_version", p.promptVersion),
	)

	result := BatchResult{
		Enriched: make([]models.EnrichedEvent, 0, len(events)),
		Alerts:   make([]models.Alert, 0),
	}

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline batch cancelled",
				slog.String("run_id", tracer.RunID),
				slog.Int("events_done", tracer.EventsProcessed),
			)
			break
		}

		tracer.EventsProcessed++
		metrics.ObserveEventProcessed()

		enriched, alert, err := p.processSingle(ctx, tracer, event)
		if err != nil {
			p.logger.Error("pipeline event failed",
				slog.String("event_id", event.EventID),
				slog.String("run_id", tracer.RunID),
				slog.Any("error", err),
			)
		} else {
			result.Enriched = append(result.Enriched, enriched)
			if alert != nil {
				result.Alerts = append(result.Alerts, *alert)
			}
		}

		if p.onEventDone != nil {
			p.onEventDone()
		}
	}

	p.logger.Info("pipeline batch done",
		slog.String("run_id", tracer.RunID),
		slog.Int("events_processed", tracer.EventsProcessed),
		slog.Int("anomalies", tracer.AnomaliesDetected),
		slog.Int("alerts", tracer.AlertsEmitted),
		slog.Int("llm_calls", tracer.Metrics.TotalCalls()),
		slog.Float64("total_cost_usd", tracer.Metrics.TotalCostUSD()),
		slog.Float64("fallback_rate", tracer.Metrics.FallbackRate()),
	)

	metrics.ObserveBatch(time.Since(batchStart))

	if err := p.detector.SaveState(); err != nil {
		p.logger.Warn("anomaly state save failed", slog.Any("error", err))
	}

	result.Record = tracer.ToRecord()
	p.persist(ctx, result)

	return result, nil
}

// processSingle runs one event through all steps. A panic in any step is
// converted to an error so one malformed event cannot take down the batch.
func (p *Pipeline) processSingle(ctx context.Context, tracer *trace.Tracer, event models.RawEvent) (enriched models.EnrichedEvent, alert *models.Alert, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &eventPanicError{eventID: event.EventID, cause: r}
		}
	}()

	tracer.StartStep("classify")
	classified := p.classify(ctx, tracer, event)
	metrics.ObserveStep("classify", tracer.EndStep("classify"))

	tracer.StartStep("extract")
	extraction := p.extract(ctx, tracer, classified)
	metrics.ObserveStep("extract", tracer.EndStep("extract"))

	tracer.StartStep("anomaly")
	anomalyResult := p.detector.Detect(classified.Service, classified.EventType, classified.Severity)
	if anomalyResult.IsAnomaly {
		tracer.AnomaliesDetected++
		metrics.ObserveAnomaly()
	}
	metrics.ObserveStep("anomaly", tracer.EndStep("anomaly"))

	tracer.StartStep("root_cause")
	rca := p.rootCause(ctx, tracer, classified, extraction, anomalyResult)
	metrics.ObserveStep("root_cause", tracer.EndStep("root_cause"))

	tracer.StartStep("risk")
	riskScore := risk.Score(risk.Input{
		Severity:   classified.Severity,
		EventType:  classified.EventType,
		Service:    classified.Service,
		IsAnomaly:  anomalyResult.IsAnomaly,
		ZScore:     anomalyResult.ZScore,
		Confidence: classified.Confidence,
	})
	metrics.ObserveStep("risk", tracer.EndStep("risk"))

	enriched = models.EnrichedFromClassified(classified, models.EnrichmentOutput{
		ExtractedSummary: extraction.Summary,
		IsAnomaly:        anomalyResult.IsAnomaly,
		ZScore:           anomalyResult.ZScore,
		RootCause:        rca.RootCause,
		RiskScore:        riskScore.Score,
		RiskLevel:        riskScore.Level,
		Recommendations:  rca.Recommendations,
		PipelineRunID:    tracer.RunID,
		PromptVersion:    p.promptVersion,
	})

	if riskScore.Score >= p.alertThreshold {
		tracer.StartStep("alert")
		built := p.buildAlert(classified, extraction, rca, riskScore, tracer.RunID)
		p.emitAlert(ctx, built)
		tracer.AlertsEmitted++
		metrics.ObserveAlert()
		metrics.ObserveStep("alert", tracer.EndStep("alert"))
		alert = &built
	}

	return enriched, alert, nil
}

// persist writes batch output to the event store when one is configured.
// Storage failures are logged, never fatal: enrichment results were already
// returned to the caller.
func (p *Pipeline) persist(ctx context.Context, result BatchResult) {
	if p.events == nil {
		return
	}
	if len(result.Enriched) > 0 {
		if err := p.events.SaveEnriched(ctx, result.Enriched); err != nil {
			p.logger.Warn("store enriched failed", slog.Any("error", err))
		} else {
			ids := make([]string, len(result.Enriched))
			for i, enriched := range result.Enriched {
				ids[i] = enriched.EventID
			}
			if err := p.events.MarkProcessed(ctx, ids); err != nil {
				p.logger.Warn("store mark processed failed", slog.Any("error", err))
			}
		}
	}
	if len(result.Record.LLMCalls) > 0 {
		if err := p.events.SaveLLMCalls(ctx, result.Record.LLMCalls); err != nil {
			p.logger.Warn("store llm calls failed", slog.Any("error", err))
		}
	}
}

// estimateInputTokens approximates the prompt token count when a provider
// does not report usage.
func estimateInputTokens(prompt string) int {
	return len(strings.Fields(prompt)) * 2
}

type eventPanicError struct {
	eventID string
	cause   any
}

func (e *eventPanicError) Error() string {
	return fmt.Sprintf("event %s processing panicked: %v", e.eventID, e.cause)
}
