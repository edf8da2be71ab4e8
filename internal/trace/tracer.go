package trace

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/signalfold/triage-engine/internal/models"
)

// Tracer tracks a single pipeline run with timing and counters.
type Tracer struct {
	RunID         string
	PromptVersion string
	Metrics       *Collector

	EventsProcessed   int
	EventsClassified  int
	AnomaliesDetected int
	AlertsEmitted     int

	logger    *slog.Logger
	startedAt time.Time
	stepStart time.Time
}

// NewTracer starts a run-scoped trace with a fresh run id.
func NewTracer(logger *slog.Logger, promptVersion string) *Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracer{
		RunID:         uuid.NewString(),
		PromptVersion: promptVersion,
		Metrics:       NewCollector(),
		logger:        logger,
		startedAt:     time.Now().UTC(),
	}
}

// StartStep marks the beginning of a named pipeline step.
func (t *Tracer) StartStep(step string) {
	t.stepStart = time.Now()
	t.logger.Debug("pipeline step start", slog.String("step", step), slog.String("run_id", t.RunID))
}

// EndStep logs and returns the elapsed step time.
func (t *Tracer) EndStep(step string) time.Duration {
	elapsed := time.Duration(0)
	if !t.stepStart.IsZero() {
		elapsed = time.Since(t.stepStart)
	}
	t.logger.Debug("pipeline step end",
		slog.String("step", step),
		slog.String("run_id", t.RunID),
		slog.Float64("latency_ms", float64(elapsed.Microseconds())/1000),
	)
	t.stepStart = time.Time{}
	return elapsed
}

// ToRecord finalizes the trace into a PipelineRunRecord.
func (t *Tracer) ToRecord() models.PipelineRunRecord {
	return models.PipelineRunRecord{
		RunID:             t.RunID,
		StartedAt:         t.startedAt,
		FinishedAt:        time.Now().UTC(),
		EventsProcessed:   t.EventsProcessed,
		EventsClassified:  t.EventsClassified,
		AnomaliesDetected: t.AnomaliesDetected,
		AlertsEmitted:     t.AlertsEmitted,
		TotalLLMCalls:     t.Metrics.TotalCalls(),
		TotalInputTokens:  t.Metrics.TotalInputTokens(),
		TotalOutputTokens: t.Metrics.TotalOutputTokens(),
		TotalCostUSD:      t.Metrics.TotalCostUSD(),
		AvgLatencyMS:      t.Metrics.AvgLatencyMS(),
		FallbackRate:      t.Metrics.FallbackRate(),
		PromptVersion:     t.PromptVersion,
		LLMCalls:          t.Metrics.Records(),
	}
}
