package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/signalfold/triage-engine/internal/llm"
	"github.com/signalfold/triage-engine/internal/metrics"
	"github.com/signalfold/triage-engine/internal/models"
	"github.com/signalfold/triage-engine/internal/prompts"
	"github.com/signalfold/triage-engine/internal/rag"
	"github.com/signalfold/triage-engine/internal/trace"
)

const rootCauseOutputTokenEstimate = 200

// rootCause combines LLM reasoning with retrieved reference documents. On any
// failure it returns a low-confidence placeholder result, never an error: the
// pipeline always finishes the event.
func (p *Pipeline) rootCause(
	ctx context.Context,
	tracer *trace.Tracer,
	event models.ClassifiedEvent,
	extraction models.ExtractionResult,
	anomalyResult models.AnomalyResult,
) models.RootCauseResult {
	record := models.NewLLMCallRecord("root_cause", p.provider.Name())

	query := fmt.Sprintf("%s %s %s %s", event.Service, event.EventType, event.Severity, extraction.Summary)
	ragContext, err := p.rag.RetrieveContext(ctx, query, 0)
	if err != nil {
		p.logger.Warn("root cause retrieval failed",
			slog.String("event_id", event.EventID), slog.Any("error", err))
		ragContext = rag.NoDocumentsSentinel
	}

	var result models.RootCauseResult
	prompt, err := prompts.Format("root_cause", p.promptVersion, map[string]any{
		"Service":   event.Service,
		"EventType": event.EventType,
		"Severity":  event.Severity,
		"Summary":   extraction.Summary,
		"IsAnomaly": anomalyResult.IsAnomaly,
		"ZScore":    fmt.Sprintf("%.2f", anomalyResult.ZScore),
		"Payload":   event.RawPayload,
		"Context":   ragContext,
	})
	if err == nil {
		start := time.Now()
		var usage llm.Usage
		usage, err = p.provider.Generate(ctx, prompt, &result, llm.GenerateOptions{MaxTokens: p.llmMaxTokens})
		if err == nil {
			record.ModelID = p.provider.ModelID()
			record.LatencyMS = roundMS(time.Since(start))
			record.InputTokens = tokensOrEstimate(usage.InputTokens, prompt)
			record.OutputTokens = outputTokensOrEstimate(usage.OutputTokens, rootCauseOutputTokenEstimate)
			record.EstimatedCostUSD = llm.EstimateCost(record.ModelID, record.InputTokens, record.OutputTokens)
			record.Success = true
			record.ParseSuccess = true

			p.logger.Info("root cause llm success",
				slog.String("event_id", event.EventID),
				slog.String("root_cause", truncate(result.RootCause, 80)),
				slog.Float64("confidence", result.Confidence),
				slog.Float64("latency_ms", record.LatencyMS),
			)
		}
	}
	if err != nil {
		p.logger.Warn("root cause llm failed",
			slog.String("event_id", event.EventID), slog.Any("error", err))
		record.Success = false
		record.ErrorMessage = err.Error()
		record.FallbackUsed = true
		result = models.RootCauseResult{
			RootCause:           fmt.Sprintf("Unable to determine root cause (LLM failed: %s)", truncate(err.Error(), 120)),
			Confidence:          0.1,
			ContributingFactors: []string{"LLM analysis unavailable"},
			Recommendations:     []string{"Manual investigation required", "Check service logs"},
		}
	}

	tracer.Metrics.Record(record)
	metrics.ObserveLLMCall("root_cause", record.FallbackUsed, record.EstimatedCostUSD)
	return result
}
