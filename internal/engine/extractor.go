package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/signalfold/triage-engine/internal/llm"
	"github.com/signalfold/triage-engine/internal/metrics"
	"github.com/signalfold/triage-engine/internal/models"
	"github.com/signalfold/triage-engine/internal/prompts"
	"github.com/signalfold/triage-engine/internal/trace"
)

const (
	extractOutputTokenEstimate = 100
	extractSummaryLimit        = 200
)

var errorCodePattern = regexp.MustCompile(`(?i)(HTTP\s*\d{3}|OOMKilled|TIMEOUT|SIGKILL|ECONNREFUSED)`)

// regexExtract builds a best-effort extraction from the raw payload alone.
func regexExtract(event models.ClassifiedEvent) models.ExtractionResult {
	payload := event.RawPayload

	errorCode := ""
	if match := errorCodePattern.FindString(payload); match != "" {
		errorCode = match
	}

	summary := strings.TrimSpace(truncate(payload, extractSummaryLimit))
	if len(payload) > extractSummaryLimit {
		summary += "..."
	}

	return models.ExtractionResult{
		Summary:           summary,
		AffectedComponent: event.Service,
		ErrorCode:         errorCode,
		UserImpact:        "Unknown — extracted via regex fallback",
	}
}

// extract pulls structured fields from a classified event via the LLM,
// falling back to regex extraction on any failure.
func (p *Pipeline) extract(ctx context.Context, tracer *trace.Tracer, event models.ClassifiedEvent) models.ExtractionResult {
	record := models.NewLLMCallRecord("extract", p.provider.Name())

	var result models.ExtractionResult
	prompt, err := prompts.Format("extract", p.promptVersion, map[string]any{
		"Service":   event.Service,
		"EventType": event.EventType,
		"Severity":  event.Severity,
		"Payload":   event.RawPayload,
		"Metadata":  fmt.Sprintf("%v", event.Metadata),
	})
	if err == nil {
		start := time.Now()
		var usage llm.Usage
		usage, err = p.provider.Generate(ctx, prompt, &result, llm.GenerateOptions{MaxTokens: 512})
		if err == nil {
			record.ModelID = p.provider.ModelID()
			record.LatencyMS = roundMS(time.Since(start))
			record.InputTokens = tokensOrEstimate(usage.InputTokens, prompt)
			record.OutputTokens = outputTokensOrEstimate(usage.OutputTokens, extractOutputTokenEstimate)
			record.EstimatedCostUSD = llm.EstimateCost(record.ModelID, record.InputTokens, record.OutputTokens)
			record.Success = true
			record.ParseSuccess = true

			p.logger.Info("extract llm success",
				slog.String("event_id", event.EventID),
				slog.String("summary", truncate(result.Summary, 80)),
				slog.Float64("latency_ms", record.LatencyMS),
			)
		}
	}
	if err != nil {
		p.logger.Warn("extract llm failed",
			slog.String("event_id", event.EventID), slog.Any("error", err))
		record.Success = false
		record.ErrorMessage = err.Error()
		record.FallbackUsed = true
		result = regexExtract(event)
	}

	tracer.Metrics.Record(record)
	metrics.ObserveLLMCall("extract", record.FallbackUsed, record.EstimatedCostUSD)
	return result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
