package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/signalfold/triage-engine/internal/llm"
	"github.com/signalfold/triage-engine/internal/metrics"
	"github.com/signalfold/triage-engine/internal/models"
	"github.com/signalfold/triage-engine/internal/prompts"
	"github.com/signalfold/triage-engine/internal/trace"
)

const classifyOutputTokenEstimate = 80

// Keyword tables for the heuristic fallback. Order matters: the first match
// wins, so the most severe keywords come first.
var severityRules = []struct {
	needle   string
	severity models.Severity
}{
	{"critical", models.SeverityCritical},
	{"fatal", models.SeverityCritical},
	{"oomkilled", models.SeverityCritical},
	{"panic", models.SeverityCritical},
	{"error", models.SeverityHigh},
	{"exception", models.SeverityHigh},
	{"5xx", models.SeverityHigh},
	{"500", models.SeverityHigh},
	{"warning", models.SeverityMedium},
	{"timeout", models.SeverityMedium},
	{"latency", models.SeverityMedium},
	{"slow", models.SeverityMedium},
}

var typeRules = []struct {
	needle    string
	eventType models.EventType
}{
	{"deploy", models.EventTypeDeploy},
	{"release", models.EventTypeDeploy},
	{"rollback", models.EventTypeDeploy},
	{"cpu", models.EventTypeMetricAlert},
	{"memory", models.EventTypeMetricAlert},
	{"p99", models.EventTypeMetricAlert},
	{"error", models.EventTypeAppError},
	{"exception", models.EventTypeAppError},
	{"traceback", models.EventTypeAppError},
}

// heuristicClassify matches keywords against the payload, service, and source.
func heuristicClassify(event models.RawEvent) models.ClassificationResult {
	text := strings.ToLower(fmt.Sprintf("%s %s %s", event.RawPayload, event.Service, event.Source))

	severity := models.SeverityLow
	for _, rule := range severityRules {
		if strings.Contains(text, rule.needle) {
			severity = rule.severity
			break
		}
	}

	eventType := models.EventTypeLog
	for _, rule := range typeRules {
		if strings.Contains(text, rule.needle) {
			eventType = rule.eventType
			break
		}
	}

	return models.ClassificationResult{
		EventType:  eventType,
		Severity:   severity,
		Confidence: 0.6,
		Reasoning:  "Heuristic keyword match",
	}
}

// classify assigns event type and severity via the LLM, falling back to the
// keyword heuristic on any failure. It always produces a classified event.
func (p *Pipeline) classify(ctx context.Context, tracer *trace.Tracer, event models.RawEvent) models.ClassifiedEvent {
	method := models.MethodLLM
	record := models.NewLLMCallRecord("classify", p.provider.Name())

	var result models.ClassificationResult
	prompt, err := prompts.Format("classify", p.promptVersion, map[string]any{
		"Service":  event.Service,
		"Source":   event.Source,
		"Payload":  event.RawPayload,
		"Metadata": fmt.Sprintf("%v", event.Metadata),
	})
	if err == nil {
		start := time.Now()
		var usage llm.Usage
		usage, err = p.provider.Generate(ctx, prompt, &result, llm.GenerateOptions{MaxTokens: 512})
		if err == nil {
			record.ModelID = p.provider.ModelID()
			record.LatencyMS = roundMS(time.Since(start))
			record.InputTokens = tokensOrEstimate(usage.InputTokens, prompt)
			record.OutputTokens = outputTokensOrEstimate(usage.OutputTokens, classifyOutputTokenEstimate)
			record.EstimatedCostUSD = llm.EstimateCost(record.ModelID, record.InputTokens, record.OutputTokens)
			record.Success = true
			record.ParseSuccess = true

			p.logger.Info("classify llm success",
				slog.String("event_id", event.EventID),
				slog.String("event_type", string(result.EventType)),
				slog.String("severity", string(result.Severity)),
				slog.Float64("confidence", result.Confidence),
				slog.Float64("latency_ms", record.LatencyMS),
			)
		}
	}
	if err != nil {
		p.logger.Warn("classify llm failed",
			slog.String("event_id", event.EventID), slog.Any("error", err))
		record.Success = false
		record.ErrorMessage = err.Error()
		record.FallbackUsed = true
		method = models.MethodHeuristic
		result = heuristicClassify(event)
	}

	tracer.Metrics.Record(record)
	tracer.EventsClassified++
	metrics.ObserveLLMCall("classify", record.FallbackUsed, record.EstimatedCostUSD)

	return models.ClassifiedFromRaw(event, result.EventType, result.Severity, result.Confidence, method)
}

func tokensOrEstimate(reported int, prompt string) int {
	if reported > 0 {
		return reported
	}
	return estimateInputTokens(prompt)
}

func outputTokensOrEstimate(reported, estimate int) int {
	if reported > 0 {
		return reported
	}
	return estimate
}

func roundMS(d time.Duration) float64 {
	ms := float64(d.Microseconds()) / 1000
	return math.Round(ms*100) / 100
}
