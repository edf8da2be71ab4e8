package models

import (
	"time"

	"github.com/google/uuid"
)

// Source enumerates where a raw event came from.
type Source string

const (
	SourceLogCollector Source = "log_collector"
	SourceApplication  Source = "application"
	SourceDeploy       Source = "deploy"
)

// EventType enumerates event categories assigned by classification.
type EventType string

const (
	EventTypeLog         EventType = "log"
	EventTypeMetricAlert EventType = "metric_alert"
	EventTypeAppError    EventType = "app_error"
	EventTypeDeploy      EventType = "deploy"
	EventTypeUnknown     EventType = "unknown"
)

// Severity captures impact levels.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Method records which path produced a classification.
type Method string

const (
	MethodLLM       Method = "llm"
	MethodHeuristic Method = "heuristic"
	MethodFallback  Method = "fallback"
)

// RawEvent is an unprocessed event from a collector or the synthetic generator.
type RawEvent struct {
	EventID    string            `json:"event_id"`
	Timestamp  time.Time         `json:"timestamp"`
	Source     Source            `json:"source"`
	Service    string            `json:"service"`
	RawPayload string            `json:"raw_payload"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Processed  bool              `json:"processed"`
}

// NewRawEvent constructs a RawEvent with a generated id and current timestamp.
func NewRawEvent(source Source, service, payload string, metadata map[string]string) RawEvent {
	return RawEvent{
		EventID:    uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Source:     source,
		Service:    service,
		RawPayload: payload,
		Metadata:   metadata,
	}
}

// ClassifiedEvent is a RawEvent plus the classification step's output.
type ClassifiedEvent struct {
	RawEvent

	EventType  EventType `json:"event_type"`
	Severity   Severity  `json:"severity"`
	Confidence float64   `json:"classification_confidence"`
	Method     Method    `json:"classification_method"`
}

// ClassifiedFromRaw copies the raw fields forward and attaches classification output.
func ClassifiedFromRaw(raw RawEvent, eventType EventType, severity Severity, confidence float64, method Method) ClassifiedEvent {
	return ClassifiedEvent{
		RawEvent:   raw,
		EventType:  eventType,
		Severity:   severity,
		Confidence: confidence,
		Method:     method,
	}
}

// AnomalyResult is the detector's verdict for a single event.
type AnomalyResult struct {
	IsAnomaly bool    `json:"is_anomaly"`
	ZScore    float64 `json:"z_score"`
	Bucket    string  `json:"bucket"`
	Threshold float64 `json:"threshold"`
}

// EnrichmentOutput carries the step results folded into an EnrichedEvent.
type EnrichmentOutput struct {
	ExtractedSummary string
	IsAnomaly        bool
	ZScore           float64
	RootCause        string
	RiskScore        int
	RiskLevel        Severity
	Recommendations  []string
	PipelineRunID    string
	PromptVersion    string
}

// EnrichedEvent is the terminal entity produced at the end of an event's pipeline pass.
type EnrichedEvent struct {
	ClassifiedEvent

	ExtractedSummary string   `json:"extracted_summary"`
	IsAnomaly        bool     `json:"is_anomaly"`
	ZScore           float64  `json:"z_score"`
	RootCause        string   `json:"root_cause"`
	RiskScore        int      `json:"risk_score"`
	RiskLevel        Severity `json:"risk_level"`
	Recommendations  []string `json:"recommendations,omitempty"`
	PipelineRunID    string   `json:"pipeline_run_id"`
	PromptVersion    string   `json:"prompt_version"`
}

// EnrichedFromClassified copies the classified fields forward and attaches the
// enrichment output.
func EnrichedFromClassified(classified ClassifiedEvent, out EnrichmentOutput) EnrichedEvent {
	return EnrichedEvent{
		ClassifiedEvent:  classified,
		ExtractedSummary: out.ExtractedSummary,
		IsAnomaly:        out.IsAnomaly,
		ZScore:           out.ZScore,
		RootCause:        out.RootCause,
		RiskScore:        out.RiskScore,
		RiskLevel:        out.RiskLevel,
		Recommendations:  out.Recommendations,
		PipelineRunID:    out.PipelineRunID,
		PromptVersion:    out.PromptVersion,
	}
}
