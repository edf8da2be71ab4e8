package models

import (
	"time"

	"github.com/google/uuid"
)

// LLMCallRecord tracks one LLM invocation attempt, success or failure.
type LLMCallRecord struct {
	CallID           string    `json:"call_id"`
	Timestamp        time.Time `json:"timestamp"`
	Step             string    `json:"step"`
	Provider         string    `json:"provider"`
	ModelID          string    `json:"model_id"`
	InputTokens      int       `json:"input_tokens"`
	OutputTokens     int       `json:"output_tokens"`
	EstimatedCostUSD float64   `json:"estimated_cost_usd"`
	LatencyMS        float64   `json:"latency_ms"`
	Success          bool      `json:"success"`
	ParseSuccess     bool      `json:"parse_success"`
	FallbackUsed     bool      `json:"fallback_used"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// NewLLMCallRecord starts a record for the given step and provider.
func NewLLMCallRecord(step, provider string) LLMCallRecord {
	return LLMCallRecord{
		CallID:    uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Step:      step,
		Provider:  provider,
	}
}

// PipelineRunRecord summarises one batch run.
type PipelineRunRecord struct {
	RunID             string          `json:"run_id"`
	StartedAt         time.Time       `json:"started_at"`
	FinishedAt        time.Time       `json:"finished_at"`
	EventsProcessed   int             `json:"events_processed"`
	EventsClassified  int             `json:"events_classified"`
	AnomaliesDetected int             `json:"anomalies_detected"`
	AlertsEmitted     int             `json:"alerts_emitted"`
	TotalLLMCalls     int             `json:"total_llm_calls"`
	TotalInputTokens  int             `json:"total_input_tokens"`
	TotalOutputTokens int             `json:"total_output_tokens"`
	TotalCostUSD      float64         `json:"total_cost_usd"`
	AvgLatencyMS      float64         `json:"avg_latency_ms"`
	FallbackRate      float64         `json:"fallback_rate"`
	PromptVersion     string          `json:"prompt_version"`
	LLMCalls          []LLMCallRecord `json:"llm_calls,omitempty"`
}
