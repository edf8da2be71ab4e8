// Package trace tracks one pipeline run: the run identity, cross-event
// counters, per-step timings, and every LLM call made along the way.
package trace

import (
	"math"

	"github.com/signalfold/triage-engine/internal/models"
)

// Collector accumulates LLM call records during a run. Append-only,
// single-writer: the orchestrator records calls sequentially.
type Collector struct {
	records []models.LLMCallRecord
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Record appends one call record.
func (c *Collector) Record(rec models.LLMCallRecord) {
	c.records = append(c.records, rec)
}

// Records returns the ordered call records.
func (c *Collector) Records() []models.LLMCallRecord {
	return c.records
}

// TotalCalls is the number of recorded attempts.
func (c *Collector) TotalCalls() int { return len(c.records) }

// TotalInputTokens sums input tokens across all calls.
func (c *Collector) TotalInputTokens() int {
	total := 0
	for _, r := range c.records {
		total += r.InputTokens
	}
	return total
}

// TotalOutputTokens sums output tokens across all calls.
func (c *Collector) TotalOutputTokens() int {
	total := 0
	for _, r := range c.records {
		total += r.OutputTokens
	}
	return total
}

// TotalCostUSD sums estimated cost, rounded to 6 decimals.
func (c *Collector) TotalCostUSD() float64 {
	total := 0.0
	for _, r := range c.records {
		total += r.EstimatedCostUSD
	}
	return math.Round(total*1e6) / 1e6
}

// AvgLatencyMS is the mean call latency, 0 when no calls were made.
func (c *Collector) AvgLatencyMS() float64 {
	if len(c.records) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range c.records {
		total += r.LatencyMS
	}
	return math.Round(total/float64(len(c.records))*100) / 100
}

// FallbackRate is the fraction of calls that fell back, 0 when no calls.
func (c *Collector) FallbackRate() float64 {
	if len(c.records) == 0 {
		return 0
	}
	fallbacks := 0
	for _, r := range c.records {
		if r.FallbackUsed {
			fallbacks++
		}
	}
	return math.Round(float64(fallbacks)/float64(len(c.records))*1e4) / 1e4
}
