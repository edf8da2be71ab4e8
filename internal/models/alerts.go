package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskScore is the deterministic 0-100 score with its contributing factors.
type RiskScore struct {
	Score   int                `json:"score"`
	Level   Severity           `json:"level"`
	Factors map[string]float64 `json:"factors,omitempty"`
}

// LevelFromScore derives a risk level from the fixed thresholds.
func LevelFromScore(score int) Severity {
	switch {
	case score >= 80:
		return SeverityCritical
	case score >= 60:
		return SeverityHigh
	case score >= 35:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Alert is emitted when an enriched event's risk score clears the threshold.
type Alert struct {
	AlertID         string    `json:"alert_id"`
	Timestamp       time.Time `json:"timestamp"`
	EventID         string    `json:"event_id"`
	Service         string    `json:"service"`
	Severity        Severity  `json:"severity"`
	RiskScore       int       `json:"risk_score"`
	RiskLevel       Severity  `json:"risk_level"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	RootCause       string    `json:"root_cause"`
	Recommendations []string  `json:"recommendations,omitempty"`
	PipelineRunID   string    `json:"pipeline_run_id"`
}

// NewAlert assigns the generated id and timestamp.
func NewAlert() Alert {
	return Alert{
		AlertID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}
}
