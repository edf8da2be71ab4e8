// Package risk computes a deterministic 0-100 risk score. No state, no I/O:
// identical inputs always produce the identical score.
package risk

import (
	"math"

	"github.com/signalfold/triage-engine/internal/models"
)

// Severity weights (0-40 points).
var severityScores = map[models.Severity]float64{
	models.SeverityCritical: 40,
	models.SeverityHigh:     28,
	models.SeverityMedium:   15,
	models.SeverityLow:      5,
}

// Event type weights (0-15 points).
var typeScores = map[models.EventType]float64{
	models.EventTypeAppError:    15,
	models.EventTypeMetricAlert: 12,
	models.EventTypeDeploy:      8,
	models.EventTypeLog:         3,
	models.EventTypeUnknown:     5,
}

// Service criticality weights (0-15 points).
var serviceCriticality = map[string]float64{
	"checkout":      15,
	"payments":      15,
	"auth":          12,
	"api-gateway":   12,
	"inventory":     10,
	"frontend":      8,
	"notifications": 5,
}

const (
	defaultSeverityScore = 5
	defaultTypeScore     = 5
	defaultServiceScore  = 7
)

// Input carries the upstream signals combined into a score.
type Input struct {
	Severity   models.Severity
	EventType  models.EventType
	Service    string
	IsAnomaly  bool
	ZScore     float64
	Confidence float64
}

// Score combines severity, event type, service criticality, anomaly signal,
// and classification confidence into a clamped integer score with a factor
// breakdown for auditability. The breakdown is informational only.
func Score(in Input) models.RiskScore {
	factors := make(map[string]float64, 5)

	sevScore, ok := severityScores[in.Severity]
	if !ok {
		sevScore = defaultSeverityScore
	}
	factors["severity"] = sevScore

	typeScore, ok := typeScores[in.EventType]
	if !ok {
		typeScore = defaultTypeScore
	}
	factors["event_type"] = typeScore

	svcScore, ok := serviceCriticality[in.Service]
	if !ok {
		svcScore = defaultServiceScore
	}
	factors["service_criticality"] = svcScore

	anomalyBonus := 0.0
	if in.IsAnomaly {
		anomalyBonus = 20 + math.Min(10, math.Abs(in.ZScore)*3)
	}
	factors["anomaly_bonus"] = anomalyBonus

	confidencePenalty := math.Max(0, (1-in.Confidence)*10)
	factors["confidence_penalty"] = -confidencePenalty

	raw := sevScore + typeScore + svcScore + anomalyBonus - confidencePenalty
	score := int(math.Round(raw))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return models.RiskScore{
		Score:   score,
		Level:   models.LevelFromScore(score),
		Factors: factors,
	}
}
