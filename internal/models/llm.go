package models

// ClassificationResult is the structured output of the classification step.
type ClassificationResult struct {
	EventType  EventType `json:"event_type"`
	Severity   Severity  `json:"severity"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
}

// ExtractionResult is the structured output of the extraction step. It is
// transient: produced and consumed within one event's processing.
type ExtractionResult struct {
	Summary           string            `json:"summary"`
	AffectedComponent string            `json:"affected_component"`
	ErrorCode         string            `json:"error_code,omitempty"`
	UserImpact        string            `json:"user_impact"`
	KeyMetrics        map[string]string `json:"key_metrics,omitempty"`
}

// RootCauseResult is the structured output of the root-cause step.
type RootCauseResult struct {
	RootCause           string   `json:"root_cause"`
	Confidence          float64  `json:"confidence"`
	ContributingFactors []string `json:"contributing_factors,omitempty"`
	Recommendations     []string `json:"recommendations,omitempty"`
	SimilarIncidents    []string `json:"similar_incidents,omitempty"`
}

// HasActionableRecommendations reports whether the analysis is confident
// enough for its recommendations to be surfaced as actions.
func (r RootCauseResult) HasActionableRecommendations() bool {
	return len(r.Recommendations) > 0 && r.Confidence >= 0.5
}
