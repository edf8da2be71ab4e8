package risk

import (
	"testing"

	"github.com/signalfold/triage-engine/internal/models"
)

func TestScoreMonotonicInSeverity(t *testing.T) {
	ranked := []models.Severity{
		models.SeverityLow,
		models.SeverityMedium,
		models.SeverityHigh,
		models.SeverityCritical,
	}

	prev := -1
	for _, sev := range ranked {
		result := Score(Input{
			Severity:   sev,
			EventType:  models.EventTypeAppError,
			Service:    "checkout",
			Confidence: 0.9,
		})
		if result.Score <= prev {
			t.Fatalf("score for %s (%d) not above previous (%d)", sev, result.Score, prev)
		}
		prev = result.Score
	}
}

func TestScoreBounds(t *testing.T) {
	inputs := []Input{
		{Severity: models.SeverityCritical, EventType: models.EventTypeAppError, Service: "checkout", IsAnomaly: true, ZScore: 100, Confidence: 1},
		{Severity: models.SeverityLow, EventType: models.EventTypeLog, Service: "scratch", Confidence: 0},
		{Severity: "bogus", EventType: "bogus", Service: "", Confidence: 0.5},
	}
	for _, in := range inputs {
		result := Score(in)
		if result.Score < 0 || result.Score > 100 {
			t.Fatalf("score out of range for %+v: %d", in, result.Score)
		}
	}
}

func TestLevelBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  models.Severity
	}{
		{0, models.SeverityLow},
		{34, models.SeverityLow},
		{35, models.SeverityMedium},
		{59, models.SeverityMedium},
		{60, models.SeverityHigh},
		{79, models.SeverityHigh},
		{80, models.SeverityCritical},
		{100, models.SeverityCritical},
	}
	for _, tc := range cases {
		if got := models.LevelFromScore(tc.score); got != tc.want {
			t.Fatalf("level for %d = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	in := Input{
		Severity:   models.SeverityHigh,
		EventType:  models.EventTypeMetricAlert,
		Service:    "payments",
		IsAnomaly:  true,
		ZScore:     2.8,
		Confidence: 0.85,
	}
	first := Score(in)
	for i := 0; i < 10; i++ {
		if got := Score(in); got.Score != first.Score || got.Level != first.Level {
			t.Fatalf("score not reproducible: %+v vs %+v", got, first)
		}
	}
}

func TestFactorBreakdown(t *testing.T) {
	result := Score(Input{
		Severity:   models.SeverityCritical,
		EventType:  models.EventTypeAppError,
		Service:    "checkout",
		IsAnomaly:  true,
		ZScore:     3,
		Confidence: 0.8,
	})

	if result.Factors["severity"] != 40 {
		t.Fatalf("severity factor = %f, want 40", result.Factors["severity"])
	}
	if result.Factors["event_type"] != 15 {
		t.Fatalf("event_type factor = %f, want 15", result.Factors["event_type"])
	}
	if result.Factors["service_criticality"] != 15 {
		t.Fatalf("service factor = %f, want 15", result.Factors["service_criticality"])
	}
	if result.Factors["anomaly_bonus"] != 29 {
		t.Fatalf("anomaly bonus = %f, want 29", result.Factors["anomaly_bonus"])
	}
	if result.Factors["confidence_penalty"] >= 0 {
		t.Fatalf("confidence penalty should be negative, got %f", result.Factors["confidence_penalty"])
	}

	// 40 + 15 + 15 + 29 - 2 = 97
	if result.Score != 97 {
		t.Fatalf("score = %d, want 97", result.Score)
	}
	if result.Level != models.SeverityCritical {
		t.Fatalf("level = %s, want critical", result.Level)
	}
}

func TestUnknownServiceDefault(t *testing.T) {
	named := Score(Input{Severity: models.SeverityLow, EventType: models.EventTypeLog, Service: "checkout", Confidence: 1})
	unnamed := Score(Input{Severity: models.SeverityLow, EventType: models.EventTypeLog, Service: "mystery", Confidence: 1})
	if named.Score-unnamed.Score != 8 {
		t.Fatalf("expected checkout to carry +8 over default service weight, got %d vs %d", named.Score, unnamed.Score)
	}
}
