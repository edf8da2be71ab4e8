package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/signalfold/triage-engine/internal/models"
)

// keyword tables used by the deterministic provider. Order matters: first
// match wins, so more specific keywords come first.
var dummySeverityKeywords = []struct {
	keyword  string
	severity models.Severity
}{
	{"critical", models.SeverityCritical},
	{"fatal", models.SeverityCritical},
	{"oomkilled", models.SeverityCritical},
	{"error", models.SeverityHigh},
	{"exception", models.SeverityHigh},
	{"5xx", models.SeverityHigh},
	{"timeout", models.SeverityHigh},
	{"warning", models.SeverityMedium},
	{"warn", models.SeverityMedium},
	{"slow", models.SeverityMedium},
	{"latency", models.SeverityMedium},
	{"info", models.SeverityLow},
	{"deploy", models.SeverityLow},
	{"success", models.SeverityLow},
}

var dummyTypeKeywords = []struct {
	keyword   string
	eventType models.EventType
}{
	{"deploy", models.EventTypeDeploy},
	{"release", models.EventTypeDeploy},
	{"rollback", models.EventTypeDeploy},
	{"cpu", models.EventTypeMetricAlert},
	{"memory", models.EventTypeMetricAlert},
	{"latency", models.EventTypeMetricAlert},
	{"p99", models.EventTypeMetricAlert},
	{"error", models.EventTypeAppError},
	{"exception", models.EventTypeAppError},
	{"traceback", models.EventTypeAppError},
	{"panic", models.EventTypeAppError},
}

// DummyProvider is a deterministic keyword-driven provider for tests and
// offline demos. It inspects the prompt text and fills the requested result
// type without any network access.
type DummyProvider struct{}

// NewDummyProvider returns the deterministic provider.
func NewDummyProvider() *DummyProvider { return &DummyProvider{} }

// Name identifies the provider on call records.
func (p *DummyProvider) Name() string { return "dummy" }

// ModelID returns the synthetic model identifier carried on call records.
func (p *DummyProvider) ModelID() string { return "dummy-heuristic-v1" }

// Generate fills out based on the prompt's keywords.
func (p *DummyProvider) Generate(ctx context.Context, prompt string, out any, opts GenerateOptions) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}

	switch result := out.(type) {
	case *models.ClassificationResult:
		*result = p.classify(prompt)
	case *models.ExtractionResult:
		*result = p.extract(prompt)
	case *models.RootCauseResult:
		*result = p.rootCause(prompt)
	default:
		return Usage{}, fmt.Errorf("unsupported result type %T", out)
	}

	return Usage{}, nil
}

// promptPayload pulls the Payload section out of a formatted prompt, falling
// back to the whole text.
func promptPayload(prompt string) string {
	lines := strings.Split(prompt, "\n")
	inPayload := false
	payload := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Payload:") {
			inPayload = true
			continue
		}
		if inPayload {
			if trimmed == "---" || strings.HasPrefix(trimmed, "Metadata:") {
				break
			}
			payload = append(payload, line)
		}
	}
	if len(payload) == 0 {
		return prompt
	}
	return strings.TrimSpace(strings.Join(payload, "\n"))
}

func (p *DummyProvider) classify(prompt string) models.ClassificationResult {
	payload := strings.ToLower(promptPayload(prompt))

	severity := models.SeverityLow
	for _, entry := range dummySeverityKeywords {
		if strings.Contains(payload, entry.keyword) {
			severity = entry.severity
			break
		}
	}

	eventType := models.EventTypeLog
	for _, entry := range dummyTypeKeywords {
		if strings.Contains(payload, entry.keyword) {
			eventType = entry.eventType
			break
		}
	}

	return models.ClassificationResult{
		EventType:  eventType,
		Severity:   severity,
		Confidence: 0.85,
		Reasoning:  "Heuristic classification based on keyword matching",
	}
}

func (p *DummyProvider) extract(prompt string) models.ExtractionResult {
	payload := promptPayload(prompt)
	lower := strings.ToLower(prompt)

	summary := payload
	if len(summary) > 120 {
		summary = summary[:120]
	}

	component := "unknown"
	for _, svc := range []string{"checkout", "payments", "inventory", "api-gateway", "auth"} {
		if strings.Contains(lower, svc) {
			component = svc
			break
		}
	}

	errorCode := ""
	for _, entry := range []struct{ needle, label string }{
		{"oom", "OOMKilled"},
		{"500", "HTTP 500"},
		{"502", "HTTP 502"},
		{"503", "HTTP 503"},
	} {
		if strings.Contains(lower, entry.needle) {
			errorCode = entry.label
			break
		}
	}

	userImpact := "No direct user impact detected"
	if strings.Contains(lower, "timeout") {
		userImpact = "Users experiencing timeouts"
	} else if strings.Contains(lower, "error") {
		userImpact = "Users seeing errors"
	}

	return models.ExtractionResult{
		Summary:           "Event detected: " + summary,
		AffectedComponent: component,
		ErrorCode:         errorCode,
		UserImpact:        userImpact,
	}
}

func (p *DummyProvider) rootCause(prompt string) models.RootCauseResult {
	lower := strings.ToLower(prompt)

	cause := "Unable to determine root cause from available data"
	recommendations := []string{"Investigate logs further", "Check recent deployments"}

	switch {
	case strings.Contains(lower, "memory") || strings.Contains(lower, "oom"):
		cause = "Memory leak or insufficient memory allocation"
		recommendations = []string{
			"Increase memory limits",
			"Profile application memory usage",
			"Check for memory leaks in recent changes",
		}
	case strings.Contains(lower, "cpu"):
		cause = "CPU saturation due to high load or inefficient processing"
		recommendations = []string{
			"Scale horizontally",
			"Profile CPU-intensive code paths",
			"Check for runaway processes",
		}
	case strings.Contains(lower, "5xx") || strings.Contains(lower, "500"):
		cause = "Application errors causing 5xx responses"
		recommendations = []string{
			"Check application logs for stack traces",
			"Review recent deployments",
			"Verify downstream service health",
		}
	case strings.Contains(lower, "deploy"):
		cause = "Recent deployment may have introduced issues"
		recommendations = []string{
			"Compare metrics before and after deploy",
			"Review changelog for breaking changes",
			"Consider rollback if issues persist",
		}
	}

	return models.RootCauseResult{
		RootCause:           cause,
		Confidence:          0.7,
		ContributingFactors: []string{"Keyword-based heuristic analysis"},
		Recommendations:     recommendations,
	}
}
