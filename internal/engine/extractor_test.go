package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/signalfold/triage-engine/internal/models"
	"github.com/signalfold/triage-engine/internal/trace"
)

func classifiedEvent(service, payload string) models.ClassifiedEvent {
	raw := models.NewRawEvent(models.SourceApplication, service, payload, nil)
	return models.ClassifiedFromRaw(raw, models.EventTypeAppError, models.SeverityHigh, 0.6, models.MethodHeuristic)
}

func TestRegexExtractErrorCodes(t *testing.T) {
	cases := []struct {
		payload string
		code    string
	}{
		{"request failed with HTTP 503 from upstream", "HTTP 503"},
		{"container OOMKilled by kubelet", "OOMKilled"},
		{"connect ECONNREFUSED 10.0.0.5:6379", "ECONNREFUSED"},
		{"gateway TIMEOUT after 30s", "TIMEOUT"},
		{"nothing interesting here", ""},
	}

	for _, tc := range cases {
		result := regexExtract(classifiedEvent("orders", tc.payload))
		if result.ErrorCode != tc.code {
			t.Fatalf("payload %q: error code = %q, want %q", tc.payload, result.ErrorCode, tc.code)
		}
	}
}

func TestRegexExtractSummaryTruncation(t *testing.T) {
	long := strings.Repeat("x", 300)
	result := regexExtract(classifiedEvent("orders", long))

	if !strings.HasSuffix(result.Summary, "...") {
		t.Fatalf("summary missing ellipsis: %q", result.Summary)
	}
	if len(result.Summary) != extractSummaryLimit+3 {
		t.Fatalf("summary length = %d, want %d", len(result.Summary), extractSummaryLimit+3)
	}

	short := regexExtract(classifiedEvent("orders", "short payload"))
	if short.Summary != "short payload" {
		t.Fatalf("short summary = %q", short.Summary)
	}
}

func TestRegexExtractComponentAndImpact(t *testing.T) {
	result := regexExtract(classifiedEvent("payments", "ERROR something broke"))
	if result.AffectedComponent != "payments" {
		t.Fatalf("component = %q, want payments", result.AffectedComponent)
	}
	if result.UserImpact != "Unknown — extracted via regex fallback" {
		t.Fatalf("user impact = %q", result.UserImpact)
	}
}

func TestExtractFallsBackOnProviderFailure(t *testing.T) {
	p := newTestPipeline(t, failingProvider{}, nil)
	tracer := trace.NewTracer(testLogger(), "v1")

	event := classifiedEvent("inventory", "requests failing with HTTP 500")
	result := p.extract(context.Background(), tracer, event)

	if result.ErrorCode != "HTTP 500" {
		t.Fatalf("error code = %q, want HTTP 500", result.ErrorCode)
	}
	if result.AffectedComponent != "inventory" {
		t.Fatalf("component = %q, want inventory", result.AffectedComponent)
	}

	records := tracer.Metrics.Records()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if !records[0].FallbackUsed || records[0].Success {
		t.Fatalf("record = %+v, want failed call with fallback", records[0])
	}
	if records[0].Step != "extract" {
		t.Fatalf("step = %s, want extract", records[0].Step)
	}
}
