package anomaly

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/signalfold/triage-engine/internal/models"
)

func TestDetectColdStart(t *testing.T) {
	d := NewDetector(nil)

	severities := []models.Severity{models.SeverityLow, models.SeverityCritical}
	for _, sev := range severities {
		result := d.Detect("checkout", models.EventTypeLog, sev)
		if result.IsAnomaly {
			t.Fatalf("cold-start bucket flagged anomaly for %s", sev)
		}
		if result.ZScore != 0 {
			t.Fatalf("cold-start z-score = %f, want 0", result.ZScore)
		}
		if result.Bucket != "checkout:log" {
			t.Fatalf("bucket = %q, want checkout:log", result.Bucket)
		}
	}
}

func TestDetectSpikeAfterTraining(t *testing.T) {
	d := NewDetector(nil)

	for i := 0; i < 10; i++ {
		if res := d.Detect("payments", models.EventTypeLog, models.SeverityLow); res.IsAnomaly {
			t.Fatalf("training observation %d flagged anomaly", i)
		}
	}

	spike := d.Detect("payments", models.EventTypeLog, models.SeverityCritical)
	if !spike.IsAnomaly {
		t.Fatalf("critical spike not flagged, z=%f", spike.ZScore)
	}
	if math.Abs(spike.ZScore) <= spike.Threshold {
		t.Fatalf("|z| = %f not above threshold %f", math.Abs(spike.ZScore), spike.Threshold)
	}

	same := d.Detect("payments", models.EventTypeLog, models.SeverityLow)
	if same.IsAnomaly {
		t.Fatalf("same-distribution observation flagged anomaly, z=%f", same.ZScore)
	}
}

func TestBucketsAreIndependent(t *testing.T) {
	d := NewDetector(nil)

	for i := 0; i < 10; i++ {
		d.Detect("checkout", models.EventTypeLog, models.SeverityLow)
		d.Detect("checkout", models.EventTypeDeploy, models.SeverityLow)
	}
	// Skew one bucket with repeated spikes.
	for i := 0; i < 5; i++ {
		d.Detect("checkout", models.EventTypeLog, models.SeverityCritical)
	}

	result := d.Detect("checkout", models.EventTypeDeploy, models.SeverityCritical)
	if !result.IsAnomaly {
		t.Fatalf("sibling bucket lost its baseline: z=%f", result.ZScore)
	}
}

func TestStateRoundTrip(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "state.json")

	first := NewDetector(nil, WithStateFile(stateFile))
	for i := 0; i < 10; i++ {
		first.Detect("inventory", models.EventTypeLog, models.SeverityLow)
	}
	if err := first.SaveState(); err != nil {
		t.Fatalf("save state: %v", err)
	}

	second := NewDetector(nil, WithStateFile(stateFile))
	sequence := []models.Severity{
		models.SeverityLow,
		models.SeverityCritical,
		models.SeverityMedium,
	}
	for _, sev := range sequence {
		want := first.Detect("inventory", models.EventTypeLog, sev)
		got := second.Detect("inventory", models.EventTypeLog, sev)
		if want.IsAnomaly != got.IsAnomaly || math.Abs(want.ZScore-got.ZScore) > 1e-9 {
			t.Fatalf("reloaded detector diverged: want %+v, got %+v", want, got)
		}
	}
}

func TestLoadCorruptStateStartsEmpty(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(stateFile, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	d := NewDetector(nil, WithStateFile(stateFile))
	if len(d.Snapshot()) != 0 {
		t.Fatalf("expected empty state after corrupt load")
	}
}

func TestResetStateDeletesFile(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "state.json")

	d := NewDetector(nil, WithStateFile(stateFile))
	d.Detect("auth", models.EventTypeLog, models.SeverityLow)
	if err := d.SaveState(); err != nil {
		t.Fatalf("save state: %v", err)
	}
	if err := d.ResetState(); err != nil {
		t.Fatalf("reset state: %v", err)
	}
	if _, err := os.Stat(stateFile); !os.IsNotExist(err) {
		t.Fatalf("state file still exists after reset")
	}
	if len(d.Snapshot()) != 0 {
		t.Fatalf("in-memory state not cleared")
	}
}

func TestSnapshotStatusAndOrder(t *testing.T) {
	d := NewDetector(nil)

	d.Detect("zeta", models.EventTypeLog, models.SeverityLow)
	for i := 0; i < 4; i++ {
		d.Detect("alpha", models.EventTypeLog, models.SeverityLow)
	}

	views := d.Snapshot()
	if len(views) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(views))
	}
	if views[0].Bucket != "alpha:log" || views[1].Bucket != "zeta:log" {
		t.Fatalf("snapshot not sorted: %v", views)
	}
	if views[0].Status != "active" {
		t.Fatalf("bucket with %d observations should be active", views[0].Count)
	}
	if views[1].Status != "training" {
		t.Fatalf("bucket with %d observations should be training", views[1].Count)
	}
}
