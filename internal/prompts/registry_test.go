package prompts

import (
	"strings"
	"testing"
)

func TestFormatClassify(t *testing.T) {
	out, err := Format("classify", "v1", map[string]string{
		"Service":  "checkout",
		"Source":   "k8s",
		"Payload":  "CRITICAL OOMKilled container checkout exceeded memory limit",
		"Metadata": "map[]",
	})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	for _, want := range []string{"Service: checkout", "OOMKilled", "event_type"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered prompt missing %q", want)
		}
	}
}

func TestFormatUnknownTemplate(t *testing.T) {
	if _, err := Format("nonexistent", "v1", nil); err == nil {
		t.Fatal("expected error for unknown template name")
	}
	if _, err := Format("classify", "v99", nil); err == nil {
		t.Fatal("expected error for unknown version")
	}
}

func TestAvailable(t *testing.T) {
	names := Available("v1")
	want := map[string]bool{"classify": false, "extract": false, "root_cause": false}
	for _, name := range names {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("Available(v1) missing %q (got %v)", name, names)
		}
	}
	if Available("v99") != nil {
		t.Error("Available for unknown version should return nil")
	}
}
