package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Fatalf("server address = %q", cfg.Server.Address)
	}
	if cfg.LLM.Provider != "dummy" {
		t.Fatalf("llm provider = %q", cfg.LLM.Provider)
	}
	if cfg.Pipeline.AlertThreshold != 60 {
		t.Fatalf("alert threshold = %d", cfg.Pipeline.AlertThreshold)
	}
	if cfg.Anomaly.Alpha != 0.3 || cfg.Anomaly.ZThreshold != 2.5 {
		t.Fatalf("anomaly defaults = %v/%v", cfg.Anomaly.Alpha, cfg.Anomaly.ZThreshold)
	}
	if cfg.RAG.TopK != 3 {
		t.Fatalf("rag topK = %d", cfg.RAG.TopK)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  address: ":9090"
llm:
  provider: openai
  model: gpt-4o
pipeline:
  alertThreshold: 75
  interval: 10s
alerts:
  slackWebhookURL: https://hooks.example.com/T123
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("server address = %q", cfg.Server.Address)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("llm = %q/%q", cfg.LLM.Provider, cfg.LLM.Model)
	}
	if cfg.Pipeline.AlertThreshold != 75 {
		t.Fatalf("alert threshold = %d", cfg.Pipeline.AlertThreshold)
	}
	if cfg.Pipeline.Interval != 10*time.Second {
		t.Fatalf("interval = %v", cfg.Pipeline.Interval)
	}
	// Unset fields keep their defaults.
	if cfg.Anomaly.StateFile != "data/anomaly_state.json" {
		t.Fatalf("state file = %q", cfg.Anomaly.StateFile)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRIAGE_LLM_PROVIDER", "openai")
	t.Setenv("TRIAGE_ALERT_THRESHOLD", "45")
	t.Setenv("TRIAGE_LOG_FORMAT", "json")
	t.Setenv("TRIAGE_REDIS_ADDR", "redis:6379")
	t.Setenv("TRIAGE_PIPELINE_INTERVAL", "1m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "openai" {
		t.Fatalf("llm provider = %q", cfg.LLM.Provider)
	}
	if cfg.Pipeline.AlertThreshold != 45 {
		t.Fatalf("alert threshold = %d", cfg.Pipeline.AlertThreshold)
	}
	if !cfg.Logging.JSON {
		t.Fatalf("expected JSON logging")
	}
	if cfg.Store.Redis.Addr != "redis:6379" || cfg.Cache.Redis.Addr != "redis:6379" {
		t.Fatalf("redis addr not propagated: %q/%q", cfg.Store.Redis.Addr, cfg.Cache.Redis.Addr)
	}
	if cfg.Pipeline.Interval != time.Minute {
		t.Fatalf("interval = %v", cfg.Pipeline.Interval)
	}
}
