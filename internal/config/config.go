package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the triage engine.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	LLM      LLMConfig      `yaml:"llm"`
	Embed    EmbedConfig    `yaml:"embedding"`
	Vector   VectorConfig   `yaml:"vector"`
	Store    StoreConfig    `yaml:"store"`
	Cache    CacheConfig    `yaml:"cache"`
	RAG      RAGConfig      `yaml:"rag"`
	Anomaly  AnomalyConfig  `yaml:"anomaly"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Alerts   AlertsConfig   `yaml:"alerts"`
}

// ServerConfig controls the HTTP ops listener.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// LLMConfig selects and configures the generation provider.
type LLMConfig struct {
	Provider  string        `yaml:"provider"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"apiKey"`
	BaseURL   string        `yaml:"baseURL"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"maxTokens"`
}

// EmbedConfig selects and configures the embedding provider.
type EmbedConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Dim      int    `yaml:"dim"`
}

// VectorConfig selects the vector index backend.
type VectorConfig struct {
	Backend  string         `yaml:"backend"`
	Weaviate WeaviateConfig `yaml:"weaviate"`
}

// WeaviateConfig configures the similarity search cluster.
type WeaviateConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Class    string        `yaml:"class"`
	Timeout  time.Duration `yaml:"timeout"`
}

// StoreConfig selects the event store backend.
type StoreConfig struct {
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings shared by the store and cache.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
}

// CacheConfig controls Redis-backed caching of retrieval results.
type CacheConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Redis       RedisConfig   `yaml:"redis"`
	RAGQueryTTL time.Duration `yaml:"ragQueryTTL"`
}

// RAGConfig controls document indexing and retrieval depth.
type RAGConfig struct {
	DocsDir        string `yaml:"docsDir"`
	TopK           int    `yaml:"topK"`
	MaxCharsPerDoc int    `yaml:"maxCharsPerDoc"`
}

// AnomalyConfig controls the EWMA detector.
type AnomalyConfig struct {
	StateFile  string  `yaml:"stateFile"`
	Alpha      float64 `yaml:"alpha"`
	ZThreshold float64 `yaml:"zThreshold"`
}

// PipelineConfig controls batch orchestration.
type PipelineConfig struct {
	PromptVersion  string        `yaml:"promptVersion"`
	AlertThreshold int           `yaml:"alertThreshold"`
	BatchSize      int           `yaml:"batchSize"`
	Interval       time.Duration `yaml:"interval"`
}

// AlertsConfig controls alert sinks.
type AlertsConfig struct {
	SlackWebhookURL string `yaml:"slackWebhookURL"`
	Terminal        bool   `yaml:"terminal"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TRIAGE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		LLM: LLMConfig{
			Provider:  "dummy",
			Model:     "gpt-4o-mini",
			Timeout:   30 * time.Second,
			MaxTokens: 1024,
		},
		Embed: EmbedConfig{
			Provider: "local",
			Model:    "text-embedding-3-small",
			Dim:      64,
		},
		Vector: VectorConfig{
			Backend: "memory",
			Weaviate: WeaviateConfig{
				Class:   "TriageDocument",
				Timeout: 5 * time.Second,
			},
		},
		Store: StoreConfig{
			Backend: "memory",
			Redis:   defaultRedisConfig(),
		},
		Cache: CacheConfig{
			Enabled:     false,
			Redis:       defaultRedisConfig(),
			RAGQueryTTL: 5 * time.Minute,
		},
		RAG: RAGConfig{
			DocsDir:        "data/documents",
			TopK:           3,
			MaxCharsPerDoc: 500,
		},
		Anomaly: AnomalyConfig{
			StateFile:  "data/anomaly_state.json",
			Alpha:      0.3,
			ZThreshold: 2.5,
		},
		Pipeline: PipelineConfig{
			PromptVersion:  "v1",
			AlertThreshold: 60,
			BatchSize:      10,
			Interval:       30 * time.Second,
		},
		Alerts: AlertsConfig{Terminal: true},
	}
}

func defaultRedisConfig() RedisConfig {
	return RedisConfig{
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		MaxRetries:   2,
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRIAGE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("TRIAGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRIAGE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("TRIAGE_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("TRIAGE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("TRIAGE_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v := os.Getenv("TRIAGE_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("TRIAGE_EMBED_PROVIDER"); v != "" {
		cfg.Embed.Provider = v
	}
	if v := os.Getenv("TRIAGE_VECTOR_BACKEND"); v != "" {
		cfg.Vector.Backend = v
	}
	if v := os.Getenv("TRIAGE_WEAVIATE_URL"); v != "" {
		cfg.Vector.Weaviate.Endpoint = v
	}
	if v := os.Getenv("TRIAGE_WEAVIATE_API_KEY"); v != "" {
		cfg.Vector.Weaviate.APIKey = v
	}
	if v := os.Getenv("TRIAGE_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("TRIAGE_REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("TRIAGE_REDIS_USERNAME"); v != "" {
		cfg.Store.Redis.Username = v
		cfg.Cache.Redis.Username = v
	}
	if v := os.Getenv("TRIAGE_REDIS_PASSWORD"); v != "" {
		cfg.Store.Redis.Password = v
		cfg.Cache.Redis.Password = v
	}
	if v := os.Getenv("TRIAGE_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Store.Redis.DB = db
			cfg.Cache.Redis.DB = db
		}
	}
	if v := os.Getenv("TRIAGE_REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		cfg.Store.Redis.TLS = true
		cfg.Cache.Redis.TLS = true
	}
	if v := os.Getenv("TRIAGE_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("TRIAGE_CACHE_RAG_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.RAGQueryTTL = d
		}
	}
	if v := os.Getenv("TRIAGE_RAG_DOCS_DIR"); v != "" {
		cfg.RAG.DocsDir = v
	}
	if v := os.Getenv("TRIAGE_RAG_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.RAG.TopK = k
		}
	}
	if v := os.Getenv("TRIAGE_ANOMALY_STATE_FILE"); v != "" {
		cfg.Anomaly.StateFile = v
	}
	if v := os.Getenv("TRIAGE_ANOMALY_Z_THRESHOLD"); v != "" {
		if z, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Anomaly.ZThreshold = z
		}
	}
	if v := os.Getenv("TRIAGE_PROMPT_VERSION"); v != "" {
		cfg.Pipeline.PromptVersion = v
	}
	if v := os.Getenv("TRIAGE_ALERT_THRESHOLD"); v != "" {
		if threshold, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.AlertThreshold = threshold
		}
	}
	if v := os.Getenv("TRIAGE_BATCH_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.BatchSize = size
		}
	}
	if v := os.Getenv("TRIAGE_PIPELINE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Pipeline.Interval = d
		}
	}
	if v := os.Getenv("TRIAGE_SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.SlackWebhookURL = v
	}
	if v := os.Getenv("TRIAGE_ALERT_TERMINAL"); v != "" {
		cfg.Alerts.Terminal = strings.EqualFold(v, "true") || v == "1"
	}
}
