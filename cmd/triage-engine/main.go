package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalfold/triage-engine/internal/anomaly"
	"github.com/signalfold/triage-engine/internal/api"
	"github.com/signalfold/triage-engine/internal/cache"
	"github.com/signalfold/triage-engine/internal/config"
	"github.com/signalfold/triage-engine/internal/embed"
	"github.com/signalfold/triage-engine/internal/engine"
	"github.com/signalfold/triage-engine/internal/gen"
	"github.com/signalfold/triage-engine/internal/llm"
	"github.com/signalfold/triage-engine/internal/metrics"
	"github.com/signalfold/triage-engine/internal/rag"
	"github.com/signalfold/triage-engine/internal/services"
	"github.com/signalfold/triage-engine/internal/sink"
	"github.com/signalfold/triage-engine/internal/store"
	"github.com/signalfold/triage-engine/internal/utils"
	"github.com/signalfold/triage-engine/internal/vecstore"
)

func main() {
	var (
		configPath string
		once       bool
		dry        bool
		batchSize  int
		interval   time.Duration
		seed       int64
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&once, "once", false, "Process a single batch and exit")
	flag.BoolVar(&dry, "dry", false, "Keep everything in memory: no Redis, no state file, no Slack")
	flag.IntVar(&batchSize, "count", 0, "Events per batch (overrides config)")
	flag.DurationVar(&interval, "interval", 0, "Continuous mode batch interval (overrides config)")
	flag.Int64Var(&seed, "seed", 0, "Seed for the synthetic event generator")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}
	if batchSize > 0 {
		cfg.Pipeline.BatchSize = batchSize
	}
	if interval > 0 {
		cfg.Pipeline.Interval = interval
	}
	if dry {
		cfg.Store.Backend = "memory"
		cfg.Vector.Backend = "memory"
		cfg.Cache.Enabled = false
		cfg.Anomaly.StateFile = ""
		cfg.Alerts.SlackWebhookURL = ""
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting triage-engine",
		slog.String("address", cfg.Server.Address),
		slog.String("llm_provider", cfg.LLM.Provider),
	)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Redis.Addr != "" {
		provider, err := cache.NewRedisProvider(cache.RedisConfig{
			Addr:         cfg.Cache.Redis.Addr,
			Username:     cfg.Cache.Redis.Username,
			Password:     cfg.Cache.Redis.Password,
			DB:           cfg.Cache.Redis.DB,
			DialTimeout:  cfg.Cache.Redis.DialTimeout,
			ReadTimeout:  cfg.Cache.Redis.ReadTimeout,
			WriteTimeout: cfg.Cache.Redis.WriteTimeout,
			MaxRetries:   cfg.Cache.Redis.MaxRetries,
			TLS:          cfg.Cache.Redis.TLS,
		})
		if err != nil {
			logger.Warn("redis cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			defer provider.Close()
		}
	}

	var embedder embed.Embedder
	switch cfg.Embed.Provider {
	case "openai":
		embedder = embed.NewOpenAIEmbedder(cfg.LLM.APIKey, cfg.Embed.Model)
	default:
		embedder = embed.NewLocalEmbedder(cfg.Embed.Dim)
	}

	var index vecstore.Index
	switch cfg.Vector.Backend {
	case "weaviate":
		index = vecstore.NewWeaviateIndex(
			cfg.Vector.Weaviate.Endpoint,
			cfg.Vector.Weaviate.APIKey,
			cfg.Vector.Weaviate.Class,
			cfg.Vector.Weaviate.Timeout,
		)
	default:
		index = vecstore.NewMemoryIndex(0)
	}

	ragEngine := rag.NewEngine(logger, embedder, index,
		rag.WithTopK(cfg.RAG.TopK),
		rag.WithCache(cacheProvider, cfg.Cache.RAGQueryTTL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if docs, err := rag.LoadDocuments(cfg.RAG.DocsDir); err != nil {
		logger.Warn("document load failed", slog.String("dir", cfg.RAG.DocsDir), slog.Any("error", err))
	} else if len(docs) > 0 {
		indexed, err := ragEngine.IndexDocuments(ctx, docs)
		if err != nil {
			logger.Warn("document indexing stopped early",
				slog.Int("indexed", indexed), slog.Any("error", err))
		} else {
			logger.Info("documents indexed", slog.Int("count", indexed))
		}
	}

	var provider llm.Provider
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			logger.Error("openai provider requires an API key")
			os.Exit(1)
		}
		provider = llm.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.Model)
	default:
		provider = llm.NewDummyProvider()
	}

	detector := anomaly.NewDetector(logger,
		anomaly.WithStateFile(cfg.Anomaly.StateFile),
		anomaly.WithAlpha(cfg.Anomaly.Alpha),
		anomaly.WithZThreshold(cfg.Anomaly.ZThreshold),
	)

	sinks := []sink.Sink{sink.NewLogSink(logger)}
	var terminal *sink.TerminalSink
	if cfg.Alerts.Terminal {
		terminal = sink.NewTerminalSink(os.Stdout)
		sinks = append(sinks, terminal)
	}
	if cfg.Alerts.SlackWebhookURL != "" {
		sinks = append(sinks, sink.NewSlackSink(logger, cfg.Alerts.SlackWebhookURL, 10*time.Second))
	}

	var events store.EventStore
	switch cfg.Store.Backend {
	case "redis":
		redisStore, err := store.NewRedisStore(
			cfg.Store.Redis.Addr,
			cfg.Store.Redis.Username,
			cfg.Store.Redis.Password,
			cfg.Store.Redis.DB,
		)
		if err != nil {
			logger.Error("redis store unavailable", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisStore.Close()
		events = redisStore
	default:
		events = store.NewMemoryStore()
	}

	pipeline := engine.NewPipeline(logger, provider, ragEngine, detector, sinks,
		engine.WithPromptVersion(cfg.Pipeline.PromptVersion),
		engine.WithAlertThreshold(cfg.Pipeline.AlertThreshold),
		engine.WithLLMMaxTokens(cfg.LLM.MaxTokens),
		engine.WithEventStore(events),
	)
	svc := services.NewTriageService(logger, pipeline, events, gen.NewGenerator(seed), cfg.Pipeline.BatchSize)

	if once {
		result, err := svc.RunOnce(ctx)
		if err != nil {
			logger.Error("batch run failed", slog.Any("error", err))
			os.Exit(1)
		}
		if terminal != nil {
			terminal.PrintSummaryTable(result.Alerts)
		}
		logger.Info("batch complete",
			slog.Int("enriched", len(result.Enriched)),
			slog.Int("alerts", len(result.Alerts)),
			slog.Float64("cost_usd", result.Record.TotalCostUSD),
		)
		return
	}

	handlers := api.NewHandlers(logger, detector, svc)
	server, err := api.NewServer(cfg.Server, handlers, prometheus.DefaultGatherer)
	if err != nil {
		logger.Error("failed to create server", slog.Any("error", err))
		os.Exit(1)
	}

	go func() {
		logger.Info("ops server listening", slog.String("address", server.Address()))
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	go func() {
		if err := svc.RunContinuous(ctx, cfg.Pipeline.Interval); err != nil && err != context.Canceled {
			logger.Error("runner exited", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if err := detector.SaveState(); err != nil {
		logger.Warn("final state save failed", slog.Any("error", err))
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("triage-engine stopped")
}
