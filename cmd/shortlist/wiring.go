package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appkg "github.com/kailas-cloud/shortlist/internal/app"
	"github.com/kailas-cloud/shortlist/internal/config"
	"github.com/kailas-cloud/shortlist/internal/db"
	dbRedis "github.com/kailas-cloud/shortlist/internal/db/redis"
	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/extract"
	"github.com/kailas-cloud/shortlist/internal/metrics"
	"github.com/kailas-cloud/shortlist/internal/repository/embcache"
	geminiChat "github.com/kailas-cloud/shortlist/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/shortlist/internal/transport/openai"
	chatuc "github.com/kailas-cloud/shortlist/internal/usecase/chat"
	"github.com/kailas-cloud/shortlist/internal/usecase/enrich"
	embeddinguc "github.com/kailas-cloud/shortlist/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/shortlist/internal/usecase/health"
	"github.com/kailas-cloud/shortlist/internal/usecase/ingest"
	"github.com/kailas-cloud/shortlist/internal/usecase/search"
)

// runtime is the composition root shared by rank and serve.
type runtime struct {
	app    *appkg.App
	health *healthuc.Service
	store  db.Store
}

func newRuntime(ctx context.Context, cfg config.Config, logger *zap.Logger) (*runtime, error) {
	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	var store db.Store
	if cfg.Cache.Enabled() {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		if err := s.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			s.Close()
			return nil, fmt.Errorf("cache not ready: %w", err)
		}
		store = s
		logger.Info("Connected to embedding cache",
			zap.String("driver", cfg.Cache.Driver),
			zap.Strings("addrs", cfg.Cache.Addrs),
		)
	}

	docEmbedder := buildEmbedder(cfg, cfg.Embedding.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(cfg, cfg.Embedding.QueryInstruction, store, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	completer, err := buildCompleter(ctx, cfg.LLM, logger)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}

	a := appkg.New(appkg.Deps{
		Extractor:     extract.NewPDF(int64(cfg.Ingest.MaxFileSizeMB) << 20),
		DocEmbedder:   docEmbedder,
		QueryEmbedder: queryEmbedder,
		Completer:     completer,
		Logger:        logger,
	}, appOptions(cfg))

	// Pass nil interface (not typed nil pointer!) if the cache is not configured.
	var pinger healthuc.CachePinger
	if store != nil {
		pinger = store
	}

	return &runtime{
		app:    a,
		health: healthuc.New(pinger, newEmbeddingHealthChecker(docEmbedder), a.Catalogs),
		store:  store,
	}, nil
}

func (r *runtime) Close() {
	if r.store != nil {
		r.store.Close()
	}
}

func appOptions(cfg config.Config) appkg.Options {
	return appkg.Options{
		Ingest: ingest.Options{
			Workers:       cfg.Ingest.Workers,
			FileTimeout:   cfg.Ingest.FileTimeout(),
			BatchSize:     cfg.Ingest.BatchSize,
			ProgressEvery: cfg.Ingest.ProgressEvery,
			Extension:     cfg.Ingest.Extension,
		},
		Search: search.Options{
			DefaultTopK:  cfg.Search.DefaultTopK,
			PreviewChars: cfg.Search.PreviewChars,
		},
		Enrich: enrich.Options{
			MaxWorkers: cfg.Enrich.MaxWorkers,
			Timeout:    cfg.Enrich.Timeout(),
		},
		Summarizer: enrich.SummarizerOptions{
			MaxRetries:   cfg.Enrich.Retries(),
			BaseDelay:    cfg.Enrich.BaseDelay(),
			ProjectChars: cfg.Enrich.ProjectChars,
			ResumeChars:  cfg.Enrich.ResumeChars,
			MaxTokens:    cfg.LLM.MaxTokens,
			Temperature:  *cfg.LLM.Temperature,
		},
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(cfg config.Config, instruction string, store db.Store, logger *zap.Logger) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, embcache.Options{
			KeyPrefix: cfg.Cache.KeyPrefix,
			Model:     cfg.Embedding.Model,
			TTL:       time.Duration(cfg.Cache.TTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Ingest.BatchSize, logger,
	)

	// Instruction prefix (outermost, so the cache key includes the instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// buildCompleter picks the LLM provider and wraps it with the rate limiter and circuit breaker.
func buildCompleter(ctx context.Context, llm config.LLMConfig, logger *zap.Logger) (domain.ChatCompleter, error) {
	var inner domain.ChatCompleter
	switch llm.Provider {
	case "gemini":
		c, err := geminiChat.NewCompleter(ctx, llm.APIKey, llm.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("create gemini completer: %w", err)
		}
		inner = c
	default:
		inner = openaiTransport.NewCompleter(&openaiTransport.ChatConfig{
			APIKey:   llm.APIKey,
			BaseURL:  llm.BaseURL,
			Model:    llm.Model,
			Provider: llm.Provider,
			Logger:   logger,
		})
	}

	logger.Info("LLM client created",
		zap.String("provider", llm.Provider),
		zap.String("model", llm.Model),
		zap.Int("requests_per_minute", llm.RequestsPerMinute),
	)

	return chatuc.NewGuardedCompleter(inner, chatuc.Options{
		Provider:          llm.Provider,
		Model:             llm.Model,
		RequestsPerMinute: llm.RequestsPerMinute,
		MaxFailures:       llm.Breaker.MaxFailures,
		OpenTimeout:       time.Duration(llm.Breaker.OpenTimeoutSec) * time.Second,
		HalfOpenRequests:  llm.Breaker.HalfOpenRequests,
	}, logger), nil
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
