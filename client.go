// Package shortlist ranks a folder of resumes against a project description
// and asks an LLM to justify each match.
package shortlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	appkg "github.com/kailas-cloud/shortlist/internal/app"
	"github.com/kailas-cloud/shortlist/internal/db"
	dbRedis "github.com/kailas-cloud/shortlist/internal/db/redis"
	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
	"github.com/kailas-cloud/shortlist/internal/extract"
	"github.com/kailas-cloud/shortlist/internal/metrics"
	"github.com/kailas-cloud/shortlist/internal/repository/embcache"
	"github.com/kailas-cloud/shortlist/internal/usecase/enrich"
	"github.com/kailas-cloud/shortlist/internal/usecase/ingest"
	"github.com/kailas-cloud/shortlist/internal/usecase/search"
	shortlistuc "github.com/kailas-cloud/shortlist/internal/usecase/shortlist"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the shortlist SDK entry point. It holds one resume catalog,
// replaced by every successful Ingest.
type Client struct {
	app    *appkg.App
	store  db.Store
	logger *zap.Logger
}

// New creates a Client. WithEmbedder and WithCompleter are required.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.embedder == nil {
		return nil, errors.New("shortlist: embedder required (use WithEmbedder)")
	}
	if cfg.completer == nil {
		return nil, errors.New("shortlist: completer required (use WithCompleter)")
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	var store db.Store
	if len(cfg.cacheAddrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("shortlist: create cache store: %w", err)
		}
		if err := s.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("shortlist: cache not ready: %w", err)
		}
		store = s
	}

	return wireClient(cfg, store), nil
}

func wireClient(cfg *clientConfig, store db.Store) *Client {
	var doc domain.Embedder = &embedderAdapter{inner: cfg.embedder}
	if store != nil {
		doc = embcache.New(doc, store, embcache.Options{
			KeyPrefix: "shortlist:",
			Model:     "sdk",
			TTL:       cfg.cacheTTL,
		}, metrics.EmbeddingCacheTotal, cfg.logger)
	}
	var query domain.Embedder
	if cfg.queryEmbedder != nil {
		query = &embedderAdapter{inner: cfg.queryEmbedder}
	}

	var ext ingest.Extractor = extract.NewPDF(0)
	if cfg.extractor != nil {
		ext = cfg.extractor
	}

	return &Client{
		app: appkg.New(appkg.Deps{
			Extractor:     ext,
			DocEmbedder:   doc,
			QueryEmbedder: query,
			Completer:     &completerAdapter{inner: cfg.completer},
			Logger:        cfg.logger,
		}, cfg.appOptions()),
		store:  store,
		logger: cfg.logger,
	}
}

func (c *clientConfig) appOptions() appkg.Options {
	opts := appkg.DefaultOptions()
	opts.Ingest = ingest.Options{
		Workers:     c.ingestWorkers,
		FileTimeout: c.fileTimeout,
		BatchSize:   c.batchSize,
		Extension:   c.extension,
	}
	opts.Search = search.Options{DefaultTopK: c.defaultTopK}
	opts.Enrich = enrich.Options{MaxWorkers: c.enrichWorkers, Timeout: c.enrichTimeout}
	if c.maxRetries != nil {
		opts.Summarizer.MaxRetries = *c.maxRetries
	}
	return opts
}

// Close releases the cache connection, if any.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ingest extracts and embeds every resume in folder and replaces the catalog.
// On error the previous catalog stays in place.
func (c *Client) Ingest(ctx context.Context, folder string) (IngestReport, error) {
	r, err := c.app.Ingest.Ingest(ctx, folder)
	if err != nil {
		return r, fmt.Errorf("ingest: %w", err)
	}
	return r, nil
}

// Count returns the number of resumes in the current catalog.
func (c *Client) Count() int {
	return c.app.Search.Count()
}

// Search returns up to topK resumes most similar to the project description.
// Before the first Ingest it returns an empty slice.
func (c *Client) Search(ctx context.Context, project string, topK int) ([]Candidate, error) {
	found, err := c.app.Search.Search(ctx, project, topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]Candidate, len(found))
	for i, f := range found {
		out[i] = candidateFromDomain(f)
	}
	return out, nil
}

// Enrich asks the LLM to profile each candidate. Individual failures end up
// in the Summary status instead of an error.
func (c *Client) Enrich(ctx context.Context, project string, cands []Candidate) ([]Summary, EnrichStats) {
	in := make([]candidate.Candidate, len(cands))
	for i, cand := range cands {
		in[i] = candidateToDomain(cand, candidate.DefaultPreviewChars)
	}
	summaries, stats := c.app.Enrich.Enrich(ctx, project, in)
	return shortlistuc.Views(summaries), stats
}

// Shortlist runs ingest, search and enrich in one call.
func (c *Client) Shortlist(ctx context.Context, req Request) (Report, error) {
	r, err := c.app.Shortlist.Run(ctx, req)
	if err != nil {
		return r, fmt.Errorf("shortlist: %w", err)
	}
	return r, nil
}

// Export writes summaries in the given format.
func Export(w io.Writer, format Format, summaries []Summary) error {
	switch format {
	case FormatCSV:
		return shortlistuc.WriteCSV(w, summaries) //nolint:wrapcheck // already descriptive
	case FormatXLSX:
		return shortlistuc.WriteXLSX(w, summaries) //nolint:wrapcheck // already descriptive
	case FormatJSON, "":
		if err := json.NewEncoder(w).Encode(summaries); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported export format %q", ErrInvalidRequest, format)
	}
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// BatchEmbed uses the inner batch call when available.
func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	be, ok := a.inner.(BatchEmbedder)
	if !ok {
		return domain.BatchFallback(ctx, a, texts)
	}
	r, err := be.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// completerAdapter wraps public Completer to satisfy domain.ChatCompleter.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	r, err := a.inner.Complete(ctx, CompletionRequest{
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("complete: %w", err)
	}
	return domain.ChatResponse{
		Text:             r.Text,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
	}, nil
}
