// Package ingest builds a searchable catalog from a folder of resumes.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/catalog"
	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/domain/document"
	"github.com/kailas-cloud/shortlist/internal/metrics"
	"github.com/kailas-cloud/shortlist/internal/workerpool"
)

// Defaults.
const (
	DefaultWorkers       = 4
	DefaultFileTimeout   = 120 * time.Second
	DefaultBatchSize     = 32
	DefaultProgressEvery = 10
	DefaultExtension     = ".pdf"
)

// Options configure an ingestion run.
type Options struct {
	Workers       int
	FileTimeout   time.Duration
	BatchSize     int
	ProgressEvery int
	Extension     string
}

func (o *Options) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.FileTimeout <= 0 {
		o.FileTimeout = DefaultFileTimeout
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}
}

// Report summarizes one ingestion run. It is filled in as far as the run got, even on error.
type Report struct {
	Folder          string        `json:"folder"`
	FilesFound      int           `json:"files_found"`
	Extracted       int           `json:"extracted"`
	SkippedEmpty    int           `json:"skipped_empty"`
	Failed          int           `json:"failed"`
	TimedOut        int           `json:"timed_out"`
	Indexed         int           `json:"indexed"`
	Dimensions      int           `json:"dimensions"`
	EmbeddingTokens int           `json:"embedding_tokens"`
	ExtractDuration time.Duration `json:"extract_duration"`
	EmbedDuration   time.Duration `json:"embed_duration"`
	TotalDuration   time.Duration `json:"total_duration"`
}

type outcome string

const (
	outcomeOK      outcome = "ok"
	outcomeEmpty   outcome = "empty"
	outcomeFailed  outcome = "failed"
	outcomeTimeout outcome = "timeout"
)

type extraction struct {
	idx     int
	doc     document.Document
	outcome outcome
	err     error
}

// Service runs the ingestion pipeline. Runs are serialized; the published catalog
// is replaced only when a run fully succeeds.
type Service struct {
	mu        sync.Mutex
	extractor Extractor
	embedder  domain.Embedder
	publisher Publisher
	pool      *workerpool.Pool
	opts      Options
	logger    *zap.Logger
}

// New creates an ingestion service.
func New(
	extractor Extractor, embedder domain.Embedder, publisher Publisher,
	opts Options, logger *zap.Logger,
) *Service {
	opts.applyDefaults()

	pool := workerpool.New(opts.Workers).OnPanic(func(i int, err *workerpool.PanicError) {
		logger.Error("Extraction task panicked", zap.Int("task", i), zap.Error(err))
	})

	return &Service{
		extractor: extractor,
		embedder:  embedder,
		publisher: publisher,
		pool:      pool,
		opts:      opts,
		logger:    logger,
	}
}

// Ingest extracts, embeds and indexes every matching file in folder and publishes the
// resulting catalog. A nil error means the new catalog is live.
func (s *Service) Ingest(ctx context.Context, folder string) (report Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	report.Folder = folder
	defer func() {
		report.TotalDuration = time.Since(start)
		metrics.IngestDuration.WithLabelValues("total").Observe(report.TotalDuration.Seconds())
	}()

	paths, err := discover(folder, s.opts.Extension)
	if err != nil {
		s.logger.Warn("Resume discovery failed", zap.String("folder", folder), zap.Error(err))
		return report, err
	}
	report.FilesFound = len(paths)

	s.logger.Info("Starting resume ingestion",
		zap.String("folder", folder),
		zap.Int("files", len(paths)),
		zap.Int("workers", s.pool.Limit()),
	)

	extractStart := time.Now()
	docs := s.extractAll(ctx, paths, &report)
	report.ExtractDuration = time.Since(extractStart)
	metrics.IngestDuration.WithLabelValues("extract").Observe(report.ExtractDuration.Seconds())

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("ingest cancelled: %w", err)
	}

	if len(docs) == 0 {
		return report, fmt.Errorf("%d files found, none usable: %w", len(paths), domain.ErrNoValidDocuments)
	}

	embedStart := time.Now()
	vectors, tokens, err := s.embedAll(ctx, docs)
	report.EmbedDuration = time.Since(embedStart)
	metrics.IngestDuration.WithLabelValues("embed").Observe(report.EmbedDuration.Seconds())
	if err != nil {
		s.logger.Error("Embedding resumes failed, keeping previous catalog", zap.Error(err))
		return report, fmt.Errorf("%w: %w", domain.ErrIndexBuild, err)
	}
	report.EmbeddingTokens = tokens
	domain.UsageFromContext(ctx).AddTokens(tokens)

	cat, err := catalog.New(docs, vectors)
	if err != nil {
		s.logger.Error("Building index failed, keeping previous catalog", zap.Error(err))
		return report, fmt.Errorf("%w: %w", domain.ErrIndexBuild, err)
	}

	s.publisher.Set(cat)
	metrics.CatalogDocuments.Set(float64(cat.Len()))

	report.Indexed = cat.Len()
	report.Dimensions = cat.Dim()

	s.logger.Info("Resume ingestion completed",
		zap.Int("files", report.FilesFound),
		zap.Int("indexed", report.Indexed),
		zap.Int("skipped_empty", report.SkippedEmpty),
		zap.Int("failed", report.Failed),
		zap.Int("timed_out", report.TimedOut),
		zap.Duration("duration", time.Since(start)),
	)

	return report, nil
}

// extractAll runs extraction on the pool and returns indexable documents in discovery order.
func (s *Service) extractAll(ctx context.Context, paths []string, report *Report) []document.Document {
	results := make(chan extraction, len(paths))
	collected := make([]extraction, 0, len(paths))
	done := make(chan struct{})

	go func() {
		defer close(done)
		for r := range results {
			collected = append(collected, r)
			metrics.IngestFilesTotal.WithLabelValues(string(r.outcome)).Inc()
			s.logExtraction(r)

			if n := len(collected); n%s.opts.ProgressEvery == 0 || n == len(paths) {
				s.logger.Info("Extraction progress",
					zap.Int("completed", n),
					zap.Int("total", len(paths)),
				)
			}
		}
	}()

	s.pool.Run(ctx, len(paths), func(ctx context.Context, i int) {
		results <- s.extractOne(ctx, i, paths[i])
	})
	close(results)
	<-done

	sort.Slice(collected, func(a, b int) bool { return collected[a].idx < collected[b].idx })

	docs := make([]document.Document, 0, len(collected))
	for _, r := range collected {
		switch r.outcome {
		case outcomeOK:
			report.Extracted++
			docs = append(docs, r.doc)
		case outcomeEmpty:
			report.Extracted++
			report.SkippedEmpty++
		case outcomeTimeout:
			report.TimedOut++
		default:
			report.Failed++
		}
	}
	// Tasks lost to a panic never reach the collector.
	report.Failed += len(paths) - len(collected)

	return docs
}

func (s *Service) extractOne(ctx context.Context, i int, path string) extraction {
	start := time.Now()

	text, err := workerpool.WithTimeout(ctx, s.opts.FileTimeout, func(ctx context.Context) (string, error) {
		return s.extractor.Extract(ctx, path)
	})

	dur := time.Since(start)

	switch {
	case errors.Is(err, workerpool.ErrTimeout):
		return extraction{idx: i, doc: document.Failed(path, dur), outcome: outcomeTimeout, err: err}
	case err != nil:
		return extraction{idx: i, doc: document.Failed(path, dur), outcome: outcomeFailed, err: err}
	}

	doc := document.New(path, text, dur)
	if !doc.Indexable() {
		return extraction{idx: i, doc: doc, outcome: outcomeEmpty}
	}
	return extraction{idx: i, doc: doc, outcome: outcomeOK}
}

func (s *Service) logExtraction(r extraction) {
	fields := []zap.Field{
		zap.String("file", r.doc.FileName()),
		zap.Duration("duration", r.doc.Duration()),
	}

	switch r.outcome {
	case outcomeOK:
		s.logger.Debug("Extracted resume", append(fields, zap.Int("chars", len(r.doc.Text())))...)
	case outcomeEmpty:
		s.logger.Warn("Resume has no extractable text, skipping", fields...)
	case outcomeTimeout:
		s.logger.Warn("Resume extraction timed out", append(fields, zap.Duration("timeout", s.opts.FileTimeout))...)
	default:
		s.logger.Warn("Resume extraction failed", append(fields, zap.Error(r.err))...)
	}
}

// embedAll embeds documents in batches and returns L2-normalized vectors, row i for docs[i].
func (s *Service) embedAll(ctx context.Context, docs []document.Document) ([][]float32, int, error) {
	vectors := make([][]float32, 0, len(docs))
	var tokens int

	for offset := 0; offset < len(docs); offset += s.opts.BatchSize {
		end := min(offset+s.opts.BatchSize, len(docs))

		texts := make([]string, 0, end-offset)
		for _, d := range docs[offset:end] {
			texts = append(texts, d.Text())
		}

		res, err := domain.EmbedBatch(ctx, s.embedder, texts)
		if err != nil {
			return nil, 0, fmt.Errorf("embed batch at %d: %w", offset, err)
		}
		if len(res.Embeddings) != len(texts) {
			return nil, 0, fmt.Errorf("batch at %d: expected %d embeddings, got %d: %w",
				offset, len(texts), len(res.Embeddings), domain.ErrEmbeddingProviderError)
		}

		for _, v := range res.Embeddings {
			vectors = append(vectors, domain.Normalize(v))
		}
		tokens += res.TotalTokens

		s.logger.Debug("Embedded resume batch",
			zap.Int("offset", offset),
			zap.Int("size", len(texts)),
		)
	}

	return vectors, tokens, nil
}
