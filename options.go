package shortlist

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	embedder      Embedder
	queryEmbedder Embedder
	completer     Completer
	extractor     Extractor

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	ingestWorkers int
	fileTimeout   time.Duration
	batchSize     int
	extension     string

	enrichWorkers int
	enrichTimeout time.Duration
	maxRetries    *int
	defaultTopK   int

	logger *zap.Logger
}

// WithEmbedder sets the embedding provider used for resumes and, unless
// WithQueryEmbedder is given, for project descriptions. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithQueryEmbedder sets a separate embedder for project descriptions.
func WithQueryEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryEmbedder = e
	})
}

// WithCompleter sets the LLM used to analyze candidates. Required.
func WithCompleter(cm Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cm
	})
}

// WithExtractor replaces the built-in PDF text extractor.
func WithExtractor(e Extractor) Option {
	return optionFunc(func(c *clientConfig) {
		c.extractor = e
	})
}

// WithRedisCache caches resume embeddings in Redis or Valkey.
// Re-ingesting an unchanged folder then costs no embedding tokens.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithIngestWorkers sets the number of concurrent file extractions. Default: 4.
func WithIngestWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.ingestWorkers = n
	})
}

// WithFileTimeout sets the per-file extraction deadline. Default: 120s.
func WithFileTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.fileTimeout = d
	})
}

// WithBatchSize sets how many resumes are embedded per request. Default: 32.
func WithBatchSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = n
	})
}

// WithExtension sets the resume file extension, matched case-insensitively. Default: ".pdf".
func WithExtension(ext string) Option {
	return optionFunc(func(c *clientConfig) {
		c.extension = ext
	})
}

// WithEnrichWorkers sets the number of concurrent LLM analyses, capped at 4.
func WithEnrichWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.enrichWorkers = n
	})
}

// WithEnrichTimeout sets the per-candidate analysis deadline. Default: 120s.
func WithEnrichTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.enrichTimeout = d
	})
}

// WithMaxRetries sets how many times a failed analysis is retried. Default: 2.
func WithMaxRetries(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRetries = &n
	})
}

// WithDefaultTopK sets the result count used when Search gets topK <= 0. Default: 10.
func WithDefaultTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultTopK = k
	})
}

// WithLogger enables structured logging. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
