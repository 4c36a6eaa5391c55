package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
)

// DefaultTopK is used when the caller asks for topK <= 0.
const DefaultTopK = 10

// Options configure the retriever.
type Options struct {
	DefaultTopK  int
	PreviewChars int
}

// Service ranks resumes in the current catalog against a project query.
type Service struct {
	catalogs CatalogReader
	embed    Embedder
	opts     Options
	logger   *zap.Logger
}

// New creates a search service.
func New(catalogs CatalogReader, embed Embedder, opts Options, logger *zap.Logger) *Service {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = DefaultTopK
	}
	if opts.PreviewChars <= 0 {
		opts.PreviewChars = candidate.DefaultPreviewChars
	}
	return &Service{catalogs: catalogs, embed: embed, opts: opts, logger: logger}
}

// Search returns up to topK candidates ordered by descending similarity.
// Without a published catalog it returns an empty result and no error, whatever the query.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]candidate.Candidate, error) {
	cat := s.catalogs.Current()
	if cat == nil || cat.Len() == 0 {
		s.logger.Debug("Search before any catalog was built")
		return []candidate.Candidate{}, nil
	}

	if strings.TrimSpace(query) == "" {
		return nil, domain.NewValidationError("query", "must not be empty")
	}

	if topK <= 0 {
		topK = s.opts.DefaultTopK
	}
	topK = min(topK, cat.Len())

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(embResult.TotalTokens)

	hits, err := cat.Search(domain.Normalize(embResult.Embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}

	out := make([]candidate.Candidate, 0, len(hits))
	for _, h := range hits {
		out = append(out, candidate.New(
			h.Document.FileName(), h.Document.Path(), h.Score,
			h.Document.Text(), h.Row, s.opts.PreviewChars,
		))
	}

	s.logger.Debug("Search completed",
		zap.Int("top_k", topK),
		zap.Int("results", len(out)),
		zap.Int("corpus", cat.Len()),
	)

	return out, nil
}

// Count returns the number of documents in the current catalog.
func (s *Service) Count() int {
	if cat := s.catalogs.Current(); cat != nil {
		return cat.Len()
	}
	return 0
}
