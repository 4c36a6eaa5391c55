package search

import (
	"context"

	"github.com/kailas-cloud/shortlist/internal/catalog"
	"github.com/kailas-cloud/shortlist/internal/domain"
)

// CatalogReader returns the currently published catalog, or nil before the first ingest.
type CatalogReader interface {
	Current() *catalog.Catalog
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
