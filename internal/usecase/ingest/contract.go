package ingest

import (
	"context"

	"github.com/kailas-cloud/shortlist/internal/catalog"
)

// Extractor turns one file into plain text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Publisher receives every successfully built catalog.
type Publisher interface {
	Set(c *catalog.Catalog)
}
