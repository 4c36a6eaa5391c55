package shortlist

import (
	"context"

	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
	"github.com/kailas-cloud/shortlist/internal/usecase/enrich"
	"github.com/kailas-cloud/shortlist/internal/usecase/ingest"
)

// Ingester rebuilds the catalog from a folder.
type Ingester interface {
	Ingest(ctx context.Context, folder string) (ingest.Report, error)
}

// Retriever ranks the current catalog against a query.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]candidate.Candidate, error)
}

// Enricher attaches LLM profiles to candidates.
type Enricher interface {
	Enrich(ctx context.Context, project string, cands []candidate.Candidate) ([]candidate.Summary, enrich.Stats)
}
