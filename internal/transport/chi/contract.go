package chi

import (
	"context"

	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
	"github.com/kailas-cloud/shortlist/internal/usecase/enrich"
	healthuc "github.com/kailas-cloud/shortlist/internal/usecase/health"
	"github.com/kailas-cloud/shortlist/internal/usecase/ingest"
	shortlistuc "github.com/kailas-cloud/shortlist/internal/usecase/shortlist"
)

// Ingester rebuilds the catalog.
type Ingester interface {
	Ingest(ctx context.Context, folder string) (ingest.Report, error)
}

// Searcher ranks the current catalog.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]candidate.Candidate, error)
}

// Enricher attaches LLM profiles to candidates.
type Enricher interface {
	Enrich(ctx context.Context, project string, cands []candidate.Candidate) ([]candidate.Summary, enrich.Stats)
}

// Shortlister runs the whole pipeline.
type Shortlister interface {
	Run(ctx context.Context, req shortlistuc.Request) (shortlistuc.Report, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
