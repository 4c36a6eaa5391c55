// Package app wires the pipeline services around a shared catalog.
package app

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/catalog"
	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/usecase/enrich"
	"github.com/kailas-cloud/shortlist/internal/usecase/ingest"
	"github.com/kailas-cloud/shortlist/internal/usecase/search"
	shortlistuc "github.com/kailas-cloud/shortlist/internal/usecase/shortlist"
)

// Deps are the external collaborators of the pipeline.
type Deps struct {
	Extractor ingest.Extractor
	// DocEmbedder embeds resumes; QueryEmbedder embeds project descriptions.
	// QueryEmbedder defaults to DocEmbedder.
	DocEmbedder   domain.Embedder
	QueryEmbedder domain.Embedder
	Completer     domain.ChatCompleter
	Logger        *zap.Logger
}

// Options tune each stage.
type Options struct {
	Ingest     ingest.Options
	Search     search.Options
	Enrich     enrich.Options
	Summarizer enrich.SummarizerOptions
}

// DefaultOptions returns stock settings for every stage.
func DefaultOptions() Options {
	return Options{Summarizer: enrich.DefaultSummarizerOptions()}
}

// App holds the wired services.
type App struct {
	Catalogs  *catalog.Holder
	Ingest    *ingest.Service
	Search    *search.Service
	Enrich    *enrich.Service
	Shortlist *shortlistuc.Service
}

// New wires the services. The catalog starts empty.
func New(deps Deps, opts Options) *App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	query := deps.QueryEmbedder
	if query == nil {
		query = deps.DocEmbedder
	}

	holder := catalog.NewHolder()
	ingestSvc := ingest.New(deps.Extractor, deps.DocEmbedder, holder, opts.Ingest, logger.Named("ingest"))
	searchSvc := search.New(holder, query, opts.Search, logger.Named("search"))
	summarizer := enrich.NewSummarizer(deps.Completer, opts.Summarizer, logger.Named("summarizer"))
	enrichSvc := enrich.New(summarizer, opts.Enrich, logger.Named("enrich"))

	return &App{
		Catalogs:  holder,
		Ingest:    ingestSvc,
		Search:    searchSvc,
		Enrich:    enrichSvc,
		Shortlist: shortlistuc.New(ingestSvc, searchSvc, enrichSvc, logger.Named("shortlist")),
	}
}
