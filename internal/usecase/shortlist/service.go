// Package shortlist runs the full ingest, rank and enrich pipeline for one project.
package shortlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/usecase/enrich"
	"github.com/kailas-cloud/shortlist/internal/usecase/ingest"
)

// Request describes one shortlist run. TopK <= 0 keeps every candidate.
type Request struct {
	Folder  string
	Project string
	TopK    int
}

// Report is the outcome of one run.
type Report struct {
	RunID          string              `json:"run_id"`
	Candidates     []View              `json:"candidates"`
	TotalResumes   int                 `json:"total_resumes"`
	Successful     int                 `json:"successful"`
	Failed         int                 `json:"failed"`
	Ingest         ingest.Report       `json:"ingest"`
	Enrich         enrich.Stats        `json:"enrich"`
	SearchDuration time.Duration       `json:"search_duration"`
	TotalDuration  time.Duration       `json:"total_duration"`
}

// Service chains ingestion, retrieval and enrichment.
type Service struct {
	ingester  Ingester
	retriever Retriever
	enricher  Enricher
	logger    *zap.Logger
	newID     func() string
}

// New creates a shortlist service.
func New(ingester Ingester, retriever Retriever, enricher Enricher, logger *zap.Logger) *Service {
	return &Service{
		ingester:  ingester,
		retriever: retriever,
		enricher:  enricher,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Run ingests req.Folder, ranks every resume against the project, enriches all of them
// and returns the best req.TopK summaries.
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	if strings.TrimSpace(req.Folder) == "" {
		return Report{}, domain.NewValidationError("folder", "is required")
	}
	if strings.TrimSpace(req.Project) == "" {
		return Report{}, domain.NewValidationError("project_description", "is required")
	}

	start := time.Now()
	report := Report{RunID: s.newID()}
	log := s.logger.With(zap.String("run_id", report.RunID))

	log.Info("Shortlist run started", zap.String("folder", req.Folder), zap.Int("top_k", req.TopK))

	ingestReport, err := s.ingester.Ingest(ctx, req.Folder)
	if err != nil {
		return Report{}, fmt.Errorf("ingest: %w", err)
	}
	report.Ingest = ingestReport
	report.TotalResumes = ingestReport.Indexed

	searchStart := time.Now()
	// Rank exactly the corpus this run indexed, even if another ingest has since replaced the catalog.
	cands, err := s.retriever.Search(ctx, req.Project, ingestReport.Indexed)
	if err != nil {
		return Report{}, fmt.Errorf("search: %w", err)
	}
	report.SearchDuration = time.Since(searchStart)

	summaries, stats := s.enricher.Enrich(ctx, req.Project, cands)
	report.Enrich = stats

	if req.TopK > 0 && len(summaries) > req.TopK {
		summaries = summaries[:req.TopK]
	}
	report.Candidates = Views(summaries)
	for _, sm := range summaries {
		if sm.OK() {
			report.Successful++
		} else {
			report.Failed++
		}
	}
	report.TotalDuration = time.Since(start)

	log.Info("Shortlist run completed",
		zap.Int("resumes", report.TotalResumes),
		zap.Int("returned", len(report.Candidates)),
		zap.Int("successful", report.Successful),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.TotalDuration),
	)

	return report, nil
}
