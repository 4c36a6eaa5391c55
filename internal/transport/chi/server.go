// Package chi exposes the shortlist pipeline over HTTP.
package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/domain"
	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
	"github.com/kailas-cloud/shortlist/internal/logger"
	healthuc "github.com/kailas-cloud/shortlist/internal/usecase/health"
	shortlistuc "github.com/kailas-cloud/shortlist/internal/usecase/shortlist"
)

// maxBodyBytes bounds request bodies; enrich requests carry resume text.
const maxBodyBytes = 8 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the shortlist HTTP API.
type Server struct {
	ingest        Ingester
	search        Searcher
	enrich        Enricher
	shortlist     Shortlister
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest Ingester,
	search Searcher,
	enrich Enricher,
	shortlist Shortlister,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:    ingest,
		search:    search,
		enrich:    enrich,
		shortlist: shortlist,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrFolderNotFound, http.StatusNotFound, ErrorCodeFolderNotFound),
		sentinelHandler(domain.ErrNoDocuments, http.StatusUnprocessableEntity, ErrorCodeNoDocuments),
		sentinelHandler(domain.ErrNoValidDocuments, http.StatusUnprocessableEntity, ErrorCodeNoValidDocuments),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusConflict, ErrorCodeVectorDimMismatch),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrCircuitOpen, http.StatusServiceUnavailable, ErrorCodeCircuitOpen),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProvider),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, ErrorCodeLLMProvider),
		sentinelHandler(domain.ErrIndexBuild, http.StatusInternalServerError, ErrorCodeIndexBuild),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ingest", s.Ingest)
		r.Post("/search", s.Search)
		r.Post("/enrich", s.Enrich)
		r.Post("/shortlist", s.Shortlist)
	})
}

// Ingest handles POST /v1/ingest.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Folder == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "folder is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.ingest.Ingest(ctx, req.Folder)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.TopK < 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "top_k must be >= 0")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	cands, err := s.search.Search(ctx, req.Query, req.TopK)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]candidateDTO, len(cands))
	for i, c := range cands {
		items[i] = candidateToDTO(c)
	}
	writeJSON(w, http.StatusOK, searchResponse{Candidates: items, Count: len(items)})
}

// Enrich handles POST /v1/enrich.
func (s *Server) Enrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ProjectDescription == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "project_description is required")
		return
	}

	cands := make([]candidate.Candidate, len(req.Candidates))
	for i, d := range req.Candidates {
		cands[i] = candidateFromDTO(d)
	}

	summaries, stats := s.enrich.Enrich(r.Context(), req.ProjectDescription, cands)
	writeJSON(w, http.StatusOK, enrichResponse{
		Success:    true,
		Candidates: shortlistuc.Views(summaries),
		Stats:      stats,
	})
}

// Shortlist handles POST /v1/shortlist.
func (s *Server) Shortlist(w http.ResponseWriter, r *http.Request) {
	var req shortlistRequest
	if !s.decode(w, r, &req) {
		return
	}
	format, err := shortlistuc.ParseFormat(req.ExportFormat)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.shortlist.Run(ctx, shortlistuc.Request{
		Folder:  req.Folder,
		Project: req.ProjectDescription,
		TopK:    req.TopK,
	})
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	switch format {
	case shortlistuc.FormatCSV:
		s.writeAttachment(w, r, format, report, shortlistuc.WriteCSV)
	case shortlistuc.FormatXLSX:
		s.writeAttachment(w, r, format, report, shortlistuc.WriteXLSX)
	default:
		writeJSON(w, http.StatusOK, shortlistResponse{Success: true, Report: report})
	}
}

func (s *Server) writeAttachment(
	w http.ResponseWriter, r *http.Request, format shortlistuc.Format,
	report shortlistuc.Report, export func(w io.Writer, views []shortlistuc.View) error,
) {
	var buf bytes.Buffer
	if err := export(&buf, report.Candidates); err != nil {
		s.handleDomainError(w, r, fmt.Errorf("export %s: %w", format, err))
		return
	}

	filename := fmt.Sprintf("ai-shortlist-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Run-ID", report.RunID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:    string(report.Status),
		Checks:    checks,
		Documents: report.Documents,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
func safeDomainMessage(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	sentinels := []error{
		domain.ErrFolderNotFound,
		domain.ErrNoDocuments,
		domain.ErrNoValidDocuments,
		domain.ErrVectorDimMismatch,
		domain.ErrRateLimited,
		domain.ErrCircuitOpen,
		domain.ErrEmbeddingProviderError,
		domain.ErrLLMProviderError,
		domain.ErrIndexBuild,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.String("path", r.URL.Path), zap.Error(err))

	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternal, "internal error")
}
