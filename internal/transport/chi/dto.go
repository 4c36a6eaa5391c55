package chi

import (
	"github.com/kailas-cloud/shortlist/internal/domain/candidate"
	"github.com/kailas-cloud/shortlist/internal/usecase/enrich"
	shortlistuc "github.com/kailas-cloud/shortlist/internal/usecase/shortlist"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeFolderNotFound    ErrorCode = "folder_not_found"
	ErrorCodeNoDocuments       ErrorCode = "no_documents"
	ErrorCodeNoValidDocuments  ErrorCode = "no_valid_documents"
	ErrorCodeVectorDimMismatch ErrorCode = "vector_dim_mismatch"
	ErrorCodeRateLimited       ErrorCode = "rate_limited"
	ErrorCodeEmbeddingProvider ErrorCode = "embedding_provider_error"
	ErrorCodeLLMProvider       ErrorCode = "llm_provider_error"
	ErrorCodeCircuitOpen       ErrorCode = "llm_circuit_open"
	ErrorCodeIndexBuild        ErrorCode = "index_build_failed"
	ErrorCodeInternal          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type ingestRequest struct {
	Folder string `json:"folder"`
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type candidateDTO struct {
	FileName   string  `json:"file_name"`
	FilePath   string  `json:"file_path"`
	Score      float64 `json:"score"`
	Row        int     `json:"row"`
	ResumeText string  `json:"resume_text"`
}

type searchResponse struct {
	Candidates []candidateDTO `json:"candidates"`
	Count      int            `json:"count"`
}

type enrichRequest struct {
	ProjectDescription string         `json:"project_description"`
	Candidates         []candidateDTO `json:"candidates"`
}

type enrichResponse struct {
	Success    bool               `json:"success"`
	Candidates []shortlistuc.View `json:"candidates"`
	Stats      enrich.Stats       `json:"stats"`
}

type shortlistRequest struct {
	Folder             string `json:"folder"`
	ProjectDescription string `json:"project_description"`
	TopK               int    `json:"top_k"`
	ExportFormat       string `json:"export_format"`
}

type shortlistResponse struct {
	Success bool `json:"success"`
	shortlistuc.Report
}

type healthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Documents int               `json:"documents"`
}

func candidateToDTO(c candidate.Candidate) candidateDTO {
	return candidateDTO{
		FileName:   c.FileName(),
		FilePath:   c.FilePath(),
		Score:      c.Score(),
		Row:        c.Row(),
		ResumeText: c.Preview(),
	}
}

func candidateFromDTO(d candidateDTO) candidate.Candidate {
	return candidate.New(d.FileName, d.FilePath, d.Score, d.ResumeText, d.Row, 0)
}
