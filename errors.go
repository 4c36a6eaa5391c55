package shortlist

import "github.com/kailas-cloud/shortlist/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrFolderNotFound         = domain.ErrFolderNotFound
	ErrNoDocuments            = domain.ErrNoDocuments
	ErrNoValidDocuments       = domain.ErrNoValidDocuments
	ErrIndexBuild             = domain.ErrIndexBuild
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrLLMProviderError       = domain.ErrLLMProviderError
	ErrCircuitOpen            = domain.ErrCircuitOpen
)
