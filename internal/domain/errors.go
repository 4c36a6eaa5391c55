package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFolderNotFound signals a missing or unreadable resume folder.
	ErrFolderNotFound = errors.New("folder not found")
	// ErrNoDocuments signals a folder without any matching files.
	ErrNoDocuments = errors.New("no documents found")
	// ErrNoValidDocuments signals that every file failed extraction or had empty text.
	ErrNoValidDocuments = errors.New("no valid documents")
	// ErrIndexBuild signals an embedding or index failure during ingestion.
	ErrIndexBuild = errors.New("index build failed")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrCorpusMisaligned signals a corpus/vector row count mismatch.
	ErrCorpusMisaligned = errors.New("corpus and vectors are not aligned")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a chat completion provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrCircuitOpen signals that the LLM circuit breaker rejected the call.
	ErrCircuitOpen = errors.New("llm circuit open")
	// ErrInvalidRequest signals a malformed caller request.
	ErrInvalidRequest = errors.New("invalid request")
)

// ValidationError wraps ErrInvalidRequest with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRequest.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// NewValidationError creates a validation error for a request field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
