package domain

import "errors"

var (
	// ErrInvalidRequest signals a request rejected before any retrieval work.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDocumentNotFound signals a missing corpus document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidDocument signals a corpus entry that fails validation on load.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrSynthesisFailed signals a failure of the answer generation service.
	ErrSynthesisFailed = errors.New("synthesis failed")
	// ErrBackendNotConfigured signals a generation backend with no configured generator.
	ErrBackendNotConfigured = errors.New("generation backend not configured")

	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrDimensionMismatch signals vectors of different lengths being compared.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
