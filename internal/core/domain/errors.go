package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or driver name.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates a domain vector index could not be loaded.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a persisted index was built with a different embedding size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Pipeline Errors.

	// ErrProvider indicates an external data or news fetch failed after retries.
	ErrProvider = errors.New("provider error")

	// ErrValidation indicates a record failed its schema contract.
	// Ingestion drops the record and continues.
	ErrValidation = errors.New("validation failed")

	// ErrExtraction indicates the query parameters could not be extracted.
	// The extractor recovers this locally into all-null parameters.
	ErrExtraction = errors.New("parameter extraction failed")

	// ErrFusion indicates retrieval fusion failed.
	// The fusion engine returns this as a sentinel string, not as an error.
	ErrFusion = errors.New("retrieval fusion failed")

	// ErrForecastUnavailable indicates there is no price data to fit.
	ErrForecastUnavailable = errors.New("forecast unavailable")

	// ErrTimeout indicates the pipeline deadline elapsed. No partial report is produced.
	ErrTimeout = errors.New("pipeline timed out")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Gate Errors.

	// ErrUnauthorized indicates the run API key is missing or not allowed.
	ErrUnauthorized = errors.New("invalid or missing API key")

	// ErrRunThrottled indicates a run was attempted before the minimum interval elapsed.
	ErrRunThrottled = errors.New("run rate limit")
)
