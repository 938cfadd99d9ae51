package domain

import "errors"

var (
	// ErrInvalidQuerySignal signals a search with neither keywords nor an embedding.
	ErrInvalidQuerySignal = errors.New("invalid query signal")
	// ErrAnalysisUnavailable signals that query analysis failed after retries.
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
	// ErrAnalysisTimeout signals that query analysis exceeded its stage timeout.
	ErrAnalysisTimeout = errors.New("analysis timeout")
	// ErrIndexUnavailable signals that every collection search failed.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrGenerationUnavailable signals that answer generation failed after retries.
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrVectorDimMismatch signals a dimensionality mismatch between the
	// analyzer output and the index. Configuration error, not recoverable at runtime.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrRateLimited signals provider throttling.
	ErrRateLimited = errors.New("rate limited")
	// ErrLLMProviderError signals an LLM provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrUnknownCollection signals a collection name outside rules/dictionary/qa.
	ErrUnknownCollection = errors.New("unknown collection")
)
