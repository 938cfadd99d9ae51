package chi

// errorCode identifies the error class in API responses.
type errorCode string

const (
	codeBadRequest            errorCode = "bad_request"
	codeInvalidQuery          errorCode = "invalid_query"
	codeUnauthorized          errorCode = "unauthorized"
	codeRateLimited           errorCode = "rate_limited"
	codeAnalysisTimeout       errorCode = "analysis_timeout"
	codeAnalysisUnavailable   errorCode = "analysis_unavailable"
	codeIndexUnavailable      errorCode = "index_unavailable"
	codeGenerationUnavailable errorCode = "generation_unavailable"
	codeLLMProviderError      errorCode = "llm_provider_error"
	codeVectorDimMismatch     errorCode = "vector_dim_mismatch"
	codeInternalError         errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Answer      string          `json:"answer"`
	Cited       []string        `json:"cited,omitempty"`
	Status      string          `json:"status"`
	Diagnostics diagnosticsBody `json:"diagnostics"`
}

type diagnosticsBody struct {
	RequestID         string            `json:"request_id,omitempty"`
	State             string            `json:"state"`
	StageLatenciesMs  map[string]int64  `json:"stage_latencies_ms"`
	FailedCollections map[string]string `json:"failed_collections,omitempty"`
	DegradedReasons   []string          `json:"degraded_reasons,omitempty"`
	ContextDocs       []string          `json:"context_docs,omitempty"`
}

type reloadResponse struct {
	Documents int            `json:"documents"`
	Counts    map[string]int `json:"counts"`
	TookMs    int64          `json:"took_ms"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
