package pipeline

// State tracks how far a request made it through the pipeline. Terminal log
// lines and diagnostics carry the last reached state.
type State string

// Pipeline states in execution order.
const (
	StateReceived    State = "RECEIVED"
	StateAnalyzed    State = "ANALYZED"
	StateRetrieved   State = "RETRIEVED"
	StateAssembled   State = "ASSEMBLED"
	StateSynthesized State = "SYNTHESIZED"
	StateResponded   State = "RESPONDED"
	StateFailed      State = "FAILED"
)

// Terminal statuses reported per request.
const (
	StatusSuccess  = "success"
	StatusDegraded = "degraded"
	StatusFailed   = "failed"
)

// Degradation reasons surfaced in diagnostics.
const (
	DegradedKeywordOnly     = "keyword_only_retrieval"
	DegradedKeywordFallback = "local_keyword_fallback"
	DegradedCollection      = "collection_unavailable"
	DegradedEmptyContext    = "empty_context"
)
