package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer queries.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks. The index is the component the query
// path cannot live without; store and LLM failures degrade rather than fail.
type Service struct {
	store StorePinger
	llm   LLMChecker
	index IndexReader
}

// New creates a Service. store can be nil in snapshot-only mode.
func New(store StorePinger, llm LLMChecker, index IndexReader) *Service {
	return &Service{store: store, llm: llm, index: index}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			checks["store"] = CheckError
		} else {
			checks["store"] = CheckOK
		}
	}

	if err := s.llm.HealthCheck(ctx); err != nil {
		checks["llm"] = CheckError
	} else {
		checks["llm"] = CheckOK
	}

	indexEmpty := s.index.Size() == 0
	if indexEmpty {
		checks["index"] = CheckError
	} else {
		checks["index"] = CheckOK
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if indexEmpty && checks["llm"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
