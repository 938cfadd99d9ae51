package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/namedex/internal/domain"
	healthuc "github.com/kailas-cloud/namedex/internal/usecase/health"
	pipelineuc "github.com/kailas-cloud/namedex/internal/usecase/pipeline"
	reloaduc "github.com/kailas-cloud/namedex/internal/usecase/reload"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the query API.
type Server struct {
	pipeline      *pipelineuc.Service
	health        *healthuc.Service
	reload        *reloaduc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	pipeline *pipelineuc.Service,
	health *healthuc.Service,
	reload *reloaduc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline: pipeline,
		health:   health,
		reload:   reload,
		logger:   logger,
	}
	// Rate limiting first: a throttled generation wraps both sentinels and
	// must surface as 429, not 502.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrInvalidQuerySignal, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrAnalysisTimeout, http.StatusGatewayTimeout, codeAnalysisTimeout),
		sentinelHandler(domain.ErrAnalysisUnavailable, http.StatusBadGateway, codeAnalysisUnavailable),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable),
		sentinelHandler(domain.ErrGenerationUnavailable, http.StatusBadGateway, codeGenerationUnavailable),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, codeLLMProviderError),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusInternalServerError, codeVectorDimMismatch),
	}
	return s
}

// Query handles POST /v1/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.pipeline.Ask(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	body := responseToBody(resp)
	body.Diagnostics.RequestID = chiMiddleware.GetReqID(r.Context())
	writeJSON(w, http.StatusOK, body)
}

// Reload handles POST /internal/reload.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	report, err := s.reload.Reload(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	counts := make(map[string]int, len(report.Counts))
	for col, n := range report.Counts {
		counts[string(col)] = n
	}
	writeJSON(w, http.StatusOK, reloadResponse{
		Documents: report.Total,
		Counts:    counts,
		TookMs:    report.Duration.Milliseconds(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func responseToBody(resp pipelineuc.Response) queryResponse {
	return queryResponse{
		Answer: resp.Answer,
		Cited:  resp.Cited,
		Status: resp.Status,
		Diagnostics: diagnosticsBody{
			State:             string(resp.Diagnostics.State),
			StageLatenciesMs:  resp.Diagnostics.StageLatenciesMs,
			FailedCollections: resp.Diagnostics.FailedCollections,
			DegradedReasons:   resp.Diagnostics.DegradedReasons,
			ContextDocs:       resp.Diagnostics.ContextDocs,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrRateLimited,
		domain.ErrInvalidQuerySignal,
		domain.ErrAnalysisTimeout,
		domain.ErrAnalysisUnavailable,
		domain.ErrIndexUnavailable,
		domain.ErrGenerationUnavailable,
		domain.ErrLLMProviderError,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
