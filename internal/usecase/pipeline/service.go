package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/domain/fragment"
	"github.com/kailas-cloud/namedex/internal/domain/query"
	"github.com/kailas-cloud/namedex/internal/metrics"
	"github.com/kailas-cloud/namedex/internal/usecase/analyze"
)

// Timeouts holds the per-stage deadlines.
type Timeouts struct {
	Analyze    time.Duration
	Retrieve   time.Duration
	Synthesize time.Duration
}

// Response is the pipeline output for one query.
type Response struct {
	Answer      string
	Cited       []string
	Status      string
	Diagnostics Diagnostics
}

// Diagnostics carries per-request observability data returned to the caller.
type Diagnostics struct {
	State             State             `json:"state"`
	StageLatenciesMs  map[string]int64  `json:"stage_latencies_ms"`
	FailedCollections map[string]string `json:"failed_collections,omitempty"`
	DegradedReasons   []string          `json:"degraded_reasons,omitempty"`
	ContextDocs       []string          `json:"context_docs,omitempty"`
}

// Service orchestrates the analyze, retrieve, assemble and synthesize stages.
// Each stage runs under its own deadline; a stage failure with a defined
// degraded result marks the response instead of failing it.
type Service struct {
	analyzer    Analyzer
	retriever   Retriever
	assembler   Assembler
	synthesizer Synthesizer

	timeouts        Timeouts
	synthRetries    int
	backoff         time.Duration
	keywordFallback bool

	logger *zap.Logger
}

// New creates the pipeline orchestrator. keywordFallback enables the degraded
// keyword-only path when the analyzer cannot produce an embedding.
func New(
	analyzer Analyzer, retriever Retriever, assembler Assembler, synthesizer Synthesizer,
	timeouts Timeouts, synthRetries int, backoff time.Duration, keywordFallback bool,
	logger *zap.Logger,
) *Service {
	if synthRetries < 0 {
		synthRetries = 0
	}
	return &Service{
		analyzer:        analyzer,
		retriever:       retriever,
		assembler:       assembler,
		synthesizer:     synthesizer,
		timeouts:        timeouts,
		synthRetries:    synthRetries,
		backoff:         backoff,
		keywordFallback: keywordFallback,
		logger:          logger,
	}
}

// Ask runs one query through the full pipeline.
//
// Failure of a stage fails the request except where a degraded result is
// defined: analyzer embedding failure falls back to keyword-only retrieval
// (when enabled), and individual collection failures reduce the context
// instead of the answer. Every terminal outcome increments the request
// counter with its status.
func (s *Service) Ask(ctx context.Context, raw string) (Response, error) {
	start := time.Now()
	state := StateReceived

	diag := Diagnostics{
		StageLatenciesMs: make(map[string]int64, 4),
	}

	fail := func(err error) (Response, error) {
		metrics.PipelineRequestsTotal.WithLabelValues(StatusFailed).Inc()
		diag.State = StateFailed
		s.logger.Warn("pipeline request failed",
			zap.String("last_state", string(state)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return Response{Status: StatusFailed, Diagnostics: diag}, err
	}

	q, err := query.New(raw)
	if err != nil {
		return fail(fmt.Errorf("%w: %s", domain.ErrInvalidQuerySignal, err))
	}

	analysis, degraded, err := s.analyzeStage(ctx, &diag, q.Raw())
	if err != nil {
		return fail(err)
	}
	diag.DegradedReasons = degraded
	q = q.WithAnalysis(analysis.Keywords, analysis.Embedding)
	state = StateAnalyzed

	if !q.HasSignal() {
		return fail(domain.ErrInvalidQuerySignal)
	}

	retrieved, err := s.retrieveStage(ctx, &diag, q.Keywords(), q.Embedding())
	if err != nil {
		return fail(err)
	}
	state = StateRetrieved

	asmStart := time.Now()
	asm := s.assembler.Assemble(retrieved.Fragments)
	s.observe(&diag, "assemble", asmStart)
	diag.ContextDocs = asm.DocIDs()
	if asm.Empty() {
		diag.DegradedReasons = appendUnique(diag.DegradedReasons, DegradedEmptyContext)
	}
	state = StateAssembled

	answer, err := s.synthesizeStage(ctx, &diag, q.Raw(), &asm)
	if err != nil {
		return fail(err)
	}
	state = StateSynthesized

	status := StatusSuccess
	if len(diag.DegradedReasons) > 0 {
		status = StatusDegraded
	}
	metrics.PipelineRequestsTotal.WithLabelValues(status).Inc()
	diag.State = StateResponded

	s.logger.Info("pipeline request completed",
		zap.String("status", status),
		zap.Int("context_docs", len(diag.ContextDocs)),
		zap.Strings("degraded_reasons", diag.DegradedReasons),
		zap.Duration("elapsed", time.Since(start)),
	)

	return Response{
		Answer:      answer.Text,
		Cited:       answer.Cited,
		Status:      status,
		Diagnostics: diag,
	}, nil
}

// analyzeStage runs the analyzer under its deadline and applies the degraded
// keyword-only policy when the embedding signal is unavailable.
func (s *Service) analyzeStage(
	ctx context.Context, diag *Diagnostics, raw string,
) (analyze.Analysis, []string, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.timeouts.Analyze)
	defer cancel()
	stageStart := time.Now()
	defer s.observe(diag, "analyze", stageStart)

	var degraded []string
	analysis, err := s.analyzer.Analyze(stageCtx, raw)
	if analysis.KeywordFallback {
		degraded = append(degraded, DegradedKeywordFallback)
	}

	if err == nil {
		return analysis, degraded, nil
	}

	// Configuration errors are never degraded away.
	if errors.Is(err, domain.ErrVectorDimMismatch) {
		return analyze.Analysis{}, nil, err
	}

	// The stage deadline firing (not the caller's) counts as an analysis
	// timeout; a canceled parent stays a plain cancellation.
	timedOut := errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil

	if !s.keywordFallback {
		if timedOut {
			return analyze.Analysis{}, nil, domain.ErrAnalysisTimeout
		}
		return analyze.Analysis{}, nil, err
	}

	keywords := analysis.Keywords
	if len(keywords) == 0 {
		keywords = analyze.FallbackKeywords(raw)
		degraded = appendUnique(degraded, DegradedKeywordFallback)
	}
	if len(keywords) == 0 {
		if timedOut {
			return analyze.Analysis{}, nil, domain.ErrAnalysisTimeout
		}
		return analyze.Analysis{}, nil, err
	}

	s.logger.Warn("analyzer degraded to keyword-only retrieval", zap.Error(err))
	analysis.Keywords = keywords
	analysis.Embedding = nil
	return analysis, appendUnique(degraded, DegradedKeywordOnly), nil
}

func (s *Service) retrieveStage(
	ctx context.Context, diag *Diagnostics, keywords []string, embedding []float32,
) (retrieveResult, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.timeouts.Retrieve)
	defer cancel()
	stageStart := time.Now()
	defer s.observe(diag, "retrieve", stageStart)

	result, err := s.retriever.Retrieve(stageCtx, keywords, embedding)
	if err != nil {
		return retrieveResult{}, err
	}

	if result.Degraded() {
		diag.FailedCollections = make(map[string]string, len(result.Failed))
		for col, reason := range result.Failed {
			diag.FailedCollections[string(col)] = reason
		}
		diag.DegradedReasons = appendUnique(diag.DegradedReasons, DegradedCollection)
	}
	return retrieveResult{Fragments: result.Fragments}, nil
}

type retrieveResult struct {
	Fragments map[domain.Collection][]fragment.Fragment
}

// synthesizeStage retries transient generation failures under the stage
// deadline. Exhausted retries map to ErrGenerationUnavailable.
func (s *Service) synthesizeStage(
	ctx context.Context, diag *Diagnostics, raw string, asm *fragment.Assembled,
) (domain.Answer, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.timeouts.Synthesize)
	defer cancel()
	stageStart := time.Now()
	defer s.observe(diag, "synthesize", stageStart)

	var lastErr error
	for attempt := 0; attempt <= s.synthRetries; attempt++ {
		if attempt > 0 {
			metrics.PipelineRetriesTotal.WithLabelValues("synthesize").Inc()
			if err := sleep(stageCtx, s.backoff*time.Duration(1<<(attempt-1))); err != nil {
				break
			}
		}

		answer, err := s.synthesizer.Synthesize(stageCtx, raw, asm)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, domain.ErrRateLimited) {
			break
		}
	}
	return domain.Answer{}, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, lastErr)
}

func (s *Service) observe(diag *Diagnostics, stage string, start time.Time) {
	elapsed := time.Since(start)
	diag.StageLatenciesMs[stage] = elapsed.Milliseconds()
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func appendUnique(reasons []string, reason string) []string {
	for _, r := range reasons {
		if r == reason {
			return reasons
		}
	}
	return append(reasons, reason)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
