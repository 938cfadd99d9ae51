package retrieve

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/domain/fragment"
	"github.com/kailas-cloud/namedex/internal/metrics"
)

// Failure reasons recorded per degraded collection.
const (
	ReasonTimeout = "timeout"
	ReasonError   = "error"
)

// Result holds the per-collection fragments plus the collections that
// degraded to empty results and why.
type Result struct {
	Fragments map[domain.Collection][]fragment.Fragment
	Failed    map[domain.Collection]string
}

// Degraded reports whether any collection failed.
func (r *Result) Degraded() bool { return len(r.Failed) > 0 }

// Service fans a query out across all collections concurrently. A slow or
// failing collection degrades to no results instead of failing the request;
// only all collections failing is an error.
type Service struct {
	searcher          Searcher
	topK              int
	collectionTimeout time.Duration
	retries           int
	backoff           time.Duration
	logger            *zap.Logger
}

// New creates a retrieval service.
func New(
	searcher Searcher, topK int,
	collectionTimeout time.Duration, retries int, backoff time.Duration,
	logger *zap.Logger,
) *Service {
	if retries < 0 {
		retries = 0
	}
	return &Service{
		searcher:          searcher,
		topK:              topK,
		collectionTimeout: collectionTimeout,
		retries:           retries,
		backoff:           backoff,
		logger:            logger,
	}
}

// Retrieve searches every collection with the given signals. Searches run
// concurrently and each one completes or times out on its own; the caller's
// context cancels everything still in flight.
func (s *Service) Retrieve(
	ctx context.Context, keywords []string, embedding []float32,
) (Result, error) {
	if len(keywords) == 0 && len(embedding) == 0 {
		return Result{}, domain.ErrInvalidQuerySignal
	}

	collections := domain.Collections()

	type outcome struct {
		collection domain.Collection
		fragments  []fragment.Fragment
		err        error
	}

	var wg sync.WaitGroup
	outcomes := make(chan outcome, len(collections))

	for _, col := range collections {
		col := col
		wg.Add(1)
		go func() {
			defer wg.Done()
			frags, err := s.searchCollection(ctx, col, keywords, embedding)
			outcomes <- outcome{collection: col, fragments: frags, err: err}
		}()
	}
	wg.Wait()
	close(outcomes)

	result := Result{
		Fragments: make(map[domain.Collection][]fragment.Fragment, len(collections)),
		Failed:    make(map[domain.Collection]string),
	}
	var lastErr error

	for o := range outcomes {
		if o.err != nil {
			// Bad input fails the whole request, not one collection.
			if errors.Is(o.err, domain.ErrInvalidQuerySignal) || errors.Is(o.err, domain.ErrVectorDimMismatch) {
				return Result{}, o.err
			}
			reason := ReasonError
			if errors.Is(o.err, context.DeadlineExceeded) {
				reason = ReasonTimeout
			}
			result.Failed[o.collection] = reason
			metrics.CollectionSearchFailures.WithLabelValues(string(o.collection), reason).Inc()
			s.logger.Warn("collection search degraded to empty results",
				zap.String("collection", string(o.collection)),
				zap.String("reason", reason),
				zap.Error(o.err),
			)
			lastErr = o.err
			continue
		}
		result.Fragments[o.collection] = o.fragments
	}

	if len(result.Failed) == len(collections) {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, lastErr)
	}
	return result, nil
}

// searchCollection runs one collection query under its own timeout, retrying
// transient failures with bounded exponential backoff.
func (s *Service) searchCollection(
	ctx context.Context, col domain.Collection,
	keywords []string, embedding []float32,
) ([]fragment.Fragment, error) {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			metrics.PipelineRetriesTotal.WithLabelValues("retrieve").Inc()
			if err := sleep(ctx, s.backoff*time.Duration(1<<(attempt-1))); err != nil {
				return nil, err
			}
		}

		frags, err := s.searchOnce(ctx, col, keywords, embedding)
		if err == nil {
			return frags, nil
		}
		lastErr = err
		if !transient(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (s *Service) searchOnce(
	ctx context.Context, col domain.Collection,
	keywords []string, embedding []float32,
) ([]fragment.Fragment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.collectionTimeout)
	defer cancel()

	type out struct {
		frags []fragment.Fragment
		err   error
	}
	done := make(chan out, 1)
	go func() {
		frags, err := s.searcher.Search(ctx, col, keywords, embedding, s.topK)
		done <- out{frags: frags, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		return o.frags, o.err
	}
}

// transient reports whether the error is worth another attempt.
func transient(err error) bool {
	if errors.Is(err, domain.ErrInvalidQuerySignal) ||
		errors.Is(err, domain.ErrVectorDimMismatch) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
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
