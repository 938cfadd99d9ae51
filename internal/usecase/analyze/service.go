package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/metrics"
)

// maxFallbackKeywords caps the locally tokenized keyword set.
const maxFallbackKeywords = 8

// Analysis is the analyzer output. When the embedding signal is unavailable
// the keyword set is still populated, so the orchestrator can run the
// degraded keyword-only path.
type Analysis struct {
	Keywords  []string
	Embedding []float32
	// KeywordFallback is true when the LLM extraction failed and the
	// keywords came from the local tokenizer instead.
	KeywordFallback bool
}

// Service extracts keywords and produces a query embedding. The two model
// calls are independent and run concurrently.
type Service struct {
	extractor KeywordExtractor
	embedder  Embedder
	dim       int
	retries   int
	backoff   time.Duration
	logger    *zap.Logger
}

// New creates an analyzer service. dim is the index embedding dimensionality;
// retries bounds the embedding attempts for transient provider failures.
func New(
	extractor KeywordExtractor, embedder Embedder,
	dim, retries int, backoff time.Duration, logger *zap.Logger,
) *Service {
	if retries < 0 {
		retries = 0
	}
	return &Service{
		extractor: extractor,
		embedder:  embedder,
		dim:       dim,
		retries:   retries,
		backoff:   backoff,
		logger:    logger,
	}
}

// Analyze runs keyword extraction and embedding concurrently.
//
// Keyword extraction fails soft: the local tokenizer takes over and the
// pipeline continues. Embedding failure after retries returns
// ErrAnalysisUnavailable together with the partial analysis (keywords only).
// A dimensionality mismatch is a configuration error and never degraded.
func (s *Service) Analyze(ctx context.Context, text string) (Analysis, error) {
	type embedOut struct {
		vec []float32
		err error
	}
	type extractOut struct {
		keywords []string
		fallback bool
	}

	embedCh := make(chan embedOut, 1)
	extractCh := make(chan extractOut, 1)

	go func() {
		vec, err := s.embedWithRetry(ctx, text)
		embedCh <- embedOut{vec: vec, err: err}
	}()

	go func() {
		keywords, err := s.extractor.ExtractKeywords(ctx, text)
		if err != nil {
			s.logger.Warn("keyword extraction failed, using local tokenizer", zap.Error(err))
			extractCh <- extractOut{keywords: FallbackKeywords(text), fallback: true}
			return
		}
		extractCh <- extractOut{keywords: keywords}
	}()

	extracted := <-extractCh
	embedded := <-embedCh

	analysis := Analysis{
		Keywords:        extracted.keywords,
		KeywordFallback: extracted.fallback,
	}

	if embedded.err != nil {
		if errors.Is(embedded.err, domain.ErrVectorDimMismatch) {
			return analysis, embedded.err
		}
		return analysis, fmt.Errorf("%w: %w", domain.ErrAnalysisUnavailable, embedded.err)
	}

	analysis.Embedding = embedded.vec
	return analysis, nil
}

func (s *Service) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			metrics.PipelineRetriesTotal.WithLabelValues("analyze").Inc()
			if err := sleep(ctx, s.backoff*time.Duration(1<<(attempt-1))); err != nil {
				return nil, err
			}
		}

		result, err := s.embedder.Embed(ctx, text)
		if err != nil {
			lastErr = err
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			continue
		}

		if len(result.Embedding) != s.dim {
			return nil, fmt.Errorf("%w: analyzer produced %d, index expects %d",
				domain.ErrVectorDimMismatch, len(result.Embedding), s.dim)
		}
		return result.Embedding, nil
	}
	return nil, fmt.Errorf("embed query after %d attempts: %w", s.retries+1, lastErr)
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

// FallbackKeywords tokenizes the raw query locally. Used when the LLM
// extraction call is unavailable, so retrieval still has a lexical signal.
func FallbackKeywords(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(f)
		if len([]rune(f)) < 2 {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		keywords = append(keywords, f)
		if len(keywords) == maxFallbackKeywords {
			break
		}
	}
	return keywords
}
