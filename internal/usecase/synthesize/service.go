package synthesize

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/domain/fragment"
)

var citationRegex = regexp.MustCompile(`\[doc:([^\]\s]+)\]`)

// Service turns the assembled context and the original query into a grounded
// answer with citations resolved back to document ids.
type Service struct {
	generator Generator
	logger    *zap.Logger
}

// New creates a synthesizer service.
func New(generator Generator, logger *zap.Logger) *Service {
	return &Service{generator: generator, logger: logger}
}

// Synthesize generates the answer. An empty context short-circuits to the
// insufficient-grounding answer without a model call.
//
// Model failures surface as-is so the orchestrator can retry transient ones.
func (s *Service) Synthesize(
	ctx context.Context, query string, asm *fragment.Assembled,
) (domain.Answer, error) {
	if asm.Empty() {
		return domain.Answer{Text: insufficientGroundingAnswer}, nil
	}

	result, err := s.generator.Generate(ctx, buildSystemPrompt(asm), query)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	cited, text := extractCitations(result.Text, asm)
	if len(cited) == 0 {
		s.logger.Debug("no citation correlated with answer", zap.String("query", query))
	}

	return domain.Answer{Text: text, Cited: cited}, nil
}

// extractCitations resolves [doc:<id>] markers against the context documents
// and strips them from the answer text. When the model cited nothing, a
// plain-text mention of a context document id still counts. Cited ids keep
// the context rank order regardless of where they appear in the answer.
func extractCitations(text string, asm *fragment.Assembled) (cited []string, cleaned string) {
	inContext := make(map[string]struct{}, len(asm.Fragments()))
	for _, id := range asm.DocIDs() {
		inContext[id] = struct{}{}
	}

	mentioned := make(map[string]struct{})
	for _, m := range citationRegex.FindAllStringSubmatch(text, -1) {
		if _, ok := inContext[m[1]]; ok {
			mentioned[m[1]] = struct{}{}
		}
	}

	cleaned = strings.TrimSpace(citationRegex.ReplaceAllString(text, ""))

	if len(mentioned) == 0 {
		// Fallback: correlate bare document ids mentioned in the answer.
		for id := range inContext {
			if strings.Contains(text, id) {
				mentioned[id] = struct{}{}
			}
		}
	}

	for _, id := range asm.DocIDs() {
		if _, ok := mentioned[id]; ok {
			cited = append(cited, id)
		}
	}
	return cited, cleaned
}
