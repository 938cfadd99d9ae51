package pipeline

import (
	"context"

	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/domain/fragment"
	"github.com/kailas-cloud/namedex/internal/usecase/analyze"
	"github.com/kailas-cloud/namedex/internal/usecase/retrieve"
)

// Analyzer extracts keywords and embeds the query.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (analyze.Analysis, error)
}

// Retriever searches all collections with the analyzed signals.
type Retriever interface {
	Retrieve(ctx context.Context, keywords []string, embedding []float32) (retrieve.Result, error)
}

// Assembler merges per-collection fragments into one bounded context.
type Assembler interface {
	Assemble(byCollection map[domain.Collection][]fragment.Fragment) fragment.Assembled
}

// Synthesizer produces the grounded answer from the assembled context.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, asm *fragment.Assembled) (domain.Answer, error)
}
