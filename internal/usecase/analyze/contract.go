package analyze

import (
	"context"

	"github.com/kailas-cloud/namedex/internal/domain"
)

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// KeywordExtractor extracts search keywords from query text.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
}
