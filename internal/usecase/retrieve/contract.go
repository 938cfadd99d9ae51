package retrieve

import (
	"context"

	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/domain/fragment"
)

// Searcher executes a combined lexical+vector query over one collection.
// Implemented by the index snapshot holder.
type Searcher interface {
	Search(
		ctx context.Context, collection domain.Collection,
		keywords []string, embedding []float32, topK int,
	) ([]fragment.Fragment, error)
}
