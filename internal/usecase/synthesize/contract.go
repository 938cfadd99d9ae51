package synthesize

import (
	"context"

	"github.com/kailas-cloud/namedex/internal/domain"
)

// Generator produces the grounded answer text.
type Generator interface {
	Generate(ctx context.Context, system, user string) (domain.GenerationResult, error)
}
