package reload

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/index"
)

// Loader reads every document from the knowledge store.
type Loader interface {
	LoadAll(ctx context.Context) ([]domain.Document, error)
}

// Swapper publishes a new index snapshot.
type Swapper interface {
	Swap(ix *index.Index)
}

// Report summarizes a completed reload.
type Report struct {
	Total    int
	Counts   map[domain.Collection]int
	Duration time.Duration
}

// Service rebuilds the index from the knowledge store and swaps it in.
// A failed load or build leaves the current snapshot untouched, so queries
// keep being served from the last good index.
type Service struct {
	loader Loader
	holder Swapper
	cfg    index.Config
	logger *zap.Logger
}

// New creates a reload service.
func New(loader Loader, holder Swapper, cfg index.Config, logger *zap.Logger) *Service {
	return &Service{loader: loader, holder: holder, cfg: cfg, logger: logger}
}

// Reload loads all documents, rebuilds the index and publishes it.
func (s *Service) Reload(ctx context.Context) (Report, error) {
	start := time.Now()

	docs, err := s.loader.LoadAll(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load knowledge base: %w", err)
	}

	ix, err := index.Build(s.cfg, docs)
	if err != nil {
		return Report{}, fmt.Errorf("rebuild index: %w", err)
	}

	s.holder.Swap(ix)

	report := Report{
		Total:    ix.Size(),
		Counts:   ix.Counts(),
		Duration: time.Since(start),
	}
	s.logger.Info("index reloaded",
		zap.Int("documents", report.Total),
		zap.Duration("took", report.Duration),
	)
	return report, nil
}
