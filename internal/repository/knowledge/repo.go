package knowledge

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/namedex/internal/domain"
)

// store is the consumer interface for the knowledge loader (ISP).
type store interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// Repo loads ingested documents from the knowledge store. The pipeline never
// writes through it; ingestion happens out-of-band.
type Repo struct {
	store     store
	keyPrefix string
	workers   int
	logger    *zap.Logger
}

// New creates a knowledge repository.
func New(s store, keyPrefix string, workers int, logger *zap.Logger) *Repo {
	if workers <= 0 {
		workers = 1
	}
	return &Repo{store: s, keyPrefix: keyPrefix, workers: workers, logger: logger}
}

// DocKey returns the storage key for a document.
func DocKey(prefix string, col domain.Collection, id string) string {
	return fmt.Sprintf("%sdoc:%s:%s", prefix, col, id)
}

// LoadAll scans every ingested document and fetches the bodies through a
// bounded worker pool. A single malformed document fails the load: a partial
// knowledge base would silently skew retrieval.
func (r *Repo) LoadAll(ctx context.Context) ([]domain.Document, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix+"doc:*")
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	pool, err := ants.NewPool(r.workers)
	if err != nil {
		return nil, fmt.Errorf("create load pool: %w", err)
	}
	defer pool.Release()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		docs     = make([]domain.Document, len(keys))
		firstErr error
	)

	for i, key := range keys {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			doc, loadErr := r.load(ctx, key)

			mu.Lock()
			defer mu.Unlock()
			if loadErr != nil {
				if firstErr == nil {
					firstErr = loadErr
				}
				return
			}
			docs[i] = doc
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("submit load task: %w", submitErr)
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	r.logger.Info("knowledge base loaded", zap.Int("documents", len(docs)))
	return docs, nil
}

func (r *Repo) load(ctx context.Context, key string) (domain.Document, error) {
	data, err := r.store.JSONGet(ctx, key)
	if err != nil {
		return domain.Document{}, fmt.Errorf("load %s: %w", key, err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return domain.Document{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return doc, nil
}
