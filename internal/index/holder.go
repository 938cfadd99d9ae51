package index

import (
	"context"
	"sync/atomic"

	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/domain/fragment"
)

// Holder hands out the current index snapshot. The pipeline only ever reads;
// ingestion reloads swap the whole snapshot atomically, so in-flight requests
// keep searching the index they started with.
type Holder struct {
	current atomic.Pointer[Index]
}

// NewHolder creates a holder with an initial snapshot.
func NewHolder(ix *Index) *Holder {
	h := &Holder{}
	h.current.Store(ix)
	return h
}

// Get returns the current snapshot.
func (h *Holder) Get() *Index {
	return h.current.Load()
}

// Swap publishes a new snapshot.
func (h *Holder) Swap(ix *Index) {
	h.current.Store(ix)
}

// Size returns the document count of the current snapshot.
func (h *Holder) Size() int {
	return h.Get().Size()
}

// Search delegates to the current snapshot, so one request may observe the
// pre-reload index while the next observes the new one, never a mix.
func (h *Holder) Search(
	ctx context.Context, collection domain.Collection,
	keywords []string, embedding []float32, topK int,
) ([]fragment.Fragment, error) {
	return h.Get().Search(ctx, collection, keywords, embedding, topK)
}
