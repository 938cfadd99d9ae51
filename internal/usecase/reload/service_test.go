package reload

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/index"
)

// --- Mocks ---

type mockLoader struct {
	docs []domain.Document
	err  error
}

func (m *mockLoader) LoadAll(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func indexConfig() index.Config {
	return index.Config{VectorDim: 3}
}

func emptyIndex(t *testing.T) *index.Index {
	t.Helper()
	ix, err := index.Build(indexConfig(), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ix
}

// --- Tests ---

func TestReload_SwapsNewIndex(t *testing.T) {
	holder := index.NewHolder(emptyIndex(t))
	loader := &mockLoader{docs: []domain.Document{
		{ID: "r1", Collection: domain.CollectionRules, Body: "rule"},
		{ID: "d1", Collection: domain.CollectionDictionary, Body: "term"},
	}}

	report, err := New(loader, holder, indexConfig(), zap.NewNop()).Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if report.Total != 2 {
		t.Errorf("Total = %d, want 2", report.Total)
	}
	if report.Counts[domain.CollectionRules] != 1 {
		t.Errorf("Counts = %v", report.Counts)
	}
	if holder.Size() != 2 {
		t.Errorf("holder Size = %d, the new snapshot must be published", holder.Size())
	}
}

func TestReload_LoadFailureKeepsOldIndex(t *testing.T) {
	old, err := index.Build(indexConfig(), []domain.Document{
		{ID: "keep", Collection: domain.CollectionRules, Body: "x"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	holder := index.NewHolder(old)

	loader := &mockLoader{err: errors.New("store down")}
	_, err = New(loader, holder, indexConfig(), zap.NewNop()).Reload(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if holder.Size() != 1 {
		t.Errorf("holder Size = %d, the old snapshot must survive a failed reload", holder.Size())
	}
}

func TestReload_BuildFailureKeepsOldIndex(t *testing.T) {
	holder := index.NewHolder(emptyIndex(t))
	loader := &mockLoader{docs: []domain.Document{
		{ID: "bad", Collection: domain.CollectionRules, Body: "x", Vector: []float32{1}},
	}}

	_, err := New(loader, holder, indexConfig(), zap.NewNop()).Reload(context.Background())
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	if holder.Size() != 0 {
		t.Errorf("holder Size = %d, want the old snapshot", holder.Size())
	}
}
