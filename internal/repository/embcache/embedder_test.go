package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/namedex/internal/db"
	"github.com/kailas-cloud/namedex/internal/domain"
)

// --- Mocks ---

type mockKV struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string][]byte)}
}

func (m *mockKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKV) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 9}, nil
}

// --- Tests ---

func TestEmbed_MissThenHit(t *testing.T) {
	kv := newMockKV()
	inner := &mockEmbedder{vec: []float32{0.5, -1.25, 3}}
	cached := New(inner, kv, "namedex:", "text-embedding-3-small", nil, zap.NewNop())

	first, err := cached.Embed(context.Background(), "주문 취소")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if first.TotalTokens != 9 {
		t.Errorf("miss must report provider token usage, got %d", first.TotalTokens)
	}

	second, err := cached.Embed(context.Background(), "주문 취소")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 (second call served from cache)", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit must report zero tokens, got %d", second.TotalTokens)
	}
	for i := range first.Embedding {
		if first.Embedding[i] != second.Embedding[i] {
			t.Fatalf("cached vector differs at %d: %v vs %v", i, first.Embedding, second.Embedding)
		}
	}
}

func TestEmbed_DifferentTextsDifferentKeys(t *testing.T) {
	kv := newMockKV()
	inner := &mockEmbedder{vec: []float32{1}}
	cached := New(inner, kv, "namedex:", "text-embedding-3-small", nil, zap.NewNop())

	_, _ = cached.Embed(context.Background(), "one")
	_, _ = cached.Embed(context.Background(), "two")

	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
	for key := range kv.data {
		if !strings.HasPrefix(key, "namedex:emb_cache:") {
			t.Errorf("key %q missing the cache prefix", key)
		}
	}
}

func TestEmbed_ModelChangeMissesCache(t *testing.T) {
	kv := newMockKV()
	inner := &mockEmbedder{vec: []float32{1}}

	small := New(inner, kv, "namedex:", "text-embedding-3-small", nil, zap.NewNop())
	large := New(inner, kv, "namedex:", "text-embedding-3-large", nil, zap.NewNop())

	_, _ = small.Embed(context.Background(), "주문")
	_, _ = large.Embed(context.Background(), "주문")

	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2 (each model keys its own cache entry)", inner.calls)
	}
}

func TestEmbed_CacheErrorsAreSoft(t *testing.T) {
	kv := newMockKV()
	kv.getErr = errors.New("connection reset")
	kv.setErr = errors.New("connection reset")
	inner := &mockEmbedder{vec: []float32{1, 2}}
	cached := New(inner, kv, "namedex:", "text-embedding-3-small", nil, zap.NewNop())

	result, err := cached.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("cache failures must not fail the embed: %v", err)
	}
	if len(result.Embedding) != 2 {
		t.Errorf("Embedding = %v", result.Embedding)
	}
}

func TestEmbed_InnerErrorPropagates(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	cached := New(inner, newMockKV(), "namedex:", "text-embedding-3-small", nil, zap.NewNop())

	if _, err := cached.Embed(context.Background(), "q"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestVectorBytesRoundTrip(t *testing.T) {
	vec := []float32{0, -1.5, 3.25, 1e-7}
	got, err := decodeVector(encodeVector(vec))
	if err != nil {
		t.Fatalf("decodeVector: %v", err)
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("round trip differs at %d: %v vs %v", i, got[i], vec[i])
		}
	}

	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("truncated payload must fail")
	}
}
