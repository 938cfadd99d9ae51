package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

type mockLLMChecker struct {
	err error
}

func (m *mockLLMChecker) HealthCheck(_ context.Context) error { return m.err }

type mockIndexReader struct {
	size int
}

func (m *mockIndexReader) Size() int { return m.size }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockLLMChecker{}, &mockIndexReader{size: 10})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("Status = %q, want %q", r.Status, Healthy)
	}
	for _, c := range []string{"store", "llm", "index"} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
}

func TestCheck_SnapshotModeSkipsStore(t *testing.T) {
	svc := New(nil, &mockLLMChecker{}, &mockIndexReader{size: 10})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("Status = %q, want %q", r.Status, Healthy)
	}
	if _, ok := r.Checks["store"]; ok {
		t.Error("snapshot mode must not report a store check")
	}
}

func TestCheck_StoreDownDegrades(t *testing.T) {
	svc := New(&mockStorePinger{err: errors.New("down")}, &mockLLMChecker{}, &mockIndexReader{size: 10})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("Status = %q, want %q", r.Status, Degraded)
	}
	if r.Checks["store"] != CheckError {
		t.Errorf("store = %q, want %q", r.Checks["store"], CheckError)
	}
}

func TestCheck_EmptyIndexDegrades(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockLLMChecker{}, &mockIndexReader{size: 0})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("Status = %q, want %q", r.Status, Degraded)
	}
}

func TestCheck_EmptyIndexAndLLMDownUnhealthy(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockLLMChecker{err: errors.New("down")}, &mockIndexReader{size: 0})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("Status = %q, want %q", r.Status, Unhealthy)
	}
}
