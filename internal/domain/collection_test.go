package domain

import (
	"errors"
	"testing"
)

func TestCollections_PriorityOrder(t *testing.T) {
	cols := Collections()
	if len(cols) != 3 {
		t.Fatalf("expected 3 collections, got %d", len(cols))
	}
	for i, col := range cols {
		if col.Priority() != i {
			t.Errorf("expected Collections()[%d]=%s to have priority %d, got %d", i, col, i, col.Priority())
		}
	}
}

func TestParseCollection(t *testing.T) {
	for _, name := range []string{"rules", "dictionary", "qa"} {
		col, err := ParseCollection(name)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", name, err)
		}
		if string(col) != name {
			t.Errorf("expected %q, got %q", name, col)
		}
	}
}

func TestParseCollection_Unknown(t *testing.T) {
	_, err := ParseCollection("glossary")
	if !errors.Is(err, ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}

func TestPriority_UnknownLast(t *testing.T) {
	if got := Collection("glossary").Priority(); got != 3 {
		t.Errorf("expected unknown collection to rank last, got %d", got)
	}
}
