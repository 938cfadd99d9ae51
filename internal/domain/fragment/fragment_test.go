package fragment

import (
	"testing"

	"github.com/kailas-cloud/namedex/internal/domain"
)

func TestLess_ScoreDescending(t *testing.T) {
	hi := New("a", domain.CollectionQA, "x", 0, 0, 0.9)
	lo := New("b", domain.CollectionRules, "x", 0, 0, 0.1)

	if !hi.Less(&lo) {
		t.Error("higher score must rank first regardless of collection")
	}
	if lo.Less(&hi) {
		t.Error("lower score must not rank first")
	}
}

func TestLess_TieBreakByCollectionPriority(t *testing.T) {
	rules := New("z", domain.CollectionRules, "x", 0, 0, 0.5)
	dict := New("a", domain.CollectionDictionary, "x", 0, 0, 0.5)
	qa := New("a", domain.CollectionQA, "x", 0, 0, 0.5)

	if !rules.Less(&dict) {
		t.Error("rules must rank before dictionary on equal score")
	}
	if !dict.Less(&qa) {
		t.Error("dictionary must rank before qa on equal score")
	}
}

func TestLess_TieBreakByDocID(t *testing.T) {
	a := New("alpha", domain.CollectionRules, "x", 0, 0, 0.5)
	z := New("zeta", domain.CollectionRules, "x", 0, 0, 0.5)

	if !a.Less(&z) {
		t.Error("equal score and collection must fall back to doc id ascending")
	}
	if z.Less(&a) {
		t.Error("tie-break must be a total order")
	}
}

func TestAssembled_DocIDs(t *testing.T) {
	asm := NewAssembled([]Fragment{
		New("r1", domain.CollectionRules, "x", 0, 0, 0.9),
		New("d1", domain.CollectionDictionary, "y", 0, 0, 0.5),
	}, 2)

	ids := asm.DocIDs()
	if len(ids) != 2 || ids[0] != "r1" || ids[1] != "d1" {
		t.Errorf("DocIDs = %v, want [r1 d1]", ids)
	}
	if asm.Empty() {
		t.Error("Empty = true for a non-empty context")
	}

	var none Assembled
	if !none.Empty() {
		t.Error("zero value must be empty")
	}
}
