package index

import (
	"math"
	"testing"

	"github.com/kailas-cloud/namedex/internal/domain"
)

func TestLexicalScore_KeywordAndFieldHits(t *testing.T) {
	e := newEntry(domain.Document{
		ID:         "d",
		Collection: domain.CollectionDictionary,
		Body:       "order",
		Keywords:   []string{"order", "주문"},
		Fields: map[string]string{
			"english":      "order",
			"abbreviation": "ord",
		},
	})
	profile := domain.ScoringProfile{
		WLex:          1,
		KeywordWeight: 2,
		FieldWeights:  map[string]float64{"english": 1, "abbreviation": 1.5},
	}

	// "order": posting hit (2) + english substring (1) = 3.
	// "ord" is a substring of both fields: 1 + 1.5 = 2.5, plus posting miss.
	got := lexicalScore(&e, []string{"order", "ord"}, profile)
	want := 2.0 + 1.0 + 1.0 + 1.5
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("lexicalScore = %v, want %v", got, want)
	}
}

func TestLexicalScore_NoHits(t *testing.T) {
	e := newEntry(domain.Document{
		ID:       "d",
		Keywords: []string{"order"},
		Fields:   map[string]string{"english": "order"},
	})
	profile := domain.ScoringProfile{KeywordWeight: 2, FieldWeights: map[string]float64{"english": 1}}

	if got := lexicalScore(&e, []string{"invoice"}, profile); got != 0 {
		t.Errorf("lexicalScore = %v, want 0", got)
	}
}

func TestCosine_Clamped(t *testing.T) {
	q := []float32{1, 0, 0}
	qNorm := l2norm(q)

	opposite := []float32{-1, 0, 0}
	if got := cosine(q, qNorm, opposite, l2norm(opposite)); got != 0 {
		t.Errorf("opposite vectors: cosine = %v, want 0", got)
	}

	same := []float32{2, 0, 0}
	if got := cosine(q, qNorm, same, l2norm(same)); got != 1 {
		t.Errorf("parallel vectors: cosine = %v, want 1", got)
	}

	if got := cosine(q, qNorm, nil, 0); got != 0 {
		t.Errorf("missing vector: cosine = %v, want 0", got)
	}
}

func TestNormalize_MinMax(t *testing.T) {
	out := normalize([]float64{1, 3, 2})
	want := []float64{0, 1, 0.5}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Errorf("normalize[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestNormalize_DegenerateSpread(t *testing.T) {
	out := normalize([]float64{2, 2, 2})
	for i, v := range out {
		if v != 1 {
			t.Errorf("equal nonzero scores: normalize[%d] = %v, want 1", i, v)
		}
	}

	out = normalize([]float64{0, 0})
	for i, v := range out {
		if v != 0 {
			t.Errorf("all-zero scores: normalize[%d] = %v, want 0", i, v)
		}
	}
}
