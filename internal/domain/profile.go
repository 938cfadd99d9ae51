package domain

import "fmt"

// ScoringProfile defines how lexical score, vector similarity, and boosts
// combine into one ranking score for a collection. Relevance tuning is a
// configuration change, never code.
type ScoringProfile struct {
	// WLex and WVec weight the normalized lexical and vector signals.
	WLex float64
	WVec float64
	// KeywordWeight scores an exact hit in the document's posting set.
	KeywordWeight float64
	// FieldWeights scores a substring hit per structured field.
	FieldWeights map[string]float64
	// Boost is a flat additive boost applied to every document of the collection.
	Boost float64
}

// DefaultScoringProfile returns a balanced hybrid profile.
func DefaultScoringProfile() ScoringProfile {
	return ScoringProfile{
		WLex:          0.5,
		WVec:          0.5,
		KeywordWeight: 2.0,
		FieldWeights:  map[string]float64{},
	}
}

// Validate checks the profile invariants: no negative weights, and at least
// one lexical field or posting weight must be nonzero when WLex is nonzero.
func (p ScoringProfile) Validate() error {
	if p.WLex < 0 || p.WVec < 0 {
		return fmt.Errorf("signal weights must be non-negative, got w_lex=%g w_vec=%g", p.WLex, p.WVec)
	}
	if p.WLex == 0 && p.WVec == 0 {
		return fmt.Errorf("at least one of w_lex and w_vec must be nonzero")
	}
	if p.KeywordWeight < 0 {
		return fmt.Errorf("keyword weight must be non-negative, got %g", p.KeywordWeight)
	}
	for name, w := range p.FieldWeights {
		if w < 0 {
			return fmt.Errorf("field weight %q must be non-negative, got %g", name, w)
		}
	}
	if p.WLex > 0 && p.KeywordWeight == 0 && !p.hasNonzeroField() {
		return fmt.Errorf("lexical weight is nonzero but no field or keyword weight is set")
	}
	return nil
}

func (p ScoringProfile) hasNonzeroField() bool {
	for _, w := range p.FieldWeights {
		if w > 0 {
			return true
		}
	}
	return false
}
