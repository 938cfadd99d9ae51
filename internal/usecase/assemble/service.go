package assemble

import (
	"sort"
	"unicode/utf8"

	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/domain/fragment"
)

// Service merges per-collection retrieval results into one bounded context
// window. Pure ranking logic, no side effects.
type Service struct {
	budget int
}

// New creates a context assembler with a character budget.
func New(budget int) *Service {
	return &Service{budget: budget}
}

// Assemble builds the context window from the per-collection fragments.
//
// All fragments compete in a single merged ranking (combined score desc,
// collection priority, document id) rather than collection-by-collection
// concatenation. A document contributes at most one fragment. A fragment is
// admitted whole or skipped; admission stops charging the budget once full.
// If at least one fragment exists the context is never empty: when nothing
// fits the budget, the single top-ranked fragment is admitted anyway.
func (s *Service) Assemble(byCollection map[domain.Collection][]fragment.Fragment) fragment.Assembled {
	var merged []fragment.Fragment
	for _, frags := range byCollection {
		merged = append(merged, frags...)
	}
	if len(merged) == 0 {
		return fragment.NewAssembled(nil, 0)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Less(&merged[j]) })

	var (
		admitted []fragment.Fragment
		seen     = make(map[string]struct{}, len(merged))
		size     int
	)
	for i := range merged {
		f := merged[i]
		if _, ok := seen[f.DocID()]; ok {
			continue
		}
		cost := utf8.RuneCountInString(f.Excerpt())
		if size+cost > s.budget {
			// Whole-unit admission: skip and keep trying smaller fragments.
			continue
		}
		seen[f.DocID()] = struct{}{}
		admitted = append(admitted, f)
		size += cost
	}

	if len(admitted) == 0 {
		// Nothing fit the budget: admit the top-ranked fragment anyway.
		top := merged[0]
		return fragment.NewAssembled([]fragment.Fragment{top}, utf8.RuneCountInString(top.Excerpt()))
	}

	return fragment.NewAssembled(admitted, size)
}
