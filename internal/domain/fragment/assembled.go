package fragment

// Assembled is an ordered context window selected under a size budget,
// deduplicated by document id.
type Assembled struct {
	fragments []Fragment
	chars     int
}

// NewAssembled creates an assembled context. chars is the cumulative excerpt size.
func NewAssembled(fragments []Fragment, chars int) Assembled {
	return Assembled{fragments: fragments, chars: chars}
}

// Fragments returns the admitted fragments in rank order.
func (a *Assembled) Fragments() []Fragment { return a.fragments }

// Chars returns the cumulative excerpt size in characters.
func (a *Assembled) Chars() int { return a.chars }

// Empty reports whether no fragment was admitted.
func (a *Assembled) Empty() bool { return len(a.fragments) == 0 }

// DocIDs returns the contributing document ids in rank order.
func (a *Assembled) DocIDs() []string {
	ids := make([]string, len(a.fragments))
	for i := range a.fragments {
		ids[i] = a.fragments[i].DocID()
	}
	return ids
}
