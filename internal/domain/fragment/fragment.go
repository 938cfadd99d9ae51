package fragment

import "github.com/kailas-cloud/namedex/internal/domain"

// Fragment is a single retrieval hit: a document reference with its matched
// excerpt and the scores that produced its rank.
type Fragment struct {
	docID      string
	collection domain.Collection
	excerpt    string
	lexScore   float64
	vecScore   float64
	score      float64
}

// New creates a retrieved fragment.
func New(
	docID string, collection domain.Collection, excerpt string,
	lexScore, vecScore, score float64,
) Fragment {
	return Fragment{
		docID:      docID,
		collection: collection,
		excerpt:    excerpt,
		lexScore:   lexScore,
		vecScore:   vecScore,
		score:      score,
	}
}

// DocID returns the source document identifier.
func (f *Fragment) DocID() string { return f.docID }

// Collection returns the source collection.
func (f *Fragment) Collection() domain.Collection { return f.collection }

// Excerpt returns the matched-field excerpt contributed to contexts.
func (f *Fragment) Excerpt() string { return f.excerpt }

// LexScore returns the raw lexical score.
func (f *Fragment) LexScore() float64 { return f.lexScore }

// VecScore returns the raw vector similarity.
func (f *Fragment) VecScore() float64 { return f.vecScore }

// Score returns the combined ranking score.
func (f *Fragment) Score() float64 { return f.score }

// Less reports whether f ranks ahead of other. Combined score descending,
// ties broken by collection priority (rules > dictionary > qa), then by
// document id ascending. Total order, so identical inputs rank identically.
func (f *Fragment) Less(other *Fragment) bool {
	if f.score != other.score {
		return f.score > other.score
	}
	if f.collection.Priority() != other.collection.Priority() {
		return f.collection.Priority() < other.collection.Priority()
	}
	return f.docID < other.docID
}
