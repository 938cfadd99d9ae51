package query

import (
	"fmt"
	"time"
)

// MaxLength is the maximum allowed query length in bytes.
const MaxLength = 4096

// Query is a validated, ephemeral user query. Created per request, enriched
// by the analyzer with keywords and an embedding, discarded after response.
type Query struct {
	raw       string
	keywords  []string
	embedding []float32
	createdAt time.Time
}

// New validates the raw query text.
func New(raw string) (Query, error) {
	if raw == "" {
		return Query{}, fmt.Errorf("query is required")
	}
	if len(raw) > MaxLength {
		return Query{}, fmt.Errorf("query too long (max %d bytes)", MaxLength)
	}
	return Query{raw: raw, createdAt: time.Now()}, nil
}

// WithAnalysis returns a copy enriched with the analyzer output.
// Either slice may be nil when the corresponding signal is unavailable.
func (q Query) WithAnalysis(keywords []string, embedding []float32) Query {
	q.keywords = keywords
	q.embedding = embedding
	return q
}

// Raw returns the original query text.
func (q *Query) Raw() string { return q.raw }

// Keywords returns the extracted keyword set (nil before analysis).
func (q *Query) Keywords() []string { return q.keywords }

// Embedding returns the query embedding (nil before analysis or when degraded).
func (q *Query) Embedding() []float32 { return q.embedding }

// CreatedAt returns the request timestamp.
func (q *Query) CreatedAt() time.Time { return q.createdAt }

// HasSignal reports whether at least one retrieval signal is present.
func (q *Query) HasSignal() bool {
	return len(q.keywords) > 0 || len(q.embedding) > 0
}
