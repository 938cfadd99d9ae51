package domain

import "fmt"

// Collection is a named partition of the knowledge base.
type Collection string

const (
	// CollectionRules holds naming-convention rule documents.
	CollectionRules Collection = "rules"
	// CollectionDictionary holds glossary term documents.
	CollectionDictionary Collection = "dictionary"
	// CollectionQA holds curated question/answer documents.
	CollectionQA Collection = "qa"
)

// Collections lists every collection in priority order (highest first).
// The order doubles as the tie-break rank for equal combined scores.
func Collections() []Collection {
	return []Collection{CollectionRules, CollectionDictionary, CollectionQA}
}

// Priority returns the tie-break rank of the collection; lower wins.
func (c Collection) Priority() int {
	switch c {
	case CollectionRules:
		return 0
	case CollectionDictionary:
		return 1
	case CollectionQA:
		return 2
	}
	return 3
}

// IsValid checks if the collection is one of the supported values.
func (c Collection) IsValid() bool {
	return c == CollectionRules || c == CollectionDictionary || c == CollectionQA
}

// ParseCollection validates a collection name.
func ParseCollection(name string) (Collection, error) {
	c := Collection(name)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return c, nil
}
