package domain

// Document is a knowledge-base entry. Documents are produced by the ingestion
// collaborator with keyword postings and embeddings already populated; the
// query pipeline never writes them.
type Document struct {
	ID         string
	Collection Collection
	// Body is the rendered excerpt contributed to assembled contexts.
	Body string
	// Fields holds the searchable structured fields (rule_kr, example,
	// korean, english, question, ...). Field names are weighted by the
	// collection's scoring profile.
	Fields map[string]string
	// Keywords is the precomputed posting set.
	Keywords []string
	Vector   []float32
}

// Answer is the final synthesized response with the document ids actually cited.
type Answer struct {
	Text  string
	Cited []string
}
