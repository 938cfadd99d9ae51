package index

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/namedex/internal/domain"
	"github.com/kailas-cloud/namedex/internal/domain/fragment"
)

// Config holds index-wide settings. Scoring profiles are configuration data;
// a missing profile falls back to the default hybrid profile.
type Config struct {
	VectorDim int
	Profiles  map[domain.Collection]domain.ScoringProfile
}

// Index is an immutable hybrid (lexical + vector) index over the knowledge
// base. Built once from an ingestion snapshot; concurrent reads need no
// locking. Reloads swap the whole index, see Holder.
type Index struct {
	dim         int
	profiles    map[domain.Collection]domain.ScoringProfile
	collections map[domain.Collection][]entry
}

// entry is a document prepared for scoring.
type entry struct {
	doc      domain.Document
	keywords map[string]struct{}
	fields   map[string]string // lowercased field text
	norm     float64           // vector L2 norm, 0 when no vector
}

// Build validates documents and profiles and constructs the index.
// A document whose vector length differs from the configured dimensionality
// is a configuration error (ErrVectorDimMismatch), not a skipped document.
func Build(cfg Config, docs []domain.Document) (*Index, error) {
	if cfg.VectorDim <= 0 {
		return nil, fmt.Errorf("vector dimensionality must be positive, got %d", cfg.VectorDim)
	}

	profiles := make(map[domain.Collection]domain.ScoringProfile, len(domain.Collections()))
	for _, c := range domain.Collections() {
		p, ok := cfg.Profiles[c]
		if !ok {
			p = domain.DefaultScoringProfile()
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("scoring profile %q: %w", c, err)
		}
		profiles[c] = p
	}

	collections := make(map[domain.Collection][]entry)
	for _, d := range docs {
		if !d.Collection.IsValid() {
			return nil, fmt.Errorf("document %q: %w: %q", d.ID, domain.ErrUnknownCollection, d.Collection)
		}
		if len(d.Vector) > 0 && len(d.Vector) != cfg.VectorDim {
			return nil, fmt.Errorf("document %q: %w: got %d, index expects %d",
				d.ID, domain.ErrVectorDimMismatch, len(d.Vector), cfg.VectorDim)
		}
		collections[d.Collection] = append(collections[d.Collection], newEntry(d))
	}

	// Stable document order inside each collection, so equal-score results
	// come out identically across builds.
	for c := range collections {
		es := collections[c]
		sort.Slice(es, func(i, j int) bool { return es[i].doc.ID < es[j].doc.ID })
	}

	return &Index{dim: cfg.VectorDim, profiles: profiles, collections: collections}, nil
}

func newEntry(d domain.Document) entry {
	kw := make(map[string]struct{}, len(d.Keywords))
	for _, k := range d.Keywords {
		kw[strings.ToLower(k)] = struct{}{}
	}
	fields := make(map[string]string, len(d.Fields))
	for name, text := range d.Fields {
		fields[name] = strings.ToLower(text)
	}
	return entry{doc: d, keywords: kw, fields: fields, norm: l2norm(d.Vector)}
}

// Search runs a combined lexical+vector query over one collection and returns
// at most topK fragments ordered by combined score descending with the
// deterministic tie-break (collection priority, then document id).
//
// An empty keyword set degrades to pure vector ranking; a nil embedding
// degrades to pure lexical ranking. Both absent is ErrInvalidQuerySignal.
func (ix *Index) Search(
	ctx context.Context, collection domain.Collection,
	keywords []string, embedding []float32, topK int,
) ([]fragment.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	if len(keywords) == 0 && len(embedding) == 0 {
		return nil, domain.ErrInvalidQuerySignal
	}
	if len(embedding) > 0 && len(embedding) != ix.dim {
		return nil, fmt.Errorf("query embedding: %w: got %d, index expects %d",
			domain.ErrVectorDimMismatch, len(embedding), ix.dim)
	}
	if topK <= 0 {
		return nil, nil
	}

	entries := ix.collections[collection]
	if len(entries) == 0 {
		return nil, nil
	}

	profile := ix.profiles[collection]
	lowered := lowerAll(keywords)
	queryNorm := l2norm(embedding)

	lex := make([]float64, len(entries))
	vec := make([]float64, len(entries))
	for i := range entries {
		lex[i] = lexicalScore(&entries[i], lowered, profile)
		vec[i] = cosine(embedding, queryNorm, entries[i].doc.Vector, entries[i].norm)
	}
	nlex := normalize(lex)
	nvec := normalize(vec)

	frags := make([]fragment.Fragment, 0, len(entries))
	for i := range entries {
		// A document with no signal at all never enters the ranking.
		if lex[i] == 0 && vec[i] == 0 {
			continue
		}
		combined := profile.WLex*nlex[i] + profile.WVec*nvec[i] + profile.Boost
		frags = append(frags, fragment.New(
			entries[i].doc.ID, collection, entries[i].doc.Body,
			lex[i], vec[i], combined,
		))
	}

	sort.SliceStable(frags, func(i, j int) bool { return frags[i].Less(&frags[j]) })

	if len(frags) > topK {
		frags = frags[:topK]
	}
	return frags, nil
}

// Dim returns the embedding dimensionality the index was built with.
func (ix *Index) Dim() int { return ix.dim }

// Size returns the total document count.
func (ix *Index) Size() int {
	n := 0
	for _, es := range ix.collections {
		n += len(es)
	}
	return n
}

// Counts returns the per-collection document counts.
func (ix *Index) Counts() map[domain.Collection]int {
	counts := make(map[domain.Collection]int, len(ix.collections))
	for c, es := range ix.collections {
		counts[c] = len(es)
	}
	return counts
}

func lowerAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
