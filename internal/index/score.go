package index

import (
	"math"
	"strings"

	"github.com/kailas-cloud/namedex/internal/domain"
)

// lexicalScore sums, over all query keywords, the posting-set hit weight and
// the per-field substring hit weights from the collection's scoring profile.
// keywords must already be lowercased.
func lexicalScore(e *entry, keywords []string, p domain.ScoringProfile) float64 {
	var score float64
	for _, kw := range keywords {
		if _, ok := e.keywords[kw]; ok {
			score += p.KeywordWeight
		}
		for name, text := range e.fields {
			w := p.FieldWeights[name]
			if w == 0 {
				continue
			}
			if strings.Contains(text, kw) {
				score += w
			}
		}
	}
	return score
}

// cosine returns the cosine similarity clamped to [0,1]. Negative similarity
// carries no useful ranking signal for this corpus and would break the
// per-query normalization floor, so it maps to 0.
func cosine(q []float32, qNorm float64, d []float32, dNorm float64) float64 {
	if len(q) == 0 || len(d) == 0 || qNorm == 0 || dNorm == 0 {
		return 0
	}
	var dot float64
	for i := range q {
		dot += float64(q[i]) * float64(d[i])
	}
	sim := dot / (qNorm * dNorm)
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// normalize min-max scales raw scores to [0,1] per query, so the profile
// weights keep the same meaning regardless of the raw score magnitudes.
// A degenerate spread (all candidates equal) maps nonzero scores to 1.
func normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	minV, maxV := raw[0], raw[0]
	for _, v := range raw[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	spread := maxV - minV
	for i, v := range raw {
		switch {
		case spread > 0:
			out[i] = (v - minV) / spread
		case v > 0:
			out[i] = 1
		default:
			out[i] = 0
		}
	}
	return out
}

func l2norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
