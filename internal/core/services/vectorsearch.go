package services

import (
	"math"
	"sort"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

// SearchIndex returns up to k chunks of idx ranked by cosine similarity to query.
// Ties keep build order.
func SearchIndex(idx *domain.VectorIndex, query []float32, k int) []domain.RetrievedChunk {
	if idx == nil || len(idx.Chunks) == 0 || k <= 0 {
		return nil
	}

	qNorm := norm(query)
	hits := make([]domain.RetrievedChunk, 0, len(idx.Chunks))
	for i := range idx.Chunks {
		c := &idx.Chunks[i]
		cNorm := c.Norm
		if cNorm == 0 {
			cNorm = norm(c.Embedding)
		}
		hits = append(hits, domain.RetrievedChunk{
			Chunk:      c.Chunk,
			Similarity: cosine(query, c.Embedding, qNorm, cNorm),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// CacheNorms records the norm of every chunk embedding in idx.
func CacheNorms(idx *domain.VectorIndex) {
	for i := range idx.Chunks {
		idx.Chunks[i].Norm = norm(idx.Chunks[i].Embedding)
	}
}

func cosine(a, b []float32, aNorm, bNorm float64) float64 {
	if len(a) != len(b) || aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
