// Package search holds the similarity model: vectors, scoring, typed
// embedding accessors and ranking of candidate entities.
package search

import "math"

// Vector is a dense embedding.
type Vector []float64

// Clone returns an independent copy, or nil for a nil vector.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical).
// Returns 0 if the dimensions differ or either vector has zero magnitude.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Similarity maps cosine similarity onto [0,1]: 1 is the same direction,
// 0 is orthogonal or opposed.
func Similarity(a, b Vector) float64 {
	s := CosineSimilarity(a, b)
	switch {
	case math.IsNaN(s), s <= 0:
		return 0
	case s >= 1:
		return 1
	default:
		return s
	}
}

// SimilarityFromDistance converts a pgvector cosine distance (a <=> b) to
// the same scale as Similarity.
func SimilarityFromDistance(distance float64) float64 {
	s := 1 - distance
	switch {
	case math.IsNaN(s), s <= 0:
		return 0
	case s >= 1:
		return 1
	default:
		return s
	}
}

// Mean averages vectors element-wise. Vectors whose dimension differs from
// the first are rejected with ok=false. An empty input yields nil, false.
func Mean(vectors []Vector) (Vector, bool) {
	if len(vectors) == 0 {
		return nil, false
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, false
	}
	sum := make(Vector, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, false
		}
		for i, x := range v {
			sum[i] += x
		}
	}
	n := float64(len(vectors))
	for i := range sum {
		sum[i] /= n
	}
	return sum, true
}
