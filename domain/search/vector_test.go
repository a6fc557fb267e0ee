package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want float64
	}{
		{name: "identical", a: Vector{1, 2, 3}, b: Vector{1, 2, 3}, want: 1},
		{name: "scaled", a: Vector{1, 0}, b: Vector{5, 0}, want: 1},
		{name: "orthogonal", a: Vector{1, 0}, b: Vector{0, 1}, want: 0},
		{name: "opposite", a: Vector{1, 0}, b: Vector{-1, 0}, want: -1},
		{name: "dimension mismatch", a: Vector{1}, b: Vector{1, 0}, want: 0},
		{name: "zero magnitude", a: Vector{0, 0}, b: Vector{1, 0}, want: 0},
		{name: "empty", a: Vector{}, b: Vector{}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity_ClampsToUnitInterval(t *testing.T) {
	assert.Equal(t, 0.0, Similarity(Vector{1, 0}, Vector{-1, 0}))
	assert.InDelta(t, 1.0, Similarity(Vector{1, 1}, Vector{2, 2}), 1e-9)
	assert.Equal(t, 0.0, SimilarityFromDistance(1.7))
	assert.Equal(t, 1.0, SimilarityFromDistance(-0.0001))
	assert.InDelta(t, 0.75, SimilarityFromDistance(0.25), 1e-9)
	assert.Equal(t, 0.0, SimilarityFromDistance(math.NaN()))
}

func TestMean(t *testing.T) {
	got, ok := Mean([]Vector{{1, 2}, {3, 4}})
	assert.True(t, ok)
	assert.Equal(t, Vector{2, 3}, got)

	_, ok = Mean(nil)
	assert.False(t, ok)

	_, ok = Mean([]Vector{{1, 2}, {1}})
	assert.False(t, ok)
}

func TestVector_Clone(t *testing.T) {
	src := Vector{1, 2}
	cp := src.Clone()
	cp[0] = 7
	assert.Equal(t, 1.0, src[0])
	assert.Nil(t, Vector(nil).Clone())
}
