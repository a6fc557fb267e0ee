package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	name string
	vec  Vector
}

var itemField = OwnField(func(i item) (Vector, bool) { return i.vec, i.vec != nil })

func names(matches []Match[item]) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Entity.name
	}
	return out
}

func fixture() []item {
	return []item{
		{name: "far", vec: Vector{0, 1}},
		{name: "close", vec: Vector{0.9, 0.1}},
		{name: "exact", vec: Vector{1, 0}},
		{name: "none"},
		{name: "mid", vec: Vector{0.6, 0.4}},
		{name: "opposite", vec: Vector{-1, 0}},
	}
}

func TestRank_OrdersByDescendingSimilarity(t *testing.T) {
	got := Rank(Vector{1, 0}, fixture(), itemField, WithThreshold(0))

	assert.Equal(t, []string{"exact", "close", "mid", "far", "opposite"}, names(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	for _, m := range got {
		assert.GreaterOrEqual(t, m.Score, 0.0)
		assert.LessOrEqual(t, m.Score, 1.0)
	}
}

func TestRank_ExcludesEntitiesWithoutEmbedding(t *testing.T) {
	candidates := []item{
		{name: "a", vec: Vector{1, 0}},
		{name: "b"},
	}
	got := Rank(Vector{1, 0}, candidates, itemField, WithThreshold(0))
	assert.Equal(t, []string{"a"}, names(got))

	got = Rank(Vector{0, 1}, candidates, itemField, WithThreshold(0))
	assert.Equal(t, []string{"a"}, names(got), "entity without embedding is never scored as zero")
}

func TestRank_DefaultThresholdIsInclusive(t *testing.T) {
	candidates := []item{
		{name: "half", vec: Vector{1, 0, 0, 0}},
		{name: "below", vec: Vector{1, -0.01, 0, 0}},
	}
	got := Rank(Vector{1, 1, 1, 1}, candidates, itemField)
	require.Len(t, got, 1)
	assert.Equal(t, "half", got[0].Entity.name)
	assert.InDelta(t, 0.5, got[0].Score, 1e-9)
}

func TestRank_ThresholdMonotonicity(t *testing.T) {
	prev := len(fixture()) + 1
	for _, threshold := range []float64{0, 0.1, 0.3, 0.5, 0.7, 0.9, 0.99, 1} {
		got := Rank(Vector{1, 0}, fixture(), itemField, WithThreshold(threshold))
		assert.LessOrEqual(t, len(got), prev, "threshold %v", threshold)
		prev = len(got)
	}
}

func TestRank_LimitIsTopPrefix(t *testing.T) {
	all := Rank(Vector{1, 0}, fixture(), itemField, WithThreshold(0))
	for limit := 1; limit <= len(all)+1; limit++ {
		got := Rank(Vector{1, 0}, fixture(), itemField, WithThreshold(0), WithLimit(limit))
		assert.LessOrEqual(t, len(got), limit)
		assert.Equal(t, all[:len(got)], got)
	}
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	candidates := []item{
		{name: "first", vec: Vector{1, 1}},
		{name: "second", vec: Vector{1, 1}},
		{name: "third", vec: Vector{1, 1}},
	}
	got := Rank(Vector{1, 1}, candidates, itemField)
	assert.Equal(t, []string{"first", "second", "third"}, names(got))
}

func TestRank_EmptyQueryVector(t *testing.T) {
	got := Rank(nil, fixture(), itemField, WithThreshold(0))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

type parent struct {
	name     string
	children []item
}

func TestChildField_ScoresParentByBestChild(t *testing.T) {
	field := ChildField(
		func(p parent) []item { return p.children },
		func(c item) (Vector, bool) { return c.vec, c.vec != nil },
	)
	parents := []parent{
		{name: "no-docs"},
		{name: "unembedded", children: []item{{name: "x"}}},
		{name: "weak", children: []item{{vec: Vector{0, 1}}}},
		{name: "strong", children: []item{{vec: Vector{0, 1}}, {vec: Vector{1, 0}}}},
	}

	got := Rank(Vector{1, 0}, parents, field, WithThreshold(0))
	require.Len(t, got, 2)
	assert.Equal(t, "strong", got[0].Entity.name)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, "weak", got[1].Entity.name)
}
