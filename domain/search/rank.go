package search

import "sort"

// DefaultThreshold is the minimum similarity a match needs by default.
const DefaultThreshold = 0.5

// Match pairs an entity with its similarity to the query.
type Match[T any] struct {
	Entity T
	Score  float64
}

// Options control filtering and truncation of ranked results.
type Options struct {
	threshold float64
	limit     int
}

// Option configures ranking.
type Option func(*Options)

// WithThreshold sets the inclusive minimum score.
func WithThreshold(t float64) Option {
	return func(o *Options) { o.threshold = t }
}

// WithLimit keeps at most n results. Zero or negative means unlimited.
func WithLimit(n int) Option {
	return func(o *Options) { o.limit = n }
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Threshold returns the minimum score.
func (o Options) Threshold() float64 { return o.threshold }

// Limit returns the result cap, zero when unlimited.
func (o Options) Limit() int { return o.limit }

// Score returns the best similarity between query and any of the entity's
// vectors. ok is false when the entity has no vectors.
func Score[T any](query Vector, entity T, field Field[T]) (float64, bool) {
	vectors := field.Vectors(entity)
	if len(vectors) == 0 {
		return 0, false
	}
	best := 0.0
	for _, v := range vectors {
		if s := Similarity(query, v); s > best {
			best = s
		}
	}
	return best, true
}

// Rank scores candidates against query, drops those below the threshold or
// without vectors, sorts by descending score keeping input order on ties and
// truncates to the limit.
func Rank[T any](query Vector, candidates []T, field Field[T], opts ...Option) []Match[T] {
	o := NewOptions(opts...)
	if len(query) == 0 {
		return []Match[T]{}
	}

	matches := make([]Match[T], 0, len(candidates))
	for _, c := range candidates {
		score, ok := Score(query, c, field)
		if !ok || score < o.threshold {
			continue
		}
		matches = append(matches, Match[T]{Entity: c, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if o.limit > 0 && len(matches) > o.limit {
		matches = matches[:o.limit]
	}
	return matches
}
