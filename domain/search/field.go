package search

// Field resolves the embeddings an entity is ranked by. An entity with no
// vectors is not a candidate.
type Field[T any] struct {
	vectors func(T) []Vector
}

// Vectors returns the stored vectors for entity.
func (f Field[T]) Vectors(entity T) []Vector {
	if f.vectors == nil {
		return nil
	}
	return f.vectors(entity)
}

// OwnField ranks an entity by its own embedding.
func OwnField[T any](embedding func(T) (Vector, bool)) Field[T] {
	return Field[T]{vectors: func(entity T) []Vector {
		v, ok := embedding(entity)
		if !ok || len(v) == 0 {
			return nil
		}
		return []Vector{v}
	}}
}

// ChildField ranks a parent entity by the embeddings of its children. The
// parent scores as its best matching child.
func ChildField[T any, C any](children func(T) []C, embedding func(C) (Vector, bool)) Field[T] {
	return Field[T]{vectors: func(entity T) []Vector {
		var out []Vector
		for _, child := range children(entity) {
			if v, ok := embedding(child); ok && len(v) > 0 {
				out = append(out, v)
			}
		}
		return out
	}}
}
