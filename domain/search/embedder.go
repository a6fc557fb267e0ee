package search

import (
	"context"
	"errors"
)

// ErrModelUnavailable indicates the embedding backend could not be
// constructed or invoked. Callers recover from it: searches return no
// results and indexing keeps the previous embedding.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// Embedder converts text into embedding vectors.
type Embedder interface {
	// Encode embeds a single text.
	Encode(ctx context.Context, text string) (Vector, error)

	// EncodeBatch embeds texts, returning one vector per input in input order.
	EncodeBatch(ctx context.Context, texts []string) ([]Vector, error)
}
