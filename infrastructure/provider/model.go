package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aleysapc/docsearch/domain/search"
)

// Factory builds a Backend. It runs at most once at a time and only until it
// first succeeds.
type Factory func(ctx context.Context) (Backend, error)

type loadedBackend struct {
	backend Backend
}

// ModelProvider is the process-wide embedding model handle. The backend is
// constructed on first use; concurrent first callers share one construction
// and later callers read the built handle without locking. A failed
// construction is not remembered, so the next call tries again.
type ModelProvider struct {
	name      string
	dimension int
	factory   Factory
	logger    *slog.Logger

	group  singleflight.Group
	loaded atomic.Pointer[loadedBackend]
}

// ModelOption configures a ModelProvider.
type ModelOption func(*ModelProvider)

// WithModelLogger sets the logger used for construction events.
func WithModelLogger(l *slog.Logger) ModelOption {
	return func(m *ModelProvider) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewModelProvider creates a provider for the named model. A positive
// dimension makes every returned vector be checked against it.
func NewModelProvider(name string, dimension int, factory Factory, opts ...ModelOption) *ModelProvider {
	m := &ModelProvider{
		name:      name,
		dimension: dimension,
		factory:   factory,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the model identifier. Vectors are comparable only between
// handles with the same name.
func (m *ModelProvider) Name() string { return m.name }

// Dimension returns the expected vector size, or 0 when unchecked.
func (m *ModelProvider) Dimension() int { return m.dimension }

// Loaded reports whether the backend has been constructed.
func (m *ModelProvider) Loaded() bool { return m.loaded.Load() != nil }

func (m *ModelProvider) backend(ctx context.Context) (Backend, error) {
	if l := m.loaded.Load(); l != nil {
		return l.backend, nil
	}

	v, err, _ := m.group.Do(m.name, func() (any, error) {
		if l := m.loaded.Load(); l != nil {
			return l.backend, nil
		}
		start := time.Now()
		b, err := m.factory(context.WithoutCancel(ctx))
		if err != nil {
			m.logger.Error("embedding model construction failed", slog.String("model", m.name), slog.Any("error", err))
			return nil, err
		}
		m.loaded.Store(&loadedBackend{backend: b})
		m.logger.Info("embedding model ready",
			slog.String("model", m.name),
			slog.Int("dimension", m.dimension),
			slog.Duration("elapsed", time.Since(start)),
		)
		return b, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", search.ErrModelUnavailable, m.name, err)
	}
	return v.(Backend), nil
}

// Encode embeds a single text.
func (m *ModelProvider) Encode(ctx context.Context, text string) (search.Vector, error) {
	vectors, err := m.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EncodeBatch embeds texts in Capacity-sized batches and returns one vector
// per input in input order.
func (m *ModelProvider) EncodeBatch(ctx context.Context, texts []string) ([]search.Vector, error) {
	if len(texts) == 0 {
		return []search.Vector{}, nil
	}

	b, err := m.backend(ctx)
	if err != nil {
		return nil, err
	}

	size := b.Capacity()
	if size <= 0 {
		size = len(texts)
	}

	out := make([]search.Vector, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		resp, err := b.Embed(ctx, NewEmbeddingRequest(texts[start:end]))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", search.ErrModelUnavailable, err)
		}

		embeddings := resp.Embeddings()
		if len(embeddings) != end-start {
			return nil, fmt.Errorf("%w: %w: got %d vectors for %d texts",
				search.ErrModelUnavailable, errEmbeddingCountMismatch, len(embeddings), end-start)
		}
		for _, e := range embeddings {
			if m.dimension > 0 && len(e) != m.dimension {
				return nil, fmt.Errorf("%w: %w: got %d, want %d",
					search.ErrModelUnavailable, ErrDimensionMismatch, len(e), m.dimension)
			}
			out = append(out, search.Vector(e))
		}
	}
	return out, nil
}

// Close releases the backend if it was constructed.
func (m *ModelProvider) Close() error {
	l := m.loaded.Swap(nil)
	if l == nil {
		return nil
	}
	return l.backend.Close()
}

var _ search.Embedder = (*ModelProvider)(nil)
