// Package service provides application layer services that orchestrate domain operations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/repository"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/domain/text"
)

// DefaultQueryCacheSize is the number of query embeddings kept in memory.
const DefaultQueryCacheSize = 256

// SearchConfig holds defaults applied before per-call options. Zero values
// keep the package defaults.
type SearchConfig struct {
	Threshold float64
	Limit     int
	CacheSize int
}

// DefaultSearchConfig returns the threshold 0.5, unlimited results and the
// default cache size.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Threshold: search.DefaultThreshold,
		CacheSize: DefaultQueryCacheSize,
	}
}

// Search ranks stored records against free-text queries. A query is
// embedded once per call; when the model is unavailable every search
// returns no matches instead of failing.
type Search struct {
	embedder       search.Embedder
	documents      document.DocumentStore
	correspondence document.CorrespondenceStore
	drafts         document.DraftStore
	cache          *lru.Cache[string, search.Vector]
	defaults       []search.Option
	closed         *atomic.Bool
	logger         *slog.Logger
}

// NewSearch creates a new Search service.
func NewSearch(
	embedder search.Embedder,
	documents document.DocumentStore,
	correspondence document.CorrespondenceStore,
	drafts document.DraftStore,
	cfg SearchConfig,
	closed *atomic.Bool,
	logger *slog.Logger,
) *Search {
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultQueryCacheSize
	}
	cache, _ := lru.New[string, search.Vector](size)

	var defaults []search.Option
	if cfg.Threshold > 0 {
		defaults = append(defaults, search.WithThreshold(cfg.Threshold))
	}
	if cfg.Limit > 0 {
		defaults = append(defaults, search.WithLimit(cfg.Limit))
	}

	return &Search{
		embedder:       embedder,
		documents:      documents,
		correspondence: correspondence,
		drafts:         drafts,
		cache:          cache,
		defaults:       defaults,
		closed:         closed,
		logger:         logger,
	}
}

func (s *Search) options(opts []search.Option) search.Options {
	return search.NewOptions(append(append([]search.Option{}, s.defaults...), opts...)...)
}

func (s *Search) checkOpen() error {
	if s.closed != nil && s.closed.Load() {
		return ErrClientClosed
	}
	return nil
}

// QueryVector embeds query. ok is false for a blank query and when the
// model is unavailable; the latter is logged.
func (s *Search) QueryVector(ctx context.Context, query string) (search.Vector, bool) {
	normalized := text.Normalize(query)
	if normalized == "" {
		return nil, false
	}
	if v, ok := s.cache.Get(normalized); ok {
		return v, true
	}

	v, err := s.embedder.Encode(ctx, normalized)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, search.ErrModelUnavailable) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "semantic search disabled for query",
			slog.String("query", preview(normalized, 80)),
			slog.Any("error", err),
		)
		return nil, false
	}
	s.cache.Add(normalized, v)
	return v, true
}

// Documents ranks documents by their own embedding.
func (s *Search) Documents(ctx context.Context, query string, opts ...search.Option) ([]search.Match[document.Document], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	vector, ok := s.QueryVector(ctx, query)
	if !ok {
		return []search.Match[document.Document]{}, nil
	}

	o := s.options(opts)
	candidates, err := s.documents.Nearest(ctx, vector, o.Limit())
	if err != nil {
		return nil, err
	}
	return search.Rank(vector, candidates, documentField(), resolved(o)...), nil
}

// Correspondence ranks correspondence by the best matching attached document.
func (s *Search) Correspondence(ctx context.Context, query string, opts ...search.Option) ([]search.Match[document.Correspondence], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	vector, ok := s.QueryVector(ctx, query)
	if !ok {
		return []search.Match[document.Correspondence]{}, nil
	}

	candidates, err := s.correspondence.FindWithDocuments(ctx, repository.WithOrderAsc("id"))
	if err != nil {
		return nil, err
	}
	field := search.ChildField(document.Correspondence.Documents, document.Document.Embedding)
	return search.Rank(vector, candidates, field, resolved(s.options(opts))...), nil
}

// Drafts ranks drafts by their own embedding.
func (s *Search) Drafts(ctx context.Context, query string, opts ...search.Option) ([]search.Match[document.Draft], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	vector, ok := s.QueryVector(ctx, query)
	if !ok {
		return []search.Match[document.Draft]{}, nil
	}

	candidates, err := s.drafts.Find(ctx, repository.WithEmbedding(), repository.WithOrderAsc("id"))
	if err != nil {
		return nil, err
	}
	return search.Rank(vector, candidates, search.OwnField(document.Draft.Embedding), resolved(s.options(opts))...), nil
}

// Rank ranks caller-selected candidates against query through field. It
// lets listing endpoints layer semantic ranking over their own filtering.
func Rank[T any](ctx context.Context, s *Search, candidates []T, field search.Field[T], query string, opts ...search.Option) ([]search.Match[T], error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	vector, ok := s.QueryVector(ctx, query)
	if !ok {
		return []search.Match[T]{}, nil
	}
	return search.Rank(vector, candidates, field, resolved(s.options(opts))...), nil
}

func documentField() search.Field[document.Document] {
	return search.OwnField(document.Document.Embedding)
}

// resolved turns merged options back into option funcs for search.Rank.
func resolved(o search.Options) []search.Option {
	return []search.Option{search.WithThreshold(o.Threshold()), search.WithLimit(o.Limit())}
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	return document.Preview(s, n)
}
