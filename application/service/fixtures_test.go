package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/infrastructure/persistence"
	"github.com/aleysapc/docsearch/internal/database"
	"github.com/aleysapc/docsearch/internal/testdb"
)

// topicEmbedder maps text onto three axes by keyword so similarities are
// predictable: budget, contract and anything else.
type topicEmbedder struct {
	calls  atomic.Int32
	mu     sync.Mutex
	seen   []string
	err    error
	before func(text string)
}

func topicVector(text string) search.Vector {
	switch {
	case strings.Contains(text, "presupuesto"):
		return search.Vector{1, 0.1, 0}
	case strings.Contains(text, "contrato"):
		return search.Vector{0.1, 1, 0}
	default:
		return search.Vector{0, 0, 1}
	}
}

func (e *topicEmbedder) Encode(ctx context.Context, text string) (search.Vector, error) {
	vectors, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *topicEmbedder) EncodeBatch(_ context.Context, texts []string) ([]search.Vector, error) {
	e.calls.Add(1)
	e.mu.Lock()
	e.seen = append(e.seen, texts...)
	e.mu.Unlock()
	if hook := e.before; hook != nil {
		for _, t := range texts {
			hook(t)
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	out := make([]search.Vector, len(texts))
	for i, t := range texts {
		out[i] = topicVector(t)
	}
	return out, nil
}

func (e *topicEmbedder) texts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.seen...)
}

type stores struct {
	db             database.Database
	documents      persistence.DocumentStore
	drafts         persistence.DraftStore
	correspondence persistence.CorrespondenceStore
	tasks          persistence.TaskStore
	jobs           persistence.JobStore
}

func newStores(t *testing.T) stores {
	t.Helper()
	db := testdb.New(t)
	return stores{
		db:             db,
		documents:      persistence.NewDocumentStore(db),
		drafts:         persistence.NewDraftStore(db),
		correspondence: persistence.NewCorrespondenceStore(db),
		tasks:          persistence.NewTaskStore(db),
		jobs:           persistence.NewJobStore(db),
	}
}

func (s stores) indexer(embedder search.Embedder) *Indexer {
	return NewIndexer(s.db, embedder, s.documents, s.drafts, s.correspondence, nil)
}

func (s stores) createDocument(t *testing.T, name, content string) document.Document {
	t.Helper()
	d, err := s.documents.Create(context.Background(), document.NewDocument(name, "/uploads/"+name).WithContent(content))
	require.NoError(t, err)
	return d
}

func (s stores) embedDocument(t *testing.T, name, text string) document.Document {
	t.Helper()
	d, err := s.documents.Create(context.Background(), document.NewDocument(name, "/uploads/"+name))
	require.NoError(t, err)
	require.NoError(t, s.documents.UpdateEmbedding(context.Background(), d.ID(), document.NewEmbedded(text, topicVector(text))))
	got, err := s.documents.Get(context.Background(), d.ID())
	require.NoError(t, err)
	return got
}
