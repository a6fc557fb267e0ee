package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/search"
)

func (s stores) search(embedder search.Embedder, cfg SearchConfig, closed *atomic.Bool) *Search {
	return NewSearch(embedder, s.documents, s.correspondence, s.drafts, cfg, closed, nil)
}

func TestSearch_BlankQueryReturnsNothing(t *testing.T) {
	s := newStores(t)
	embedder := &topicEmbedder{}
	s.embedDocument(t, "a", "presupuesto")

	for _, q := range []string{"", "   ", "<p></p>"} {
		got, err := s.search(embedder, DefaultSearchConfig(), nil).Documents(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, got, "query %q", q)
	}
	assert.Zero(t, embedder.calls.Load())
}

func TestSearch_UnembeddedRecordsAreExcluded(t *testing.T) {
	s := newStores(t)
	embedded := s.embedDocument(t, "a", "presupuesto")
	s.createDocument(t, "b", "presupuesto")

	got, err := s.search(&topicEmbedder{}, DefaultSearchConfig(), nil).Documents(context.Background(), "consulta presupuesto")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, embedded.ID(), got[0].Entity.ID())
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}

func TestSearch_ThresholdAndLimit(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)
	s.embedDocument(t, "budget-1", "presupuesto 2024")
	s.embedDocument(t, "budget-2", "presupuesto 2025")
	s.embedDocument(t, "contract", "contrato")
	s.embedDocument(t, "other", "acta")
	svc := s.search(&topicEmbedder{}, DefaultSearchConfig(), nil)

	got, err := svc.Documents(ctx, "presupuesto")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "budget-1", got[0].Entity.Name())
	assert.Equal(t, "budget-2", got[1].Entity.Name())

	got, err = svc.Documents(ctx, "presupuesto", search.WithThreshold(0))
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "contract", got[2].Entity.Name())
	assert.Zero(t, got[3].Score)

	got, err = svc.Documents(ctx, "presupuesto", search.WithLimit(1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "budget-1", got[0].Entity.Name(), "equal scores keep ascending id")
}

func TestSearch_ModelUnavailableReturnsNothing(t *testing.T) {
	s := newStores(t)
	s.embedDocument(t, "a", "presupuesto")

	got, err := s.search(&topicEmbedder{err: search.ErrModelUnavailable}, DefaultSearchConfig(), nil).
		Documents(context.Background(), "presupuesto")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_QueryEmbeddingIsCached(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)
	s.embedDocument(t, "a", "presupuesto")
	embedder := &topicEmbedder{}
	svc := s.search(embedder, DefaultSearchConfig(), nil)

	for _, q := range []string{"Presupuesto", "presupuesto ", "<b>presupuesto</b>"} {
		got, err := svc.Documents(ctx, q)
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.Equal(t, int32(1), embedder.calls.Load())
}

func TestSearch_CorrespondenceScoresByBestAttachment(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	budget, err := s.correspondence.Create(ctx, document.NewCorrespondence("OF-1", "", ""))
	require.NoError(t, err)
	contract, err := s.correspondence.Create(ctx, document.NewCorrespondence("OF-2", "", ""))
	require.NoError(t, err)
	_, err = s.correspondence.Create(ctx, document.NewCorrespondence("OF-3", "sin adjuntos", ""))
	require.NoError(t, err)

	attach := func(name, text string, parent int64) {
		d := s.embedDocument(t, name, text)
		_, err := s.documents.Save(ctx, d.WithCorrespondence(parent))
		require.NoError(t, err)
	}
	attach("acta.pdf", "acta", budget.ID())
	attach("presupuesto.pdf", "presupuesto", budget.ID())
	attach("contrato.pdf", "contrato", contract.ID())

	got, err := s.search(&topicEmbedder{}, DefaultSearchConfig(), nil).Correspondence(ctx, "presupuesto")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "OF-1", got[0].Entity.Reference())
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}

func TestSearch_Drafts(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)
	embedder := &topicEmbedder{}
	ix := s.indexer(embedder)

	for _, body := range []string{"contrato de servicios", "presupuesto general", ""} {
		d, err := s.drafts.Create(ctx, document.NewDraft(document.DraftFields{Body: body}))
		require.NoError(t, err)
		require.NoError(t, ix.Index(ctx, document.Ref{Kind: document.KindDraft, ID: d.ID()}))
	}

	got, err := s.search(embedder, DefaultSearchConfig(), nil).Drafts(ctx, "contrato")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "contrato de servicios", got[0].Entity.Body())
}

func TestRank_OverCallerCandidates(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)
	a := s.embedDocument(t, "a", "presupuesto")
	b := s.embedDocument(t, "b", "contrato")
	svc := s.search(&topicEmbedder{}, DefaultSearchConfig(), nil)

	got, err := Rank(ctx, svc, []document.Document{b, a}, search.OwnField(document.Document.Embedding), "contrato")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID(), got[0].Entity.ID())
}

func TestSearch_Closed(t *testing.T) {
	s := newStores(t)
	var closed atomic.Bool
	closed.Store(true)
	svc := s.search(&topicEmbedder{}, DefaultSearchConfig(), &closed)

	_, err := svc.Documents(context.Background(), "presupuesto")
	assert.ErrorIs(t, err, ErrClientClosed)
	_, err = svc.Drafts(context.Background(), "presupuesto")
	assert.ErrorIs(t, err, ErrClientClosed)
}
