package persistence_test

import (
	"context"
	"testing"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/infrastructure/persistence"
	"github.com/aleysapc/docsearch/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftStore_SaveKeepsEmbeddingUntilReindexed(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewDraftStore(testdb.New(t))

	d, err := store.Create(ctx, document.NewDraft(document.DraftFields{Reference: "R-1", Body: "Cuerpo"}))
	require.NoError(t, err)
	require.NoError(t, store.UpdateEmbedding(ctx, d.ID(), document.NewEmbedded("r-1 cuerpo", search.Vector{1, 2})))

	current, err := store.Get(ctx, d.ID())
	require.NoError(t, err)
	updated := current.WithFields(document.DraftFields{Reference: "R-1", Body: "Cuerpo nuevo"})
	_, err = store.Save(ctx, updated)
	require.NoError(t, err)

	got, err := store.Get(ctx, d.ID())
	require.NoError(t, err)
	assert.Equal(t, "Cuerpo nuevo", got.Body())
	assert.Equal(t, "r-1 cuerpo", got.ExtractedText())
	_, ok := got.Embedding()
	assert.True(t, ok)
}
