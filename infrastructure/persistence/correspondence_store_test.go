package persistence_test

import (
	"context"
	"testing"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/infrastructure/persistence"
	"github.com/aleysapc/docsearch/internal/database"
	"github.com/aleysapc/docsearch/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrespondenceStore_LoadsDocuments(t *testing.T) {
	ctx := context.Background()
	db := testdb.New(t)
	correspondence := persistence.NewCorrespondenceStore(db)
	documents := persistence.NewDocumentStore(db)

	c, err := correspondence.Create(ctx, document.NewCorrespondence("OF-2024-001", "Informe", "Solicitud"))
	require.NoError(t, err)

	for _, name := range []string{"anexo-1.pdf", "anexo-2.pdf"} {
		_, err := documents.Create(ctx, persistence.SampleDocument(name).WithCorrespondence(c.ID()))
		require.NoError(t, err)
	}
	_, err = documents.Create(ctx, persistence.SampleDocument("suelto.pdf"))
	require.NoError(t, err)

	got, err := correspondence.Get(ctx, c.ID())
	require.NoError(t, err)
	assert.Equal(t, "OF-2024-001", got.Reference())
	docs := got.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "anexo-1.pdf", docs[0].Name())
	assert.Equal(t, c.ID(), docs[1].CorrespondenceID())

	_, err = correspondence.Get(ctx, c.ID()+1)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
