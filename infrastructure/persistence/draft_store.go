package persistence

import (
	"context"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/internal/database"
)

// DraftStore implements document.DraftStore using GORM.
type DraftStore struct {
	database.Repository[document.Draft, DraftModel]
}

// NewDraftStore creates a new DraftStore.
func NewDraftStore(db database.Database) DraftStore {
	return DraftStore{
		Repository: database.NewRepository[document.Draft, DraftModel](db, DraftMapper{}, "draft"),
	}
}

// UpdateEmbedding writes extracted_text and embedding only.
func (s DraftStore) UpdateEmbedding(ctx context.Context, id int64, e document.Embedded) error {
	return updateEmbedding(ctx, s.Repository.Update, id, e)
}

var _ document.DraftStore = DraftStore{}
