package persistence

import (
	"context"
	"fmt"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/repository"
	"github.com/aleysapc/docsearch/internal/database"
	"gorm.io/gorm"
)

// CorrespondenceStore implements document.CorrespondenceStore using GORM.
type CorrespondenceStore struct {
	database.Repository[document.Correspondence, CorrespondenceModel]
	db database.Database
}

// NewCorrespondenceStore creates a new CorrespondenceStore.
func NewCorrespondenceStore(db database.Database) CorrespondenceStore {
	return CorrespondenceStore{
		Repository: database.NewRepository[document.Correspondence, CorrespondenceModel](db, CorrespondenceMapper{}, "correspondence"),
		db:         db,
	}
}

// Get returns the correspondence with its documents loaded.
func (s CorrespondenceStore) Get(ctx context.Context, id int64) (document.Correspondence, error) {
	found, err := s.FindWithDocuments(ctx, repository.WithID(id))
	if err != nil {
		return document.Correspondence{}, err
	}
	if len(found) == 0 {
		return document.Correspondence{}, fmt.Errorf("%w: correspondence %d", database.ErrNotFound, id)
	}
	return found[0], nil
}

// FindWithDocuments returns correspondence with attachments preloaded in id order.
func (s CorrespondenceStore) FindWithDocuments(ctx context.Context, options ...repository.Option) ([]document.Correspondence, error) {
	var models []CorrespondenceModel
	db := database.ApplyOptions(s.db.Session(ctx).Model(&CorrespondenceModel{}), options...).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
	if err := db.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find correspondence: %w", err)
	}
	out := make([]document.Correspondence, len(models))
	for i, m := range models {
		out[i] = s.Mapper().ToDomain(m)
	}
	return out, nil
}

var _ document.CorrespondenceStore = CorrespondenceStore{}
