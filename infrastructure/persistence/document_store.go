package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/repository"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/internal/database"
	"gorm.io/gorm/clause"
)

// DocumentStore implements document.DocumentStore using GORM.
type DocumentStore struct {
	database.Repository[document.Document, DocumentModel]
	db database.Database
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db database.Database) DocumentStore {
	return DocumentStore{
		Repository: database.NewRepository[document.Document, DocumentModel](db, DocumentMapper{}, "document"),
		db:         db,
	}
}

// UpdateEmbedding writes extracted_text and embedding only.
func (s DocumentStore) UpdateEmbedding(ctx context.Context, id int64, e document.Embedded) error {
	return updateEmbedding(ctx, s.Repository.Update, id, e)
}

// Nearest returns embedded documents ordered by cosine similarity to query,
// equal scores by ascending id. PostgreSQL orders with pgvector's <=>
// operator; SQLite scores in memory.
func (s DocumentStore) Nearest(ctx context.Context, query search.Vector, limit int, options ...repository.Option) ([]document.Document, error) {
	if len(query) == 0 {
		return []document.Document{}, nil
	}
	options = append(options, repository.WithEmbedding())

	if s.db.IsPostgres() {
		var models []DocumentModel
		db := database.ApplyConditions(s.db.Session(ctx).Model(&DocumentModel{}), options...).
			Order(clause.OrderBy{Expression: clause.Expr{
				SQL:  "embedding <=> ?::vector",
				Vars: []any{database.NewPgVector(query).String()},
			}}).
			Order("id ASC")
		if limit > 0 {
			db = db.Limit(limit)
		}
		if err := db.Find(&models).Error; err != nil {
			return nil, fmt.Errorf("nearest documents: %w", err)
		}
		docs := make([]document.Document, len(models))
		for i, m := range models {
			docs[i] = s.Mapper().ToDomain(m)
		}
		return docs, nil
	}

	docs, err := s.Find(ctx, append(options, repository.WithOrderAsc("id"))...)
	if err != nil {
		return nil, err
	}
	scores := make(map[int64]float64, len(docs))
	for _, d := range docs {
		v, _ := d.Embedding()
		scores[d.ID()] = search.CosineSimilarity(query, v)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return scores[docs[i].ID()] > scores[docs[j].ID()]
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

type columnUpdater func(ctx context.Context, id int64, columns map[string]any) error

// updateEmbedding maps a missing row to document.ErrEntityNotFound while
// keeping database.ErrNotFound in the chain.
func updateEmbedding(ctx context.Context, update columnUpdater, id int64, e document.Embedded) error {
	err := update(ctx, id, embeddingColumns(e))
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %w", document.ErrEntityNotFound, err)
	}
	return err
}

var _ document.DocumentStore = DocumentStore{}
