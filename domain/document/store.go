package document

import (
	"context"

	"github.com/aleysapc/docsearch/domain/repository"
	"github.com/aleysapc/docsearch/domain/search"
)

// Kind names a searchable record type.
type Kind string

// Kind values.
const (
	KindDocument       Kind = "document"
	KindCorrespondence Kind = "correspondence"
	KindDraft          Kind = "draft"
)

// Ref identifies one record of a kind.
type Ref struct {
	Kind Kind
	ID   int64
}

// EmbeddingWriter is the partial-field update shared by every embeddable
// store. It writes extracted_text and embedding only, or returns an error
// wrapping database.ErrNotFound when the record is gone.
type EmbeddingWriter interface {
	UpdateEmbedding(ctx context.Context, id int64, e Embedded) error
}

// DocumentStore persists documents.
type DocumentStore interface {
	EmbeddingWriter
	Create(ctx context.Context, d Document) (Document, error)
	Get(ctx context.Context, id int64) (Document, error)
	Save(ctx context.Context, d Document) (Document, error)
	Find(ctx context.Context, options ...repository.Option) ([]Document, error)
	Count(ctx context.Context, options ...repository.Option) (int64, error)
	// Nearest returns documents ordered by similarity to query, up to limit,
	// using the database's vector index when it has one.
	Nearest(ctx context.Context, query search.Vector, limit int, options ...repository.Option) ([]Document, error)
}

// CorrespondenceStore persists correspondence records.
type CorrespondenceStore interface {
	Create(ctx context.Context, c Correspondence) (Correspondence, error)
	Get(ctx context.Context, id int64) (Correspondence, error)
	// FindWithDocuments returns correspondence with attachments loaded.
	FindWithDocuments(ctx context.Context, options ...repository.Option) ([]Correspondence, error)
}

// DraftStore persists drafts.
type DraftStore interface {
	EmbeddingWriter
	Create(ctx context.Context, d Draft) (Draft, error)
	Get(ctx context.Context, id int64) (Draft, error)
	Save(ctx context.Context, d Draft) (Draft, error)
	Find(ctx context.Context, options ...repository.Option) ([]Draft, error)
}
