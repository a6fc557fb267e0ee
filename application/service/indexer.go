package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/domain/text"
	"github.com/aleysapc/docsearch/internal/database"
)

// ErrUnknownKind indicates an index request for a kind with no store.
var ErrUnknownKind = errors.New("unknown record kind")

// embeddableStore is the slice of a record store the indexer needs.
type embeddableStore[T document.Embeddable] interface {
	document.EmbeddingWriter
	Get(ctx context.Context, id int64) (T, error)
}

// Indexer keeps a record's extracted_text and embedding in step with its
// text fields. It runs synchronously in the caller's goroutine.
type Indexer struct {
	db             database.Database
	embedder       search.Embedder
	documents      document.DocumentStore
	drafts         document.DraftStore
	correspondence document.CorrespondenceStore
	logger         *slog.Logger
}

// NewIndexer creates an Indexer.
func NewIndexer(
	db database.Database,
	embedder search.Embedder,
	documents document.DocumentStore,
	drafts document.DraftStore,
	correspondence document.CorrespondenceStore,
	logger *slog.Logger,
) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		db:             db,
		embedder:       embedder,
		documents:      documents,
		drafts:         drafts,
		correspondence: correspondence,
		logger:         logger,
	}
}

// Index refreshes the embedding of the referenced record. Correspondence
// has no embedding of its own; indexing it indexes its documents.
//
// Embedding backend failures are logged and swallowed so the caller's write
// is never blocked: the stored embedding is left as it was.
func (ix *Indexer) Index(ctx context.Context, ref document.Ref) error {
	switch ref.Kind {
	case document.KindDocument:
		return indexRecord[document.Document](ctx, ix, ref, ix.documents)
	case document.KindDraft:
		return indexRecord[document.Draft](ctx, ix, ref, ix.drafts)
	case document.KindCorrespondence:
		c, err := ix.correspondence.Get(ctx, ref.ID)
		if err != nil {
			return fmt.Errorf("get correspondence %d: %w", ref.ID, err)
		}
		for _, d := range c.Documents() {
			if err := ix.Index(ctx, document.Ref{Kind: document.KindDocument, ID: d.ID()}); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, ref.Kind)
	}
}

func indexRecord[T document.Embeddable](ctx context.Context, ix *Indexer, ref document.Ref, store embeddableStore[T]) error {
	record, err := store.Get(ctx, ref.ID)
	if err != nil {
		return fmt.Errorf("get %s %d: %w", ref.Kind, ref.ID, err)
	}

	extracted := text.Normalize(record.SourceText())
	stored := record.Embedded()

	var next document.Embedded
	switch {
	case extracted == "":
		if _, embedded := stored.Embedding(); !embedded && stored.ExtractedText() == "" {
			return nil
		}
		next = document.NewEmbedded("", nil)
	case !stored.Stale(extracted):
		ix.logger.Debug("embedding up to date", slog.String("kind", string(ref.Kind)), slog.Int64("id", ref.ID))
		return nil
	default:
		vector, err := ix.embedder.Encode(ctx, extracted)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			ix.logger.Warn("embedding skipped",
				slog.String("kind", string(ref.Kind)),
				slog.Int64("id", ref.ID),
				slog.Any("error", err),
			)
			return nil
		}
		next = document.NewEmbedded(extracted, vector)
	}

	return database.WithTransaction(ctx, ix.db, func(ctx context.Context) error {
		current, err := store.Get(ctx, ref.ID)
		if err != nil {
			return fmt.Errorf("reload %s %d: %w", ref.Kind, ref.ID, err)
		}
		if text.Normalize(current.SourceText()) != extracted {
			ix.logger.Info("embedding discarded, text changed while encoding",
				slog.String("kind", string(ref.Kind)),
				slog.Int64("id", ref.ID),
			)
			return nil
		}
		if err := store.UpdateEmbedding(ctx, ref.ID, next); err != nil {
			return fmt.Errorf("update %s %d embedding: %w", ref.Kind, ref.ID, err)
		}
		return nil
	})
}
