package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/aleysapc/docsearch/application/handler"
	"github.com/aleysapc/docsearch/application/service"
	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/internal/database"
	"github.com/aleysapc/docsearch/internal/retry"
)

// Persist handles the last stage: it averages the chunk vectors and writes
// the document's extracted_text and embedding in a single update.
type Persist struct {
	db        database.Database
	documents document.DocumentStore
	jobs      handler.JobRecorder
	logger    *slog.Logger
}

// NewPersist creates a new Persist handler.
func NewPersist(db database.Database, documents document.DocumentStore, jobs handler.JobRecorder, logger *slog.Logger) *Persist {
	return &Persist{db: db, documents: documents, jobs: jobs, logger: orDefault(logger)}
}

// Execute writes the result and marks the job successful.
func (h *Persist) Execute(ctx context.Context, payload map[string]any) error {
	documentID, err := handler.ExtractInt64(payload, task.KeyDocumentID)
	if err != nil {
		return retry.Permanent(err)
	}
	cleaned, err := handler.ExtractString(payload, task.KeyText)
	if err != nil {
		return retry.Permanent(err)
	}
	vectors, err := handler.ExtractVectors(payload, task.KeyVectors)
	if err != nil {
		return retry.Permanent(err)
	}

	embedded := document.NewEmbedded("", nil)
	if cleaned != "" {
		mean, ok := search.Mean(vectors)
		if !ok {
			return retry.Permanent(fmt.Errorf("average %d chunk vectors: inconsistent dimensions", len(vectors)))
		}
		embedded = document.NewEmbedded(cleaned, mean)
	}

	err = database.WithTransaction(ctx, h.db, func(ctx context.Context) error {
		if _, err := h.documents.Get(ctx, documentID); err != nil {
			return err
		}
		return h.documents.UpdateEmbedding(ctx, documentID, embedded)
	})
	switch {
	case errors.Is(err, database.ErrNotFound):
		return retry.Permanent(fmt.Errorf("%w: document %d", document.ErrEntityNotFound, documentID))
	case err != nil:
		return fmt.Errorf("%w: persist document %d: %w", service.ErrTransientProcessing, documentID, err)
	}

	result := map[string]any{
		"document_id": documentID,
		"characters":  utf8.RuneCountInString(cleaned),
		"chunks":      len(vectors),
	}
	jobID, _ := payload[task.KeyJobID].(string)
	if err := h.jobs.Succeed(ctx, jobID, result); err != nil {
		h.logger.Error("failed to record job success", slog.String("job_id", jobID), slog.Any("error", err))
	}

	h.logger.Info("document indexed",
		slog.Int64("document_id", documentID),
		slog.String("job_id", jobID),
		slog.Int("chunks", len(vectors)),
	)
	return nil
}
