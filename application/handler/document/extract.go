// Package document provides the task handlers of the document pipeline:
// extract, clean, embed and persist. Each stage queues the next one.
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
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/infrastructure/extraction"
	"github.com/aleysapc/docsearch/internal/database"
	"github.com/aleysapc/docsearch/internal/retry"
)

// Extractor turns a stored file into raw text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// DocumentReader loads the document a job indexes.
type DocumentReader interface {
	Get(ctx context.Context, id int64) (document.Document, error)
}

// Extract handles the extract stage.
type Extract struct {
	extractor Extractor
	documents DocumentReader
	queue     *service.Queue
	logger    *slog.Logger
}

// NewExtract creates a new Extract handler.
func NewExtract(extractor Extractor, documents DocumentReader, queue *service.Queue, logger *slog.Logger) *Extract {
	return &Extract{extractor: extractor, documents: documents, queue: queue, logger: orDefault(logger)}
}

// Execute queues the clean stage with the document's text: the text supplied
// with the upload when there is one, otherwise what the file yields.
func (h *Extract) Execute(ctx context.Context, payload map[string]any) error {
	path, err := handler.ExtractString(payload, task.KeyFilePath)
	if err != nil {
		return retry.Permanent(err)
	}

	supplied, err := h.suppliedText(ctx, payload)
	if err != nil {
		return err
	}
	if supplied != "" {
		h.logger.Debug("extract stage used supplied text", slog.String("file_path", path))
		return h.queue.EnqueueStage(ctx, task.OperationClean, priorityOf(payload), handler.Next(payload, task.KeyText, supplied))
	}

	raw, err := h.extractor.Extract(ctx, path)
	if err != nil {
		if extraction.Permanent(err) {
			return retry.Permanent(err)
		}
		return fmt.Errorf("%w: extract %s: %w", service.ErrTransientProcessing, path, err)
	}

	h.logger.Debug("extract stage done",
		slog.String("file_path", path),
		slog.Int("characters", utf8.RuneCountInString(raw)),
	)
	return h.queue.EnqueueStage(ctx, task.OperationClean, priorityOf(payload), handler.Next(payload, task.KeyText, raw))
}

// suppliedText returns the document's own content. A missing document is
// left for the persist stage to report.
func (h *Extract) suppliedText(ctx context.Context, payload map[string]any) (string, error) {
	if h.documents == nil {
		return "", nil
	}
	id, err := handler.ExtractInt64(payload, task.KeyDocumentID)
	if err != nil {
		return "", retry.Permanent(err)
	}
	d, err := h.documents.Get(ctx, id)
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, document.ErrEntityNotFound):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("%w: load document %d: %w", service.ErrTransientProcessing, id, err)
	}
	return d.Content(), nil
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// priorityOf keeps user-initiated jobs ahead of background reprocessing.
func priorityOf(payload map[string]any) task.Priority {
	if background, _ := payload[keyBackground].(bool); background {
		return task.PriorityBackground
	}
	return task.PriorityUserInitiated
}

const keyBackground = "background"
