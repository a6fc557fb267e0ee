package document

import (
	"context"
	"log/slog"

	"github.com/aleysapc/docsearch/application/handler"
	"github.com/aleysapc/docsearch/application/service"
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/domain/text"
	"github.com/aleysapc/docsearch/internal/retry"
)

// Clean handles the clean stage.
type Clean struct {
	queue  *service.Queue
	logger *slog.Logger
}

// NewClean creates a new Clean handler.
func NewClean(queue *service.Queue, logger *slog.Logger) *Clean {
	return &Clean{queue: queue, logger: orDefault(logger)}
}

// Execute normalizes the extracted text and queues the embed stage.
func (h *Clean) Execute(ctx context.Context, payload map[string]any) error {
	raw, err := handler.ExtractString(payload, task.KeyText)
	if err != nil {
		return retry.Permanent(err)
	}

	cleaned := text.Normalize(raw)
	if cleaned == "" {
		h.logger.Info("document has no usable text", slog.Any("job_id", payload[task.KeyJobID]))
	}
	return h.queue.EnqueueStage(ctx, task.OperationEmbed, priorityOf(payload), handler.Next(payload, task.KeyText, cleaned))
}
