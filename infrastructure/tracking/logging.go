// Package tracking reports document pipeline job transitions.
package tracking

import (
	"context"
	"log/slog"

	"github.com/aleysapc/docsearch/domain/task"
)

// LoggingReporter logs every job state change.
type LoggingReporter struct {
	logger *slog.Logger
}

// NewLoggingReporter creates a new LoggingReporter.
func NewLoggingReporter(logger *slog.Logger) *LoggingReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingReporter{
		logger: logger,
	}
}

// OnChange logs the job status change.
func (r *LoggingReporter) OnChange(ctx context.Context, job task.Job) error {
	attrs := []any{
		slog.String("job_id", job.ID()),
		slog.Int64("document_id", job.DocumentID()),
		slog.String("status", string(job.Status())),
		slog.Duration("elapsed", job.UpdatedAt().Sub(job.CreatedAt())),
	}

	if job.Status() == task.JobFailure {
		r.logger.ErrorContext(ctx, "indexing job failed", append(attrs, slog.String("error", job.Error()))...)
		return nil
	}

	r.logger.InfoContext(ctx, "indexing job "+string(job.Status()), attrs...)
	return nil
}
