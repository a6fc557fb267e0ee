package service

import (
	"context"
	"log/slog"

	"github.com/aleysapc/docsearch/domain/repository"
	"github.com/aleysapc/docsearch/domain/task"
)

// TaskListParams configures task listing.
type TaskListParams struct {
	Operation *task.Operation
	Limit     int
	Offset    int
}

// Queue provides the main interface for enqueuing and inspecting tasks.
type Queue struct {
	store  task.TaskStore
	logger *slog.Logger
}

// NewQueue creates a new queue service.
func NewQueue(store task.TaskStore, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		store:  store,
		logger: logger,
	}
}

// Enqueue adds a task to the queue.
// If a task with the same dedup_key exists, it updates the priority instead.
func (s *Queue) Enqueue(ctx context.Context, t task.Task) error {
	if _, err := s.store.Save(ctx, t); err != nil {
		return err
	}

	s.logger.Debug("task enqueued",
		slog.String("dedup_key", t.DedupKey()),
		slog.String("operation", t.Operation().String()),
	)
	return nil
}

// EnqueueStage queues one pipeline stage. Later stages get a higher
// priority than earlier ones at the same base, so started jobs finish first.
func (s *Queue) EnqueueStage(ctx context.Context, op task.Operation, base task.Priority, payload map[string]any) error {
	return s.Enqueue(ctx, task.NewTask(op, task.StagePriority(base, op), payload))
}

// List returns queued tasks in dequeue order.
func (s *Queue) List(ctx context.Context, params *TaskListParams) ([]task.Task, error) {
	var options []repository.Option
	if params != nil {
		if params.Operation != nil {
			options = append(options, task.WithOperation(*params.Operation))
		}
		if params.Limit > 0 {
			options = append(options, repository.WithPagination(params.Limit, params.Offset)...)
		}
	}
	return s.store.Find(ctx, options...)
}

// Count returns the number of queued tasks.
func (s *Queue) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}
