package task

import (
	"context"
	"time"

	"github.com/aleysapc/docsearch/domain/repository"
)

// TaskStore persists queued tasks.
type TaskStore interface {
	// Save inserts the task, or refreshes priority, payload and timestamp
	// when a task with the same dedup key is already queued. Saving releases
	// any claim on it.
	Save(ctx context.Context, t Task) (Task, error)

	// Claim leases the highest priority, oldest task that is not already
	// claimed. The task stays stored; a lease that expires before Complete
	// makes it claimable again. ok is false when nothing is available.
	Claim(ctx context.Context, lease time.Duration) (t Task, ok bool, err error)

	// Complete removes a claimed task. It is a no-op when the task was saved
	// again or claimed by someone else since.
	Complete(ctx context.Context, t Task) error

	// Find returns queued tasks matching options.
	Find(ctx context.Context, options ...repository.Option) ([]Task, error)

	// Count returns the number of queued tasks matching options.
	Count(ctx context.Context, options ...repository.Option) (int64, error)
}

// JobStore persists job status records.
type JobStore interface {
	Create(ctx context.Context, j Job) (Job, error)
	Get(ctx context.Context, id string) (Job, error)
	Update(ctx context.Context, j Job) (Job, error)
	Find(ctx context.Context, options ...repository.Option) ([]Job, error)
}

// WithOperation filters tasks by operation.
func WithOperation(op Operation) repository.Option {
	return repository.WithCondition("type", string(op))
}

// WithDedupKey filters tasks by dedup key.
func WithDedupKey(key string) repository.Option {
	return repository.WithCondition("dedup_key", key)
}

// WithJobID filters jobs by id.
func WithJobID(id string) repository.Option {
	return repository.WithCondition("id", id)
}

// WithDocumentID filters jobs by target document.
func WithDocumentID(id int64) repository.Option {
	return repository.WithCondition("document_id", id)
}
