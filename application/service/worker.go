package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/internal/database"
	"github.com/aleysapc/docsearch/internal/retry"
)

// JobFailer records the failure of the job a task belongs to.
type JobFailer interface {
	Fail(ctx context.Context, id string, cause error) error
}

// Handler executes a specific task operation.
type Handler interface {
	Execute(ctx context.Context, payload map[string]any) error
}

// Registry manages task handlers for different operations.
type Registry struct {
	handlers map[task.Operation]Handler
	mu       sync.RWMutex
}

// NewRegistry creates a new handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[task.Operation]Handler),
	}
}

// Register registers a handler for an operation.
func (r *Registry) Register(operation task.Operation, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[operation] = handler
}

// Handler returns the handler for an operation.
func (r *Registry) Handler(operation task.Operation) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[operation]
	return handler, ok
}

// Operations returns all registered operations.
func (r *Registry) Operations() []task.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]task.Operation, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	return ops
}

// Retryable reports whether a stage failure should be attempted again.
// Missing records never come back; everything else is retried unless the
// handler marked it permanent.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, document.ErrEntityNotFound), errors.Is(err, database.ErrNotFound):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithPollPeriod sets how often the queue is polled when idle.
func WithPollPeriod(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.pollPeriod = d
		}
	}
}

// WithConcurrency sets the size of the goroutine pool.
func WithConcurrency(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithLease sets how long a claimed task is held before another worker may
// take it over.
func WithLease(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.lease = d
		}
	}
}

// WithRetryPolicy replaces the per-task retry policy.
func WithRetryPolicy(p retry.Policy) WorkerOption {
	return func(w *Worker) { w.policy = p }
}

// DefaultLease covers a slow stage with all its retries. A task still
// claimed after that is assumed lost and handed out again.
const DefaultLease = 15 * time.Minute

// Worker processes tasks from the queue on a bounded goroutine pool.
type Worker struct {
	store       task.TaskStore
	registry    *Registry
	jobs        JobFailer
	logger      *slog.Logger
	pollPeriod  time.Duration
	concurrency int
	lease       time.Duration
	policy      retry.Policy

	pool   *ants.Pool
	cancel context.CancelFunc
	loop   sync.WaitGroup
	tasks  sync.WaitGroup
	mu     sync.Mutex
}

// NewWorker creates a new queue worker.
func NewWorker(store task.TaskStore, registry *Registry, jobs JobFailer, logger *slog.Logger, opts ...WorkerOption) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	policy := retry.DefaultPolicy()
	policy.Retryable = Retryable

	w := &Worker{
		store:       store,
		registry:    registry,
		jobs:        jobs,
		logger:      logger,
		pollPeriod:  time.Second,
		concurrency: 1,
		lease:       DefaultLease,
		policy:      policy,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins processing tasks from the queue.
// The worker runs in a goroutine and can be stopped with Stop().
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return nil
	}

	pool, err := ants.NewPool(w.concurrency, ants.WithPanicHandler(func(p any) {
		w.logger.Error("worker goroutine panicked", slog.Any("panic", p))
	}))
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	w.pool = pool

	ctx, w.cancel = context.WithCancel(ctx)
	w.loop.Add(1)

	go func() {
		defer w.loop.Done()
		w.run(ctx, pool)
	}()

	w.logger.Info("queue worker started", slog.Int("concurrency", w.concurrency))
	return nil
}

// Stop gracefully shuts down the worker.
// It waits for running tasks to complete before returning.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	pool := w.pool
	w.cancel = nil
	w.pool = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	w.loop.Wait()
	w.tasks.Wait()
	pool.Release()
	w.logger.Info("queue worker stopped")
}

// run polls until ctx ends. It only touches the pool it was started with,
// which Stop releases after the loop has returned.
func (w *Worker) run(ctx context.Context, pool *ants.Pool) {
	w.logger.Debug("worker loop started")

	ticker := time.NewTicker(w.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker loop stopping")
			return
		case <-ticker.C:
			if err := w.fill(ctx, pool); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Error("error processing task",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// fill claims tasks while the pool has idle workers.
func (w *Worker) fill(ctx context.Context, pool *ants.Pool) error {
	for pool.Free() > 0 {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t, found, err := w.store.Claim(ctx, w.lease)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}

		w.tasks.Add(1)
		if err := pool.Submit(func() {
			defer w.tasks.Done()
			w.processTask(ctx, t)
		}); err != nil {
			w.tasks.Done()
			w.processTask(ctx, t)
		}
	}
	return nil
}

func (w *Worker) processTask(ctx context.Context, t task.Task) {
	start := time.Now()
	log := w.logger.With(
		slog.Int64("task_id", t.ID()),
		slog.String("operation", t.Operation().String()),
		slog.String("job_id", t.JobID()),
	)
	if t.Claims() > 1 {
		log.Warn("redelivering task", slog.Int("claims", t.Claims()))
	} else {
		log.Info("processing task")
	}

	h, ok := w.registry.Handler(t.Operation())
	if !ok {
		log.Error("no handler for operation")
		w.fail(ctx, t, fmt.Errorf("no handler registered for %s", t.Operation()))
		w.complete(ctx, t)
		return
	}

	attempt := 0
	err := retry.Do(ctx, w.policy, func(ctx context.Context) error {
		attempt++
		err := w.executeWithRecovery(ctx, h, t)
		if err != nil && attempt < w.policy.MaxAttempts {
			log.Warn("task attempt failed", slog.Int("attempt", attempt), slog.Any("error", err))
		}
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down: release the claim so the next run picks it up
			// without waiting for the lease.
			release := task.NewTask(t.Operation(), t.Priority(), t.Payload())
			if _, saveErr := w.store.Save(context.WithoutCancel(ctx), release); saveErr != nil {
				log.Error("failed to requeue task", slog.Any("error", saveErr))
			}
			return
		}
		log.Error("task execution failed", slog.String("error", err.Error()))
		w.fail(ctx, t, err)
		w.complete(ctx, t)
		return
	}

	w.complete(ctx, t)
	log.Info("task completed", slog.Duration("duration", time.Since(start)))
}

// complete drops the finished task from the queue. A failure here only
// means the task runs again after its lease.
func (w *Worker) complete(ctx context.Context, t task.Task) {
	if err := w.store.Complete(context.WithoutCancel(ctx), t); err != nil {
		w.logger.Error("failed to complete task",
			slog.Int64("task_id", t.ID()),
			slog.Any("error", err),
		)
	}
}

func (w *Worker) fail(ctx context.Context, t task.Task, err error) {
	if w.jobs == nil || t.JobID() == "" {
		return
	}
	if ferr := w.jobs.Fail(ctx, t.JobID(), unwrapRetry(err)); ferr != nil {
		w.logger.Error("failed to record job failure",
			slog.String("job_id", t.JobID()),
			slog.Any("error", ferr),
		)
	}
}

func (w *Worker) executeWithRecovery(ctx context.Context, h Handler, t task.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = retry.Permanent(fmt.Errorf("handler panicked: %v", r))
		}
	}()
	return h.Execute(ctx, t.Payload())
}

// unwrapRetry strips the retry envelope so the job records the stage error.
func unwrapRetry(err error) error {
	var perm *retry.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	return err
}

// ProcessOne processes a single task synchronously.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	t, found, err := w.store.Claim(ctx, w.lease)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	w.processTask(ctx, t)
	return true, nil
}

// Drain processes queued tasks synchronously until the queue is empty.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		ok, err := w.ProcessOne(ctx)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}
