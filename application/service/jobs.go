package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/aleysapc/docsearch/domain/repository"
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/internal/database"
)

var (
	// ErrTransientProcessing marks a pipeline stage failure that may succeed
	// on another attempt.
	ErrTransientProcessing = errors.New("transient processing failure")

	// ErrInvalidJob indicates a submission without a document or file.
	ErrInvalidJob = errors.New("invalid indexing job")
)

// JobReporter is notified whenever a job changes state.
type JobReporter interface {
	OnChange(ctx context.Context, job task.Job) error
}

// JobHandle is returned to the submitter for polling.
type JobHandle struct {
	TaskID string         `json:"task_id"`
	Status task.JobStatus `json:"status"`
}

// Jobs submits document pipeline runs and records their outcome.
type Jobs struct {
	db        database.Database
	store     task.JobStore
	queue     *Queue
	priority  task.Priority
	reporters []JobReporter
	logger    *slog.Logger
}

// NewJobs creates a Jobs service.
func NewJobs(db database.Database, store task.JobStore, queue *Queue, logger *slog.Logger, reporters ...JobReporter) *Jobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Jobs{
		db:        db,
		store:     store,
		queue:     queue,
		priority:  task.PriorityUserInitiated,
		reporters: reporters,
		logger:    logger,
	}
}

// SubmitIndexingJob records a pending job and queues the extract stage once
// the surrounding transaction commits. Outside a transaction the job is
// queued immediately.
func (j *Jobs) SubmitIndexingJob(ctx context.Context, documentID int64, filePath string) (JobHandle, error) {
	if documentID <= 0 || strings.TrimSpace(filePath) == "" {
		return JobHandle{}, fmt.Errorf("%w: document %d, file %q", ErrInvalidJob, documentID, filePath)
	}

	job := task.NewJob(uuid.NewString(), documentID, filePath)
	payload := map[string]any{
		task.KeyJobID:      job.ID(),
		task.KeyDocumentID: documentID,
		task.KeyFilePath:   filePath,
	}

	err := database.WithTransaction(ctx, j.db, func(ctx context.Context) error {
		if _, err := j.store.Create(ctx, job); err != nil {
			return fmt.Errorf("create job: %w", err)
		}
		database.OnCommit(ctx, func(ctx context.Context) {
			if err := j.queue.EnqueueStage(ctx, task.OperationExtract, j.priority, payload); err != nil {
				j.logger.Error("failed to queue indexing job",
					slog.String("job_id", job.ID()),
					slog.Any("error", err),
				)
				_ = j.Fail(ctx, job.ID(), fmt.Errorf("queue job: %w", err))
			}
		})
		return nil
	})
	if err != nil {
		return JobHandle{}, err
	}

	j.logger.Info("indexing job submitted",
		slog.String("job_id", job.ID()),
		slog.Int64("document_id", documentID),
	)
	return JobHandle{TaskID: job.ID(), Status: job.Status()}, nil
}

// Status returns the job with the given id. Unknown ids are reported as
// pending.
func (j *Jobs) Status(ctx context.Context, id string) (task.Job, error) {
	job, err := j.store.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return task.UnknownJob(id), nil
	}
	if err != nil {
		return task.Job{}, err
	}
	return job, nil
}

// ForDocument returns the jobs run for a document, newest first.
func (j *Jobs) ForDocument(ctx context.Context, documentID int64) ([]task.Job, error) {
	return j.store.Find(ctx, task.WithDocumentID(documentID), repository.WithLimit(50))
}

// Succeed marks the job successful with result.
func (j *Jobs) Succeed(ctx context.Context, id string, result map[string]any) error {
	return j.transition(ctx, id, func(job task.Job) task.Job { return job.Succeed(result) })
}

// Fail marks the job failed with cause.
func (j *Jobs) Fail(ctx context.Context, id string, cause error) error {
	return j.transition(ctx, id, func(job task.Job) task.Job { return job.Fail(cause) })
}

func (j *Jobs) transition(ctx context.Context, id string, apply func(task.Job) task.Job) error {
	if id == "" {
		return nil
	}
	job, err := j.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get job %s: %w", id, err)
	}
	if job.Status().IsTerminal() {
		j.logger.Warn("job already finished", slog.String("job_id", id), slog.String("status", string(job.Status())))
		return nil
	}

	updated, err := j.store.Update(ctx, apply(job))
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	for _, r := range j.reporters {
		if err := r.OnChange(ctx, updated); err != nil {
			j.logger.Warn("job reporter failed", slog.String("job_id", id), slog.Any("error", err))
		}
	}
	return nil
}
