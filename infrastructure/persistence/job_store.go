package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/aleysapc/docsearch/domain/repository"
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/internal/database"
	"gorm.io/gorm"
)

// JobStore implements task.JobStore using GORM.
type JobStore struct {
	db     database.Database
	mapper JobMapper
}

// NewJobStore creates a new JobStore.
func NewJobStore(db database.Database) JobStore {
	return JobStore{db: db, mapper: JobMapper{}}
}

// Create inserts a new job record.
func (s JobStore) Create(ctx context.Context, j task.Job) (task.Job, error) {
	model, err := s.mapper.ToModel(j)
	if err != nil {
		return task.Job{}, err
	}
	if err := s.db.Session(ctx).Create(&model).Error; err != nil {
		return task.Job{}, fmt.Errorf("create job: %w", err)
	}
	return s.mapper.ToDomain(model)
}

// Get retrieves a job by id.
func (s JobStore) Get(ctx context.Context, id string) (task.Job, error) {
	var model JobModel
	if err := s.db.Session(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return task.Job{}, fmt.Errorf("%w: job %s", database.ErrNotFound, id)
		}
		return task.Job{}, fmt.Errorf("get job: %w", err)
	}
	return s.mapper.ToDomain(model)
}

// Update overwrites the stored job.
func (s JobStore) Update(ctx context.Context, j task.Job) (task.Job, error) {
	model, err := s.mapper.ToModel(j)
	if err != nil {
		return task.Job{}, err
	}
	if err := s.db.Session(ctx).Save(&model).Error; err != nil {
		return task.Job{}, fmt.Errorf("update job: %w", err)
	}
	return s.mapper.ToDomain(model)
}

// Find retrieves jobs matching options, newest first.
func (s JobStore) Find(ctx context.Context, options ...repository.Option) ([]task.Job, error) {
	var models []JobModel
	db := database.ApplyOptions(s.db.Session(ctx).Order("created_at DESC"), options...)
	if err := db.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}
	jobs := make([]task.Job, len(models))
	for i, m := range models {
		j, err := s.mapper.ToDomain(m)
		if err != nil {
			return nil, err
		}
		jobs[i] = j
	}
	return jobs, nil
}

var _ task.JobStore = JobStore{}
