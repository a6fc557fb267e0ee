package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aleysapc/docsearch/domain/repository"
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskStore implements task.TaskStore using GORM.
type TaskStore struct {
	db     database.Database
	mapper TaskMapper
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db database.Database) TaskStore {
	return TaskStore{
		db:     db,
		mapper: TaskMapper{},
	}
}

// Save creates a new task, or refreshes the queued task with the same dedup
// key. The refresh clears any claim so the task runs again with the new
// payload.
func (s TaskStore) Save(ctx context.Context, t task.Task) (task.Task, error) {
	model, err := s.mapper.ToModel(t)
	if err != nil {
		return task.Task{}, err
	}

	result := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"priority", "payload", "claimed_until", "updated_at"}),
	}).Create(&model)
	if result.Error != nil {
		return task.Task{}, fmt.Errorf("save task: %w", result.Error)
	}

	return s.mapper.ToDomain(model)
}

// Find retrieves queued tasks in dequeue order.
func (s TaskStore) Find(ctx context.Context, options ...repository.Option) ([]task.Task, error) {
	var models []TaskModel
	db := database.ApplyOptions(s.db.Session(ctx).Order("priority DESC, created_at ASC, id ASC"), options...)
	if err := db.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}

	tasks := make([]task.Task, len(models))
	for i, model := range models {
		t, err := s.mapper.ToDomain(model)
		if err != nil {
			return nil, err
		}
		tasks[i] = t
	}
	return tasks, nil
}

// Count returns the number of queued tasks.
func (s TaskStore) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	var count int64
	db := database.ApplyConditions(s.db.Session(ctx).Model(&TaskModel{}), options...)
	if err := db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

// claimAttempts bounds how often Claim retries after losing a row to a
// concurrent claimer.
const claimAttempts = 3

// Claim leases the highest priority task whose claim is absent or expired.
func (s TaskStore) Claim(ctx context.Context, lease time.Duration) (task.Task, bool, error) {
	for range claimAttempts {
		model, ok, err := s.claimOnce(ctx, lease)
		if err != nil {
			return task.Task{}, false, fmt.Errorf("claim task: %w", err)
		}
		if !ok {
			continue
		}
		if model.ID == 0 {
			return task.Task{}, false, nil
		}
		t, err := s.mapper.ToDomain(model)
		if err != nil {
			return task.Task{}, false, err
		}
		return t, true, nil
	}
	return task.Task{}, false, nil
}

// claimOnce returns ok=false when another claimer updated the row between
// the read and the update. A zero model with ok=true means the queue has
// nothing claimable.
func (s TaskStore) claimOnce(ctx context.Context, lease time.Duration) (TaskModel, bool, error) {
	var model TaskModel
	now := time.Now().UTC()
	claimed := true

	err := s.db.Session(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("claimed_until IS NULL OR claimed_until < ?", now).
			Order("priority DESC, created_at ASC, id ASC").
			First(&model)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				model = TaskModel{}
				return nil
			}
			return result.Error
		}

		until := now.Add(lease)
		result = tx.Model(&TaskModel{}).
			Where("id = ? AND claims = ?", model.ID, model.Claims).
			UpdateColumns(map[string]any{"claimed_until": until, "claims": model.Claims + 1})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			claimed = false
			return nil
		}
		model.ClaimedUntil = &until
		model.Claims++
		return nil
	})
	if err != nil {
		return TaskModel{}, false, err
	}
	return model, claimed, nil
}

// Complete deletes a task under the claim it was handed out with.
func (s TaskStore) Complete(ctx context.Context, t task.Task) error {
	result := s.db.Session(ctx).
		Where("id = ? AND claims = ? AND claimed_until IS NOT NULL", t.ID(), t.Claims()).
		Delete(&TaskModel{})
	if result.Error != nil {
		return fmt.Errorf("complete task %d: %w", t.ID(), result.Error)
	}
	return nil
}

var _ task.TaskStore = TaskStore{}
