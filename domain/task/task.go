// Package task provides task queue and job domain types for the document
// processing pipeline.
package task

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Priority orders queued tasks; higher runs first.
type Priority int

// Base priorities. StagePriority adds a per-stage offset so a job that has
// started drains before new uploads are picked up.
const (
	PriorityBackground    Priority = 1000
	PriorityNormal        Priority = 2000
	PriorityUserInitiated Priority = 5000
)

// Task is one pipeline stage waiting in the queue. A claimed task stays
// stored until its handler finishes, so a crashed worker's task is delivered
// again once the claim lapses.
type Task struct {
	id        int64
	dedupKey  string
	operation Operation
	priority  int
	payload   map[string]any
	claims    int
	createdAt time.Time
	updatedAt time.Time
}

// NewTask builds an unsaved task. Its dedup key is "operation:job_id", so
// re-enqueueing a stage of the same job replaces the pending one.
func NewTask(operation Operation, priority int, payload map[string]any) Task {
	p := clonePayload(payload)
	return Task{
		dedupKey:  dedupKey(operation, p),
		operation: operation,
		priority:  priority,
		payload:   p,
	}
}

// NewTaskWithFields reconstructs a stored task.
func NewTaskWithFields(id int64, key string, operation Operation, priority int, payload map[string]any, createdAt, updatedAt time.Time) Task {
	return Task{
		id:        id,
		dedupKey:  key,
		operation: operation,
		priority:  priority,
		payload:   clonePayload(payload),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (t Task) ID() int64            { return t.id }
func (t Task) DedupKey() string     { return t.dedupKey }
func (t Task) Operation() Operation { return t.operation }
func (t Task) Priority() int        { return t.priority }
func (t Task) Claims() int          { return t.claims }
func (t Task) CreatedAt() time.Time { return t.createdAt }
func (t Task) UpdatedAt() time.Time { return t.updatedAt }

// WithClaims records how many times the task has been claimed. Stores use
// it to tell their own claim from a later one.
func (t Task) WithClaims(n int) Task {
	t.claims = n
	return t
}

// Payload returns a copy; handlers may mutate it freely.
func (t Task) Payload() map[string]any { return clonePayload(t.payload) }

// JobID is the indexing job the task advances, or "" for standalone tasks.
func (t Task) JobID() string {
	id, _ := t.payload[KeyJobID].(string)
	return id
}

// PayloadJSON encodes the payload for storage.
func (t Task) PayloadJSON() ([]byte, error) {
	return json.Marshal(t.payload)
}

func dedupKey(operation Operation, payload map[string]any) string {
	if id, ok := payload[KeyJobID].(string); ok && id != "" {
		return fmt.Sprintf("%s:%s", operation, id)
	}
	// Without a job id the whole payload identifies the task.
	raw, _ := json.Marshal(payload)
	return fmt.Sprintf("%s:%s", operation, raw)
}

func clonePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	maps.Copy(out, payload)
	return out
}
