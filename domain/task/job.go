package task

import (
	"encoding/json"
	"time"
)

// JobStatus is the externally visible state of an indexing job.
type JobStatus string

// JobStatus values.
const (
	JobPending JobStatus = "pending"
	JobSuccess JobStatus = "success"
	JobFailure JobStatus = "failure"
)

// IsTerminal reports whether the job has finished.
func (s JobStatus) IsTerminal() bool {
	return s == JobSuccess || s == JobFailure
}

// Job tracks one run of the document pipeline.
type Job struct {
	id         string
	documentID int64
	filePath   string
	status     JobStatus
	result     map[string]any
	errMessage string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewJob creates a pending job.
func NewJob(id string, documentID int64, filePath string) Job {
	now := time.Now().UTC()
	return Job{
		id:         id,
		documentID: documentID,
		filePath:   filePath,
		status:     JobPending,
		createdAt:  now,
		updatedAt:  now,
	}
}

// NewJobWithFields reconstructs a Job from storage.
func NewJobWithFields(
	id string,
	documentID int64,
	filePath string,
	status JobStatus,
	result map[string]any,
	errMessage string,
	createdAt, updatedAt time.Time,
) Job {
	return Job{
		id:         id,
		documentID: documentID,
		filePath:   filePath,
		status:     status,
		result:     copyResult(result),
		errMessage: errMessage,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// UnknownJob is reported for ids that have no record yet: a submission whose
// transaction has not committed looks the same as one that never existed.
func UnknownJob(id string) Job {
	return Job{id: id, status: JobPending}
}

// ID returns the job id (task_id on the wire).
func (j Job) ID() string { return j.id }

// DocumentID returns the target document.
func (j Job) DocumentID() int64 { return j.documentID }

// FilePath returns the file being processed.
func (j Job) FilePath() string { return j.filePath }

// Status returns the job state.
func (j Job) Status() JobStatus { return j.status }

// Result returns a copy of the result payload, nil unless successful.
func (j Job) Result() map[string]any {
	return copyResult(j.result)
}

// Error returns the failure message.
func (j Job) Error() string { return j.errMessage }

// CreatedAt returns when the job was submitted.
func (j Job) CreatedAt() time.Time { return j.createdAt }

// UpdatedAt returns when the job last changed.
func (j Job) UpdatedAt() time.Time { return j.updatedAt }

// Succeed returns a copy marked successful with result.
func (j Job) Succeed(result map[string]any) Job {
	j.status = JobSuccess
	j.result = copyResult(result)
	j.errMessage = ""
	j.updatedAt = time.Now().UTC()
	return j
}

// Fail returns a copy marked failed with the error message.
func (j Job) Fail(err error) Job {
	j.status = JobFailure
	j.result = nil
	if err != nil {
		j.errMessage = err.Error()
	}
	j.updatedAt = time.Now().UTC()
	return j
}

// jobView is the polling contract {task_id, status, result?, error?}.
type jobView struct {
	TaskID string         `json:"task_id"`
	Status JobStatus      `json:"status"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// MarshalJSON renders the polling contract.
func (j Job) MarshalJSON() ([]byte, error) {
	return json.Marshal(jobView{
		TaskID: j.id,
		Status: j.status,
		Result: j.Result(),
		Error:  j.errMessage,
	})
}

func copyResult(result map[string]any) map[string]any {
	if result == nil {
		return nil
	}
	return clonePayload(result)
}
