package persistence

import (
	"encoding/json"
	"time"

	"github.com/aleysapc/docsearch/internal/database"
)

// DocumentModel represents an uploaded document in the database.
type DocumentModel struct {
	ID               int64             `gorm:"column:id;primaryKey;autoIncrement"`
	Name             string            `gorm:"column:name;type:varchar(255);uniqueIndex;not null"`
	FilePath         string            `gorm:"column:file_path;type:text;not null;default:''"`
	CorrespondenceID *int64            `gorm:"column:correspondence_id;index"`
	Content          string            `gorm:"column:content;type:text;not null;default:''"`
	ExtractedText    string            `gorm:"column:extracted_text;type:text;not null;default:''"`
	Embedding        database.PgVector `gorm:"column:embedding"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (DocumentModel) TableName() string {
	return "documents"
}

// CorrespondenceModel represents a correspondence record in the database.
type CorrespondenceModel struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Reference   string          `gorm:"column:reference;type:varchar(255);index;not null"`
	Subject     string          `gorm:"column:subject;type:text;not null;default:''"`
	Description string          `gorm:"column:description;type:text;not null;default:''"`
	Documents   []DocumentModel `gorm:"foreignKey:CorrespondenceID"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name.
func (CorrespondenceModel) TableName() string {
	return "correspondence"
}

// DraftModel represents a drafted correspondence in the database.
type DraftModel struct {
	ID            int64             `gorm:"column:id;primaryKey;autoIncrement"`
	Reference     string            `gorm:"column:reference;type:varchar(255);not null;default:''"`
	Intro         string            `gorm:"column:intro;type:text;not null;default:''"`
	Body          string            `gorm:"column:body;type:text;not null;default:''"`
	Conclusion    string            `gorm:"column:conclusion;type:text;not null;default:''"`
	HTMLContent   string            `gorm:"column:html_content;type:text;not null;default:''"`
	ExtractedText string            `gorm:"column:extracted_text;type:text;not null;default:''"`
	Embedding     database.PgVector `gorm:"column:embedding"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (DraftModel) TableName() string {
	return "drafts"
}

// TaskModel represents a queued pipeline task in the database.
type TaskModel struct {
	ID       int64           `gorm:"column:id;primaryKey;autoIncrement"`
	DedupKey string          `gorm:"column:dedup_key;type:varchar(255);uniqueIndex;not null"`
	Type     string          `gorm:"column:type;type:varchar(255);index;not null"`
	Payload  json.RawMessage `gorm:"column:payload;type:jsonb"`
	Priority int             `gorm:"column:priority;not null"`
	// ClaimedUntil is set while a worker holds the task.
	ClaimedUntil *time.Time `gorm:"column:claimed_until;index"`
	Claims       int        `gorm:"column:claims;not null;default:0"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (TaskModel) TableName() string {
	return "tasks"
}

// JobModel represents the status of one pipeline run.
type JobModel struct {
	ID         string          `gorm:"column:id;type:varchar(64);primaryKey"`
	DocumentID int64           `gorm:"column:document_id;index;not null"`
	FilePath   string          `gorm:"column:file_path;type:text;not null;default:''"`
	Status     string          `gorm:"column:status;type:varchar(32);index;not null"`
	Result     json.RawMessage `gorm:"column:result;type:jsonb"`
	Error      string          `gorm:"column:error;type:text;not null;default:''"`
	CreatedAt  time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;not null"`
}

// TableName returns the table name.
func (JobModel) TableName() string {
	return "jobs"
}
