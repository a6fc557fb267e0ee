package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/aleysapc/docsearch/domain/document"
	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/internal/database"
)

func toEmbedded(extracted string, v database.PgVector) document.Embedded {
	return document.NewEmbedded(extracted, search.Vector(v.Floats()))
}

func fromEmbedding(e document.Embedded) database.PgVector {
	v, ok := e.Embedding()
	if !ok {
		return database.NewPgVector(nil)
	}
	return database.NewPgVector(v)
}

// embeddingColumns is the partial update written by UpdateEmbedding.
func embeddingColumns(e document.Embedded) map[string]any {
	return map[string]any{
		"extracted_text": e.ExtractedText(),
		"embedding":      fromEmbedding(e),
	}
}

// DocumentMapper maps between document.Document and DocumentModel.
type DocumentMapper struct{}

// ToDomain converts a DocumentModel to a domain Document.
func (DocumentMapper) ToDomain(m DocumentModel) document.Document {
	var correspondenceID int64
	if m.CorrespondenceID != nil {
		correspondenceID = *m.CorrespondenceID
	}
	return document.NewDocumentWithFields(
		m.ID,
		m.Name,
		m.FilePath,
		correspondenceID,
		m.Content,
		toEmbedded(m.ExtractedText, m.Embedding),
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// ToModel converts a domain Document to a DocumentModel.
func (DocumentMapper) ToModel(d document.Document) DocumentModel {
	var correspondenceID *int64
	if id := d.CorrespondenceID(); id != 0 {
		correspondenceID = &id
	}
	return DocumentModel{
		ID:               d.ID(),
		Name:             d.Name(),
		FilePath:         d.FilePath(),
		CorrespondenceID: correspondenceID,
		Content:          d.Content(),
		ExtractedText:    d.ExtractedText(),
		Embedding:        fromEmbedding(d.Embedded()),
		CreatedAt:        d.CreatedAt(),
		UpdatedAt:        d.UpdatedAt(),
	}
}

// CorrespondenceMapper maps between document.Correspondence and CorrespondenceModel.
type CorrespondenceMapper struct{}

// ToDomain converts a CorrespondenceModel, including any preloaded documents.
func (CorrespondenceMapper) ToDomain(m CorrespondenceModel) document.Correspondence {
	docs := make([]document.Document, len(m.Documents))
	for i, d := range m.Documents {
		docs[i] = DocumentMapper{}.ToDomain(d)
	}
	return document.NewCorrespondenceWithFields(m.ID, m.Reference, m.Subject, m.Description, docs, m.CreatedAt)
}

// ToModel converts a domain Correspondence. Attachments are saved separately.
func (CorrespondenceMapper) ToModel(c document.Correspondence) CorrespondenceModel {
	return CorrespondenceModel{
		ID:          c.ID(),
		Reference:   c.Reference(),
		Subject:     c.Subject(),
		Description: c.Description(),
		CreatedAt:   c.CreatedAt(),
	}
}

// DraftMapper maps between document.Draft and DraftModel.
type DraftMapper struct{}

// ToDomain converts a DraftModel to a domain Draft.
func (DraftMapper) ToDomain(m DraftModel) document.Draft {
	return document.NewDraftWithFields(
		m.ID,
		document.DraftFields{
			Reference:   m.Reference,
			Intro:       m.Intro,
			Body:        m.Body,
			Conclusion:  m.Conclusion,
			HTMLContent: m.HTMLContent,
		},
		toEmbedded(m.ExtractedText, m.Embedding),
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// ToModel converts a domain Draft to a DraftModel.
func (DraftMapper) ToModel(d document.Draft) DraftModel {
	return DraftModel{
		ID:            d.ID(),
		Reference:     d.Reference(),
		Intro:         d.Intro(),
		Body:          d.Body(),
		Conclusion:    d.Conclusion(),
		HTMLContent:   d.HTMLContent(),
		ExtractedText: d.ExtractedText(),
		Embedding:     fromEmbedding(d.Embedded()),
		CreatedAt:     d.CreatedAt(),
		UpdatedAt:     d.UpdatedAt(),
	}
}

// TaskMapper maps between task.Task and TaskModel.
type TaskMapper struct{}

// ToDomain converts a TaskModel to a domain Task.
func (TaskMapper) ToDomain(m TaskModel) (task.Task, error) {
	var payload map[string]any
	if len(m.Payload) > 0 {
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			return task.Task{}, fmt.Errorf("unmarshal task %d payload: %w", m.ID, err)
		}
	}
	return task.NewTaskWithFields(
		m.ID,
		m.DedupKey,
		task.Operation(m.Type),
		m.Priority,
		payload,
		m.CreatedAt,
		m.UpdatedAt,
	).WithClaims(m.Claims), nil
}

// ToModel converts a domain Task to a TaskModel.
func (TaskMapper) ToModel(t task.Task) (TaskModel, error) {
	payload, err := t.PayloadJSON()
	if err != nil {
		return TaskModel{}, fmt.Errorf("marshal task payload: %w", err)
	}
	return TaskModel{
		ID:        t.ID(),
		DedupKey:  t.DedupKey(),
		Type:      t.Operation().String(),
		Payload:   payload,
		Priority:  t.Priority(),
		Claims:    t.Claims(),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}, nil
}

// JobMapper maps between task.Job and JobModel.
type JobMapper struct{}

// ToDomain converts a JobModel to a domain Job.
func (JobMapper) ToDomain(m JobModel) (task.Job, error) {
	var result map[string]any
	if len(m.Result) > 0 && string(m.Result) != "null" {
		if err := json.Unmarshal(m.Result, &result); err != nil {
			return task.Job{}, fmt.Errorf("unmarshal job %s result: %w", m.ID, err)
		}
	}
	return task.NewJobWithFields(
		m.ID,
		m.DocumentID,
		m.FilePath,
		task.JobStatus(m.Status),
		result,
		m.Error,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

// ToModel converts a domain Job to a JobModel.
func (JobMapper) ToModel(j task.Job) (JobModel, error) {
	var result json.RawMessage
	if r := j.Result(); r != nil {
		raw, err := json.Marshal(r)
		if err != nil {
			return JobModel{}, fmt.Errorf("marshal job result: %w", err)
		}
		result = raw
	}
	return JobModel{
		ID:         j.ID(),
		DocumentID: j.DocumentID(),
		FilePath:   j.FilePath(),
		Status:     string(j.Status()),
		Result:     result,
		Error:      j.Error(),
		CreatedAt:  j.CreatedAt(),
		UpdatedAt:  j.UpdatedAt(),
	}, nil
}
