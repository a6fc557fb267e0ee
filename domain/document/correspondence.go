package document

import "time"

// Correspondence is an official letter with attached documents. It is
// searched through its documents' embeddings.
type Correspondence struct {
	id          int64
	reference   string
	subject     string
	description string
	documents   []Document
	createdAt   time.Time
}

// NewCorrespondence creates an unsaved correspondence.
func NewCorrespondence(reference, subject, description string) Correspondence {
	return Correspondence{
		reference:   reference,
		subject:     subject,
		description: description,
		createdAt:   time.Now().UTC(),
	}
}

// NewCorrespondenceWithFields reconstructs a correspondence from storage.
func NewCorrespondenceWithFields(id int64, reference, subject, description string, documents []Document, createdAt time.Time) Correspondence {
	docs := make([]Document, len(documents))
	copy(docs, documents)
	return Correspondence{
		id:          id,
		reference:   reference,
		subject:     subject,
		description: description,
		documents:   docs,
		createdAt:   createdAt,
	}
}

func (c Correspondence) ID() int64 { return c.id }
func (c Correspondence) Reference() string { return c.reference }
func (c Correspondence) Subject() string { return c.subject }
func (c Correspondence) Description() string { return c.description }
func (c Correspondence) CreatedAt() time.Time { return c.createdAt }

// Documents returns the attached documents.
func (c Correspondence) Documents() []Document {
	docs := make([]Document, len(c.documents))
	copy(docs, c.documents)
	return docs
}

// WithID returns a copy with the given id.
func (c Correspondence) WithID(id int64) Correspondence {
	c.id = id
	return c
}

// WithDocuments returns a copy with the given attachments.
func (c Correspondence) WithDocuments(docs []Document) Correspondence {
	c.documents = make([]Document, len(docs))
	copy(c.documents, docs)
	return c
}
