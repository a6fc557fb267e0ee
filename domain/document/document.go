// Package document holds the searchable records: uploaded documents, the
// correspondence they belong to and drafted correspondence.
package document

import (
	"errors"
	"time"

	"github.com/aleysapc/docsearch/domain/search"
)

// ErrEntityNotFound indicates the record targeted by an update does not
// exist. The pipeline treats it as fatal.
var ErrEntityNotFound = errors.New("entity not found")

// EmbeddableText is implemented by records that produce text to embed.
type EmbeddableText interface {
	// SourceText concatenates the record's text fields in their documented
	// order, falling back to raw HTML when every field is empty.
	SourceText() string
}

// EmbeddingSlot is implemented by records that store an embedding.
type EmbeddingSlot interface {
	ExtractedText() string
	Embedding() (search.Vector, bool)
	Embedded() Embedded
}

// Embeddable combines both capabilities.
type Embeddable interface {
	EmbeddableText
	EmbeddingSlot
}

// Embedded is the extracted text and embedding pair every searchable record
// carries. The two are always written together.
type Embedded struct {
	extractedText string
	embedding     search.Vector
}

// NewEmbedded creates the pair. A nil vector means "not embedded".
func NewEmbedded(extractedText string, embedding search.Vector) Embedded {
	return Embedded{extractedText: extractedText, embedding: embedding.Clone()}
}

// ExtractedText returns the normalized text the embedding was computed from.
func (e Embedded) ExtractedText() string { return e.extractedText }

// Embedding returns the stored vector; ok is false when none is stored.
func (e Embedded) Embedding() (search.Vector, bool) {
	if len(e.embedding) == 0 {
		return nil, false
	}
	return e.embedding.Clone(), true
}

// Stale reports whether an embedding for extracted must be (re)computed.
func (e Embedded) Stale(extracted string) bool {
	_, ok := e.Embedding()
	return !ok || e.extractedText != extracted
}

// Document is an uploaded file. Its text comes from the extraction pipeline
// or is supplied by the caller.
type Document struct {
	id               int64
	name             string
	filePath         string
	correspondenceID int64
	content          string
	embedded         Embedded
	createdAt        time.Time
	updatedAt        time.Time
}

// NewDocument creates an unsaved document.
func NewDocument(name, filePath string) Document {
	now := time.Now().UTC()
	return Document{name: name, filePath: filePath, createdAt: now, updatedAt: now}
}

// NewDocumentWithFields reconstructs a document from storage.
func NewDocumentWithFields(
	id int64,
	name, filePath string,
	correspondenceID int64,
	content string,
	embedded Embedded,
	createdAt, updatedAt time.Time,
) Document {
	return Document{
		id:               id,
		name:             name,
		filePath:         filePath,
		correspondenceID: correspondenceID,
		content:          content,
		embedded:         embedded,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// ID returns the document id.
func (d Document) ID() int64 { return d.id }

// Name returns the unique document name.
func (d Document) Name() string { return d.name }

// FilePath returns where the uploaded file is stored.
func (d Document) FilePath() string { return d.filePath }

// CorrespondenceID returns the parent correspondence, zero when unattached.
func (d Document) CorrespondenceID() int64 { return d.correspondenceID }

// Content returns caller-supplied text, empty for extracted files.
func (d Document) Content() string { return d.content }

// CreatedAt returns the creation time.
func (d Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns the last modification time.
func (d Document) UpdatedAt() time.Time { return d.updatedAt }

// SourceText returns the supplied content. Documents whose text came from
// the extraction pipeline have no content; their extracted text is returned
// so re-indexing leaves the pipeline's embedding in place.
func (d Document) SourceText() string {
	if d.content == "" {
		return d.embedded.ExtractedText()
	}
	return d.content
}

// ExtractedText returns the normalized text.
func (d Document) ExtractedText() string { return d.embedded.ExtractedText() }

// Embedding returns the stored vector.
func (d Document) Embedding() (search.Vector, bool) { return d.embedded.Embedding() }

// Embedded returns the text and embedding pair.
func (d Document) Embedded() Embedded { return d.embedded }

// Preview returns the first n runes of the extracted text.
func (d Document) Preview(n int) string { return Preview(d.ExtractedText(), n) }

// WithID returns a copy with the given id.
func (d Document) WithID(id int64) Document {
	d.id = id
	return d
}

// WithCorrespondence returns a copy attached to the given correspondence.
func (d Document) WithCorrespondence(id int64) Document {
	d.correspondenceID = id
	return d
}

// WithContent returns a copy carrying caller-supplied text.
func (d Document) WithContent(content string) Document {
	d.content = content
	d.updatedAt = time.Now().UTC()
	return d
}

// WithEmbedded returns a copy with the given text and embedding pair.
func (d Document) WithEmbedded(e Embedded) Document {
	d.embedded = e
	return d
}

// Preview truncates s to at most n runes.
func Preview(s string, n int) string {
	r := []rune(s)
	if n < 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

var _ Embeddable = Document{}
