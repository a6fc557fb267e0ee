package document

import (
	"time"

	"github.com/aleysapc/docsearch/domain/search"
	"github.com/aleysapc/docsearch/domain/text"
)

// Draft is a correspondence being written. Its searchable text is the
// structured fields in order reference, intro, body, conclusion; when all of
// them are empty the raw HTML content is used instead.
type Draft struct {
	id          int64
	reference   string
	intro       string
	body        string
	conclusion  string
	htmlContent string
	embedded    Embedded
	createdAt   time.Time
	updatedAt   time.Time
}

// DraftFields are the editable parts of a draft.
type DraftFields struct {
	Reference   string
	Intro       string
	Body        string
	Conclusion  string
	HTMLContent string
}

// NewDraft creates an unsaved draft.
func NewDraft(f DraftFields) Draft {
	now := time.Now().UTC()
	return Draft{
		reference:   f.Reference,
		intro:       f.Intro,
		body:        f.Body,
		conclusion:  f.Conclusion,
		htmlContent: f.HTMLContent,
		createdAt:   now,
		updatedAt:   now,
	}
}

// NewDraftWithFields reconstructs a draft from storage.
func NewDraftWithFields(id int64, f DraftFields, embedded Embedded, createdAt, updatedAt time.Time) Draft {
	d := NewDraft(f)
	d.id = id
	d.embedded = embedded
	d.createdAt = createdAt
	d.updatedAt = updatedAt
	return d
}

func (d Draft) ID() int64 { return d.id }
func (d Draft) Reference() string { return d.reference }
func (d Draft) Intro() string { return d.intro }
func (d Draft) Body() string { return d.body }
func (d Draft) Conclusion() string { return d.conclusion }
func (d Draft) HTMLContent() string { return d.htmlContent }
func (d Draft) CreatedAt() time.Time { return d.createdAt }
func (d Draft) UpdatedAt() time.Time { return d.updatedAt }

// Fields returns the editable parts.
func (d Draft) Fields() DraftFields {
	return DraftFields{
		Reference:   d.reference,
		Intro:       d.intro,
		Body:        d.body,
		Conclusion:  d.conclusion,
		HTMLContent: d.htmlContent,
	}
}

// SourceText implements EmbeddableText.
func (d Draft) SourceText() string {
	if joined := text.Join(d.reference, d.intro, d.body, d.conclusion); joined != "" {
		return joined
	}
	return d.htmlContent
}

// ExtractedText returns the normalized text.
func (d Draft) ExtractedText() string { return d.embedded.ExtractedText() }

// Embedding returns the stored vector.
func (d Draft) Embedding() (search.Vector, bool) { return d.embedded.Embedding() }

// Embedded returns the text and embedding pair.
func (d Draft) Embedded() Embedded { return d.embedded }

// WithID returns a copy with the given id.
func (d Draft) WithID(id int64) Draft {
	d.id = id
	return d
}

// WithFields returns a copy with new editable parts. The stored embedding
// is kept; the indexer decides whether it is stale.
func (d Draft) WithFields(f DraftFields) Draft {
	d.reference = f.Reference
	d.intro = f.Intro
	d.body = f.Body
	d.conclusion = f.Conclusion
	d.htmlContent = f.HTMLContent
	d.updatedAt = time.Now().UTC()
	return d
}

// WithEmbedded returns a copy with the given text and embedding pair.
func (d Draft) WithEmbedded(e Embedded) Draft {
	d.embedded = e
	return d
}

var _ Embeddable = Draft{}
