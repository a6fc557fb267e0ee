package jsonapi

import (
	"strconv"
	"unicode/utf8"

	"github.com/aleysapc/docsearch/domain/document"
)

// Resource types.
const (
	TypeDocument       = "document"
	TypeCorrespondence = "correspondence"
	TypeDraft          = "draft"
)

// PreviewLength is the number of characters of extracted text shown in
// previews.
const PreviewLength = 200

// DocumentAttributes represents document attributes in JSON:API format.
type DocumentAttributes struct {
	Name             string    `json:"name"`
	FilePath         string    `json:"file_path"`
	CorrespondenceID *int64    `json:"correspondence_id"`
	Indexed          bool      `json:"indexed"`
	Characters       int       `json:"characters"`
	Preview          string    `json:"preview"`
	CreatedAt        *DateTime `json:"created_at,omitempty"`
	UpdatedAt        *DateTime `json:"updated_at,omitempty"`
}

// CorrespondenceAttributes represents correspondence attributes in JSON:API
// format.
type CorrespondenceAttributes struct {
	Reference   string    `json:"reference"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	DocumentIDs []int64   `json:"document_ids"`
	CreatedAt   *DateTime `json:"created_at,omitempty"`
}

// DraftAttributes represents draft attributes in JSON:API format.
type DraftAttributes struct {
	Reference   string    `json:"reference"`
	Intro       string    `json:"intro"`
	Body        string    `json:"body"`
	Conclusion  string    `json:"conclusion"`
	HTMLContent string    `json:"html_content"`
	Indexed     bool      `json:"indexed"`
	CreatedAt   *DateTime `json:"created_at,omitempty"`
	UpdatedAt   *DateTime `json:"updated_at,omitempty"`
}

// Serializer converts domain records into JSON:API resources.
type Serializer struct{}

// NewSerializer creates a new Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func dateTime(d DateTime) *DateTime {
	if d.Time().IsZero() {
		return nil
	}
	return &d
}

// DocumentResource converts a document.
func (s *Serializer) DocumentResource(d document.Document) *Resource {
	_, indexed := d.Embedding()
	attrs := DocumentAttributes{
		Name:       d.Name(),
		FilePath:   d.FilePath(),
		Indexed:    indexed,
		Characters: utf8.RuneCountInString(d.ExtractedText()),
		Preview:    d.Preview(PreviewLength),
		CreatedAt:  dateTime(DateTime(d.CreatedAt())),
		UpdatedAt:  dateTime(DateTime(d.UpdatedAt())),
	}
	if cid := d.CorrespondenceID(); cid > 0 {
		attrs.CorrespondenceID = &cid
	}
	return NewResource(TypeDocument, id(d.ID()), attrs)
}

// DocumentResources converts a list of documents.
func (s *Serializer) DocumentResources(docs []document.Document) []*Resource {
	out := make([]*Resource, len(docs))
	for i, d := range docs {
		out[i] = s.DocumentResource(d)
	}
	return out
}

// CorrespondenceResource converts a correspondence record.
func (s *Serializer) CorrespondenceResource(c document.Correspondence) *Resource {
	docs := c.Documents()
	ids := make([]int64, len(docs))
	for i, d := range docs {
		ids[i] = d.ID()
	}
	return NewResource(TypeCorrespondence, id(c.ID()), CorrespondenceAttributes{
		Reference:   c.Reference(),
		Subject:     c.Subject(),
		Description: c.Description(),
		DocumentIDs: ids,
		CreatedAt:   dateTime(DateTime(c.CreatedAt())),
	})
}

// DraftResource converts a draft.
func (s *Serializer) DraftResource(d document.Draft) *Resource {
	_, indexed := d.Embedding()
	return NewResource(TypeDraft, id(d.ID()), DraftAttributes{
		Reference:   d.Reference(),
		Intro:       d.Intro(),
		Body:        d.Body(),
		Conclusion:  d.Conclusion(),
		HTMLContent: d.HTMLContent(),
		Indexed:     indexed,
		CreatedAt:   dateTime(DateTime(d.CreatedAt())),
		UpdatedAt:   dateTime(DateTime(d.UpdatedAt())),
	})
}
