package mcp

import "fmt"

// RecordURI identifies a stored record in tool output, for example
// docsearch://documents/42.
type RecordURI struct {
	kind string
	id   int64
}

// NewRecordURI creates a RecordURI for a record kind and id.
func NewRecordURI(kind string, id int64) RecordURI {
	return RecordURI{kind: kind, id: id}
}

// String builds the URI string.
func (u RecordURI) String() string {
	return fmt.Sprintf("docsearch://%s/%d", u.kind, u.id)
}
