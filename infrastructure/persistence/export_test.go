package persistence

import "github.com/aleysapc/docsearch/domain/document"

// SampleDocument builds an unsaved document for store tests.
func SampleDocument(name string) document.Document {
	return document.NewDocument(name, "/uploads/"+name)
}
