package task

import "strings"

// Operation represents the type of task operation.
type Operation string

// Pipeline stage operations, in execution order.
const (
	OperationExtract Operation = "docsearch.document.extract"
	OperationClean   Operation = "docsearch.document.clean"
	OperationEmbed   Operation = "docsearch.document.embed"
	OperationPersist Operation = "docsearch.document.persist"
)

// Payload keys shared by the stage handlers.
const (
	KeyJobID      = "job_id"
	KeyDocumentID = "document_id"
	KeyFilePath   = "file_path"
	KeyText       = "text"
	KeyVectors    = "vectors"
)

var pipeline = []Operation{
	OperationExtract,
	OperationClean,
	OperationEmbed,
	OperationPersist,
}

// String returns the string representation of the operation.
func (o Operation) String() string {
	return string(o)
}

// IsDocumentOperation reports whether o is a document pipeline stage.
func (o Operation) IsDocumentOperation() bool {
	return strings.HasPrefix(string(o), "docsearch.document.")
}

// Stage returns the zero-based position of o in the pipeline, or -1.
func (o Operation) Stage() int {
	for i, op := range pipeline {
		if op == o {
			return i
		}
	}
	return -1
}

// Next returns the stage after o. ok is false for the last stage and for
// operations outside the pipeline.
func (o Operation) Next() (Operation, bool) {
	i := o.Stage()
	if i < 0 || i+1 >= len(pipeline) {
		return "", false
	}
	return pipeline[i+1], true
}

// Pipeline returns the document pipeline stages in order.
func Pipeline() []Operation {
	out := make([]Operation, len(pipeline))
	copy(out, pipeline)
	return out
}

// StagePriority returns base raised by the stage position of o.
func StagePriority(base Priority, o Operation) int {
	return int(base) + max(o.Stage(), 0)*10
}
