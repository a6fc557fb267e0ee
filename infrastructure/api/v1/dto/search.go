// Package dto holds request and response bodies of the v1 API that are not
// JSON:API resources.
package dto

// SearchResult is one ranked record.
type SearchResult struct {
	ID         int64   `json:"id"`
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Preview    string  `json:"preview"`
	Similarity float64 `json:"similarity"`
}

// SearchResponse lists matches, most similar first.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// CorrespondenceRequest creates a correspondence record.
type CorrespondenceRequest struct {
	Reference   string `json:"reference"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// DraftRequest creates or replaces a draft.
type DraftRequest struct {
	Reference   string `json:"reference"`
	Intro       string `json:"intro"`
	Body        string `json:"body"`
	Conclusion  string `json:"conclusion"`
	HTMLContent string `json:"html_content"`
}

// JobAccepted is returned when an indexing job has been queued.
type JobAccepted struct {
	TaskID     string `json:"task_id"`
	Status     string `json:"status"`
	DocumentID int64  `json:"document_id"`
}
