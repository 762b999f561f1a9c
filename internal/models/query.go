package models

import "fmt"

// QueryRequest is a semantic retrieval request.
type QueryRequest struct {
	Query           string                 `json:"query"`
	TopK            int                    `json:"top_k,omitempty"`
	GroupByDocument bool                   `json:"group_by_document,omitempty"`
	Where           map[string]interface{} `json:"where,omitempty"`
}

// Validate ensures the query has valid fields and sets defaults.
// Returns an error if the query text is empty; otherwise normalizes TopK.
func (q *QueryRequest) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = 3
	}
	if q.TopK > 100 {
		q.TopK = 100
	}
	return nil
}
