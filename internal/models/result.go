package models

// GroupedResult is a query result aggregated to document granularity. Candidates
// are the document's matching chunks sorted ascending by distance; BestDistance
// is the minimum distance among them. Constructed per query call, never persisted.
type GroupedResult struct {
	DocumentID   string                 `json:"document_id"`
	Metadata     map[string]interface{} `json:"metadata"`
	Candidates   []Candidate            `json:"candidates"`
	BestDistance float64                `json:"best_distance"`
}

// Candidate is a single chunk hit returned by the vector index.
// Distance is non-negative; smaller means more similar.
type Candidate struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Distance float64                `json:"distance"`
}

// Similarity returns 1 - distance. Only meaningful when the index's metric
// yields distances in [0,1] (cosine space).
func (c Candidate) Similarity() float64 {
	return 1 - c.Distance
}

// QueryResponse is the response for a retrieval request. Exactly one of Results
// and Groups is populated, depending on whether grouping was requested.
type QueryResponse struct {
	Query     string          `json:"query"`
	Results   []Candidate     `json:"results,omitempty"`
	Groups    []GroupedResult `json:"groups,omitempty"`
	QueryTime int64           `json:"query_time_ms"`
}
