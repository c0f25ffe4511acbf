package models

// ScoredChunk is a single chunk that matched a query.
type ScoredChunk struct {
	DocumentID int64   `json:"document_id"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	Rank       int     `json:"rank"`
}

// RetrieveRequest is the body of a retrieval request.
type RetrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// RetrieveResponse is the response for a retrieval request. Context is empty
// and Found is false when no context should be injected into a prompt.
type RetrieveResponse struct {
	Query     string         `json:"query"`
	Found     bool           `json:"found"`
	Status    string         `json:"status"`
	Context   string         `json:"context,omitempty"`
	Results   []*ScoredChunk `json:"results"`
	QueryTime int64          `json:"query_time_ms"`
}
