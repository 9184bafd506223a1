package model

// Chunk is a fixed-size word window of an uploaded report.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Seq        int    `json:"seq"`
	Content    string `json:"content"`
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

// Answer is the outcome of one question asked against an uploaded report.
type Answer struct {
	DocumentID string        `json:"document_id"`
	Source     string        `json:"source"`
	Query      string        `json:"query"`
	Reply      string        `json:"reply"`
	Chunks     int           `json:"chunks"`
	Documents  []ScoredChunk `json:"documents"`
}
