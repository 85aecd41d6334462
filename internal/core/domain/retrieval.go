package domain

import "time"

// RetrievedChunk is a single similarity-search hit. Produced only by the
// vector index; never mutated afterwards.
type RetrievedChunk struct {
	ChunkID  uint64    `json:"chunk_id"`
	Score    float64   `json:"score"`
	Content  string    `json:"content"`
	Area     string    `json:"area"`
	Type     string    `json:"type"`
	Filename string    `json:"filename,omitempty"`
	FileType string    `json:"file_type,omitempty"`
	Uploaded time.Time `json:"upload_date,omitzero"`
}

// CollectionStats is a snapshot of one vector-store collection.
type CollectionStats struct {
	PointsCount int64  `json:"points_count"`
	Status      string `json:"status"`
}
