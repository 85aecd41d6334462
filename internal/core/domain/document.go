package domain

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"time"
)

// SourceDocument is an uploaded file passing through the ingestion pipeline.
// It is transient: only its derived chunks are persisted.
type SourceDocument struct {
	Filename   string
	MimeType   string
	SizeBytes  int64
	UploadedAt time.Time
	Area       string
	Data       []byte
}

// ChunkMetadata travels with every indexed chunk as vector-store payload.
type ChunkMetadata struct {
	Filename    string    `json:"filename"`
	FileType    string    `json:"file_type"`
	ChunkIndex  int       `json:"chunk_index"`
	TotalChunks int       `json:"total_chunks"`
	Area        string    `json:"area"`
	UploadDate  time.Time `json:"upload_date"`
	FileSize    int64     `json:"file_size"`
}

// Chunk is the unit of embedding and retrieval.
type Chunk struct {
	ID        uint64
	Content   string
	Embedding []float32
	Metadata  ChunkMetadata
}

// ChunkID derives a stable point id from (filename, index): the first 8 hex
// chars of md5("filename-index") parsed as an integer. Re-uploading the same
// file overwrites its previous points instead of duplicating them.
func ChunkID(filename string, index int) uint64 {
	sum := md5.Sum([]byte(filename + "-" + strconv.Itoa(index)))
	id, _ := strconv.ParseUint(hex.EncodeToString(sum[:])[:8], 16, 64)
	return id
}

// UploadStatus values for per-file upload results.
const (
	UploadStatusSuccess = "success"
	UploadStatusError   = "error"
)

// UploadResult reports the outcome of processing one file of a batch.
type UploadResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Chunks   int    `json:"chunks,omitempty"`
	Error    string `json:"error,omitempty"`
}
