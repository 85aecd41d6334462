package ports

import (
	"context"

	"github.com/mfandino/area-assistant/internal/core/domain"
)

// Extractor pulls plain text out of an uploaded file and records the
// detected MIME type on the document.
type Extractor interface {
	Extract(ctx context.Context, doc *domain.SourceDocument) (string, error)
}

// Chunker splits extracted text into retrieval-sized segments.
type Chunker interface {
	Split(text string) []string
}

// Embedder converts text into fixed-dimension vectors. Initialize must
// complete successfully before Embed/EmbedBatch may be called.
type Embedder interface {
	Initialize(ctx context.Context) error
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the tenant-partitioned similarity store.
type VectorIndex interface {
	EnsureCollections(ctx context.Context) error
	UpsertChunks(ctx context.Context, chunks []domain.Chunk) error
	// Search embeds the query and returns hits ranked by descending score.
	// An empty area searches across all tenants; chat callers must always
	// supply one.
	Search(ctx context.Context, query, area string, limit int) ([]domain.RetrievedChunk, error)
	Stats(ctx context.Context) (map[string]domain.CollectionStats, error)
}

// TextGenerator is the LLM generate capability, buffered or streamed.
// GenerateStream invokes emit once per text fragment as it arrives and
// returns the full accumulated text.
type TextGenerator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (string, error)
	GenerateStream(ctx context.Context, req domain.GenerationRequest, emit func(delta string) error) (string, error)
}

// TranscriptStore persists chat sessions and their message history.
type TranscriptStore interface {
	CreateSession(ctx context.Context, area string) (string, error)
	AppendExchange(ctx context.Context, sessionID, area, prompt, response string) error
	ListMessages(ctx context.Context, sessionID, area string, limit int) ([]domain.TranscriptMessage, error)
}

// OCRService is the external OCR capability for images and scanned PDFs.
type OCRService interface {
	ExtractText(ctx context.Context, filename string, data []byte) (string, error)
}

// ServiceRegistry exposes the optional capabilities populated by the startup
// sequencer. Callers feature-detect instead of branching on errors.
type ServiceRegistry interface {
	VectorIndex() (VectorIndex, bool)
	Embedder() (Embedder, bool)
	IsInitialized(name string) bool
}
