package ports

import (
	"context"

	"github.com/mfandino/area-assistant/internal/core/domain"
)

// DocumentIngestor runs the upload pipeline: extract, chunk, embed, index.
type DocumentIngestor interface {
	// ProcessDocument returns the number of chunks indexed. A quality skip
	// (content too short or unreadable) returns (0, nil).
	ProcessDocument(ctx context.Context, file domain.SourceDocument) (int, error)
	// ProcessBatch processes files independently; one failure never aborts
	// the rest.
	ProcessBatch(ctx context.Context, files []domain.SourceDocument) []domain.UploadResult
}

// ChatService orchestrates one chat turn, buffered or streamed.
type ChatService interface {
	Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error)
	// StreamChat emits session, chunk and done events through emit. An emit
	// failure (client gone) stops the stream without error.
	StreamChat(ctx context.Context, req domain.ChatRequest, emit func(domain.StreamEvent) error) error
}
