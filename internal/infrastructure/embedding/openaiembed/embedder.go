package openaiembed

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mfandino/area-assistant/internal/core/domain"
	"github.com/mfandino/area-assistant/internal/infrastructure/embedding"
)

// Embedder is the hosted alternative to the local Ollama model, selected
// with EMBEDDINGS_PROVIDER=openai. The collection dimensionality must
// match the chosen model.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	maxChars   int

	logger      *slog.Logger
	initialized atomic.Bool
}

func NewEmbedder(apiKey, model string, dimensions, maxChars int, logger *slog.Logger) *Embedder {
	return &Embedder{
		client:     openai.NewClient(apiKey),
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
		maxChars:   maxChars,
		logger:     logger,
	}
}

func (e *Embedder) Initialize(ctx context.Context) error {
	vectors, err := e.embed(ctx, []string{"ping"})
	if err != nil {
		return domain.WrapError("embedder", "probe model "+string(e.model), err)
	}
	if len(vectors[0]) != e.dimensions {
		return domain.WrapError("embedder", "probe model "+string(e.model),
			fmt.Errorf("expected %d dimensions, got %d", e.dimensions, len(vectors[0])))
	}
	e.initialized.Store(true)
	e.logger.Info("embedding model ready", "model", string(e.model), "dimensions", e.dimensions)
	return nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !e.initialized.Load() {
		return nil, domain.WrapError("embedder", "embed", domain.ErrNotInitialized)
	}
	vectors, err := e.embed(ctx, []string{embedding.CleanText(text, e.maxChars)})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds one text per request, sequentially, so a failure
// points at the item that caused it and no partial batch is returned.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if !e.initialized.Load() {
		return nil, domain.WrapError("embedder", "embed batch", domain.ErrNotInitialized)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vectors, err := e.embed(ctx, []string{embedding.CleanText(text, e.maxChars)})
		if err != nil {
			return nil, fmt.Errorf("embed item %d: %w", i, err)
		}
		out[i] = vectors[0]
	}
	return out, nil
}

func (e *Embedder) embed(ctx context.Context, input []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: input,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(input), len(resp.Data))
	}
	out := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		out[item.Index] = item.Embedding
	}
	return out, nil
}
