package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mfandino/area-assistant/internal/core/domain"
	"github.com/mfandino/area-assistant/internal/infrastructure/embedding"
)

const progressEvery = 10

type Embedder struct {
	baseURL    string
	model      string
	dimensions int
	maxChars   int

	client      *http.Client
	logger      *slog.Logger
	initialized atomic.Bool
}

func NewEmbedder(baseURL, model string, dimensions, maxChars int, logger *slog.Logger) *Embedder {
	return &Embedder{
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
		maxChars:   maxChars,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Initialize probes the model with a short request so that a missing or
// still-loading model is caught at startup instead of on the first upload.
func (e *Embedder) Initialize(ctx context.Context) error {
	vector, err := e.embed(ctx, []string{"ping"})
	if err != nil {
		return domain.WrapError("embedder", "probe model "+e.model, err)
	}
	if len(vector) != 1 {
		return domain.WrapError("embedder", "probe model "+e.model,
			fmt.Errorf("expected one probe vector, got %d", len(vector)))
	}
	if len(vector[0]) != e.dimensions {
		return domain.WrapError("embedder", "probe model "+e.model,
			fmt.Errorf("expected %d dimensions, got %d", e.dimensions, len(vector[0])))
	}
	e.initialized.Store(true)
	e.logger.Info("embedding model ready", "model", e.model, "dimensions", e.dimensions)
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

// EmbedBatch runs sequentially. Ollama serializes embedding requests on
// a single model anyway, and per-item calls keep one oversized batch from
// stalling the whole upload.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if !e.initialized.Load() {
		return nil, domain.WrapError("embedder", "embed batch", domain.ErrNotInitialized)
	}

	out := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vectors, err := e.embed(ctx, []string{embedding.CleanText(text, e.maxChars)})
		if err != nil {
			return nil, domain.WrapError("embedder", fmt.Sprintf("embed item %d/%d", i+1, len(texts)), err)
		}
		out = append(out, vectors[0])

		if (i+1)%progressEvery == 0 {
			e.logger.Info("embedding progress", "done", i+1, "total", len(texts))
		}
	}
	return out, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *Embedder) embed(ctx context.Context, input []string) ([][]float32, error) {
	payload, err := json.Marshal(embedRequest{Model: e.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}

	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Embeddings) != len(input) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(input), len(parsed.Embeddings))
	}
	for _, vector := range parsed.Embeddings {
		if len(vector) != e.dimensions {
			return nil, fmt.Errorf("expected %d dimensions, got %d", e.dimensions, len(vector))
		}
	}
	return parsed.Embeddings, nil
}
