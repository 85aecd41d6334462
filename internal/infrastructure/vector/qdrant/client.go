package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mfandino/area-assistant/internal/core/domain"
	"github.com/mfandino/area-assistant/internal/core/ports"
)

type Client struct {
	baseURL        string
	documents      string
	conversations  string
	vectorSize     int
	scoreThreshold float64

	embedder    ports.Embedder
	httpClient  *http.Client
	logger      *slog.Logger
	initialized atomic.Bool
}

type Options struct {
	BaseURL                 string
	DocumentsCollection     string
	ConversationsCollection string
	VectorSize              int
	ScoreThreshold          float64
}

func New(opts Options, embedder ports.Embedder, logger *slog.Logger) *Client {
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		documents:      opts.DocumentsCollection,
		conversations:  opts.ConversationsCollection,
		vectorSize:     opts.VectorSize,
		scoreThreshold: opts.ScoreThreshold,
		embedder:       embedder,
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		logger:         logger,
	}
}

// EnsureCollections creates both collections if missing. An existing
// collection answers 409, which is fine.
func (c *Client) EnsureCollections(ctx context.Context) error {
	for _, collection := range []string{c.documents, c.conversations} {
		if err := c.ensureCollection(ctx, collection); err != nil {
			return err
		}
	}
	c.initialized.Store(true)
	c.logger.Info("vector collections ready",
		"documents", c.documents,
		"conversations", c.conversations,
		"vector_size", c.vectorSize,
	)
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, collection string) error {
	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     c.vectorSize,
			"distance": "Cosine",
		},
	}

	var resp createResponse
	status, err := c.do(ctx, http.MethodPut, "/collections/"+collection, reqBody, &resp)
	if err != nil {
		return domain.WrapError("qdrant", "ensure collection "+collection, err)
	}
	if status == http.StatusConflict {
		return nil
	}
	if status >= 300 {
		return domain.WrapError("qdrant", "ensure collection "+collection, statusError(status))
	}
	return nil
}

type createResponse struct {
	Result bool   `json:"result"`
	Status string `json:"status"`
}

func (c *Client) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if !c.initialized.Load() {
		return domain.WrapError("qdrant", "upsert", domain.ErrNotInitialized)
	}
	if len(chunks) == 0 {
		return nil
	}

	type point struct {
		ID      uint64         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for _, chunk := range chunks {
		points = append(points, point{
			ID:     chunk.ID,
			Vector: chunk.Embedding,
			Payload: map[string]any{
				"content":      chunk.Content,
				"area":         chunk.Metadata.Area,
				"type":         "document",
				"timestamp":    chunk.Metadata.UploadDate.UTC().Format(time.RFC3339),
				"filename":     chunk.Metadata.Filename,
				"file_type":    chunk.Metadata.FileType,
				"chunk_index":  chunk.Metadata.ChunkIndex,
				"total_chunks": chunk.Metadata.TotalChunks,
				"file_size":    chunk.Metadata.FileSize,
			},
		})
	}

	status, err := c.do(ctx, http.MethodPut,
		"/collections/"+c.documents+"/points?wait=true",
		map[string]any{"points": points}, nil)
	if err != nil {
		return domain.WrapError("qdrant", "upsert points", err)
	}
	if status >= 300 {
		return domain.WrapError("qdrant", "upsert points", statusError(status))
	}
	return nil
}

// Search embeds the query and runs a filtered similarity search. A
// non-empty area scopes results to that tenant; an empty area searches
// across all of them, so chat callers always pass one.
func (c *Client) Search(ctx context.Context, query, area string, limit int) ([]domain.RetrievedChunk, error) {
	if !c.initialized.Load() {
		return nil, domain.WrapError("qdrant", "search", domain.ErrNotInitialized)
	}

	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domain.WrapError("qdrant", "embed query", err)
	}

	reqBody := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"with_payload":    true,
		"score_threshold": c.scoreThreshold,
	}
	if area != "" {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key":   "area",
					"match": map[string]any{"value": area},
				},
			},
		}
	}

	var searchResp struct {
		Result []struct {
			ID      uint64         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	status, err := c.do(ctx, http.MethodPost,
		"/collections/"+c.documents+"/points/search", reqBody, &searchResp)
	if err != nil {
		return nil, domain.WrapError("qdrant", "search points", err)
	}
	if status >= 300 {
		return nil, domain.WrapError("qdrant", "search points", statusError(status))
	}

	out := make([]domain.RetrievedChunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		chunk := domain.RetrievedChunk{
			ChunkID:  r.ID,
			Score:    r.Score,
			Content:  payloadString(r.Payload, "content"),
			Area:     payloadString(r.Payload, "area"),
			Type:     payloadString(r.Payload, "type"),
			Filename: payloadString(r.Payload, "filename"),
			FileType: payloadString(r.Payload, "file_type"),
		}
		if raw := payloadString(r.Payload, "timestamp"); raw != "" {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				chunk.Uploaded = ts
			}
		}
		out = append(out, chunk)
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context) (map[string]domain.CollectionStats, error) {
	out := make(map[string]domain.CollectionStats, 2)
	for _, collection := range []string{c.documents, c.conversations} {
		var infoResp struct {
			Result struct {
				Status      string `json:"status"`
				PointsCount int64  `json:"points_count"`
			} `json:"result"`
		}
		status, err := c.do(ctx, http.MethodGet, "/collections/"+collection, nil, &infoResp)
		if err != nil {
			return nil, domain.WrapError("qdrant", "collection info "+collection, err)
		}
		if status >= 300 {
			return nil, domain.WrapError("qdrant", "collection info "+collection, statusError(status))
		}
		out[collection] = domain.CollectionStats{
			PointsCount: infoResp.Result.PointsCount,
			Status:      infoResp.Result.Status,
		}
	}
	return out, nil
}

// Error statuses mark the store unavailable so the orchestration layer
// can skip retrieval instead of failing the chat.
func statusError(status int) error {
	return fmt.Errorf("unexpected status %d: %w", status, domain.ErrStoreUnavailable)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call qdrant: %v: %w", err, domain.ErrStoreUnavailable)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if out != nil && resp.StatusCode < 300 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
