package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfandino/area-assistant/internal/core/domain"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Initialize(context.Context) error { return nil }

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vector
	}
	return out, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions(baseURL string) Options {
	return Options{
		BaseURL:                 baseURL,
		DocumentsCollection:     "docs",
		ConversationsCollection: "convos",
		VectorSize:              4,
		ScoreThreshold:          0.15,
	}
}

func TestEnsureCollections(t *testing.T) {
	var created []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		created = append(created, r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		vectors := body["vectors"].(map[string]any)
		assert.Equal(t, float64(4), vectors["size"])
		assert.Equal(t, "Cosine", vectors["distance"])

		_, _ = w.Write([]byte(`{"result":true,"status":"ok"}`))
	}))
	defer server.Close()

	c := New(testOptions(server.URL), &fakeEmbedder{}, testLogger())
	require.NoError(t, c.EnsureCollections(context.Background()))
	assert.Equal(t, []string{"/collections/docs", "/collections/convos"}, created)
}

func TestEnsureCollectionsToleratesExisting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	c := New(testOptions(server.URL), &fakeEmbedder{}, testLogger())
	require.NoError(t, c.EnsureCollections(context.Background()))
}

func TestUpsertChunks(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/docs" {
			_, _ = w.Write([]byte(`{"result":true}`))
			return
		}
		if r.Method == http.MethodPut && r.URL.Path == "/collections/convos" {
			_, _ = w.Write([]byte(`{"result":true}`))
			return
		}
		require.Equal(t, "/collections/docs/points", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("wait"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	c := New(testOptions(server.URL), &fakeEmbedder{}, testLogger())
	require.NoError(t, c.EnsureCollections(context.Background()))

	chunk := domain.Chunk{
		ID:        domain.ChunkID("report.pdf", 0),
		Content:   "chunk text",
		Embedding: []float32{1, 2, 3, 4},
		Metadata: domain.ChunkMetadata{
			Filename:    "report.pdf",
			FileType:    "application/pdf",
			ChunkIndex:  0,
			TotalChunks: 2,
			Area:        "support",
			UploadDate:  time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
			FileSize:    1024,
		},
	}
	require.NoError(t, c.UpsertChunks(context.Background(), []domain.Chunk{chunk}))

	points := captured["points"].([]any)
	require.Len(t, points, 1)
	point := points[0].(map[string]any)
	payload := point["payload"].(map[string]any)
	assert.Equal(t, "chunk text", payload["content"])
	assert.Equal(t, "support", payload["area"])
	assert.Equal(t, "document", payload["type"])
	assert.Equal(t, "report.pdf", payload["filename"])
	assert.Equal(t, "2025-05-01T12:00:00Z", payload["timestamp"])
}

func TestUpsertBeforeEnsure(t *testing.T) {
	c := New(testOptions("http://127.0.0.1:1"), &fakeEmbedder{}, testLogger())
	err := c.UpsertChunks(context.Background(), []domain.Chunk{{ID: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotInitialized))
}

func TestSearchAppliesAreaFilterAndThreshold(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			_, _ = w.Write([]byte(`{"result":true}`))
			return
		}
		require.Equal(t, "/collections/docs/points/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"result":[
			{"id":42,"score":0.87,"payload":{"content":"found text","area":"support","type":"document","filename":"a.txt","file_type":"text/plain","timestamp":"2025-05-01T12:00:00Z"}}
		]}`))
	}))
	defer server.Close()

	c := New(testOptions(server.URL), &fakeEmbedder{vector: []float32{1, 2, 3, 4}}, testLogger())
	require.NoError(t, c.EnsureCollections(context.Background()))

	results, err := c.Search(context.Background(), "query", "support", 3)
	require.NoError(t, err)

	assert.Equal(t, float64(3), captured["limit"])
	assert.Equal(t, 0.15, captured["score_threshold"])
	filter := captured["filter"].(map[string]any)
	must := filter["must"].([]any)
	require.Len(t, must, 1)
	clause := must[0].(map[string]any)
	assert.Equal(t, "area", clause["key"])
	assert.Equal(t, "support", clause["match"].(map[string]any)["value"])

	require.Len(t, results, 1)
	assert.Equal(t, uint64(42), results[0].ChunkID)
	assert.Equal(t, 0.87, results[0].Score)
	assert.Equal(t, "found text", results[0].Content)
	assert.Equal(t, "a.txt", results[0].Filename)
}

func TestSearchWithoutAreaOmitsFilter(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			_, _ = w.Write([]byte(`{"result":true}`))
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	c := New(testOptions(server.URL), &fakeEmbedder{vector: []float32{1, 2, 3, 4}}, testLogger())
	require.NoError(t, c.EnsureCollections(context.Background()))

	_, err := c.Search(context.Background(), "query", "", 3)
	require.NoError(t, err)
	_, hasFilter := captured["filter"]
	assert.False(t, hasFilter)
}

func TestSearchServerErrorIsStoreUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			_, _ = w.Write([]byte(`{"result":true}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(testOptions(server.URL), &fakeEmbedder{vector: []float32{1, 2, 3, 4}}, testLogger())
	require.NoError(t, c.EnsureCollections(context.Background()))

	_, err := c.Search(context.Background(), "query", "support", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestUpsertTransportErrorIsStoreUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":true}`))
	}))

	c := New(testOptions(server.URL), &fakeEmbedder{}, testLogger())
	require.NoError(t, c.EnsureCollections(context.Background()))
	server.Close()

	err := c.UpsertChunks(context.Background(), []domain.Chunk{{ID: 1, Embedding: []float32{1, 2, 3, 4}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/collections/docs":
			_, _ = w.Write([]byte(`{"result":{"status":"green","points_count":123}}`))
		case "/collections/convos":
			_, _ = w.Write([]byte(`{"result":{"status":"green","points_count":7}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := New(testOptions(server.URL), &fakeEmbedder{}, testLogger())
	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(123), stats["docs"].PointsCount)
	assert.Equal(t, "green", stats["docs"].Status)
	assert.Equal(t, int64(7), stats["convos"].PointsCount)
}
