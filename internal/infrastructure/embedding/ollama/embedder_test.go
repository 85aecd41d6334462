package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfandino/area-assistant/internal/core/domain"
)

func fakeOllama(t *testing.T, dimensions int, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		if calls != nil {
			*calls++
		}

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Input)

		embeddings := make([][]float32, len(req.Input))
		for i := range embeddings {
			embeddings[i] = make([]float32, dimensions)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeAndEmbed(t *testing.T) {
	server := fakeOllama(t, 384, nil)
	defer server.Close()

	e := NewEmbedder(server.URL, "all-minilm", 384, 2000, testLogger())
	require.NoError(t, e.Initialize(context.Background()))

	vector, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, vector, 384)
}

func TestEmbedBeforeInitialize(t *testing.T) {
	e := NewEmbedder("http://127.0.0.1:1", "all-minilm", 384, 2000, testLogger())

	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotInitialized))

	_, err = e.EmbedBatch(context.Background(), []string{"hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotInitialized))
}

func TestInitializeDimensionMismatch(t *testing.T) {
	server := fakeOllama(t, 768, nil)
	defer server.Close()

	e := NewEmbedder(server.URL, "nomic-embed-text", 384, 2000, testLogger())
	require.Error(t, e.Initialize(context.Background()))
}

func TestEmbedBatchSequential(t *testing.T) {
	var calls int
	server := fakeOllama(t, 384, &calls)
	defer server.Close()

	e := NewEmbedder(server.URL, "all-minilm", 384, 2000, testLogger())
	require.NoError(t, e.Initialize(context.Background()))
	calls = 0

	texts := []string{"one", "two", "three"}
	vectors, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, 3, calls)
}

func TestEmbedUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	e := NewEmbedder(server.URL, "missing", 384, 2000, testLogger())
	err := e.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
