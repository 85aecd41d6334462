package openaiembed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEmbedder(baseURL string) *Embedder {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = baseURL + "/v1"
	e := &Embedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      "text-embedding-3-small",
		dimensions: 4,
		maxChars:   1000,
		logger:     testLogger(),
	}
	e.initialized.Store(true)
	return e
}

func TestEmbedBatchSendsOneItemPerRequest(t *testing.T) {
	var inputs [][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		inputs = append(inputs, body.Input)
		_, _ = w.Write([]byte(`{"data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3,0.4]}],"model":"text-embedding-3-small","usage":{}}`))
	}))
	defer server.Close()

	e := testEmbedder(server.URL)
	vectors, err := e.EmbedBatch(context.Background(), []string{"first", "second", "third"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for _, v := range vectors {
		assert.Len(t, v, 4)
	}

	require.Len(t, inputs, 3)
	for _, input := range inputs {
		assert.Len(t, input, 1)
	}
	assert.Equal(t, []string{"first"}, inputs[0])
}

func TestEmbedBatchStopsOnFailure(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3,0.4]}],"model":"text-embedding-3-small","usage":{}}`))
	}))
	defer server.Close()

	e := testEmbedder(server.URL)
	_, err := e.EmbedBatch(context.Background(), []string{"first", "second", "third"})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}
