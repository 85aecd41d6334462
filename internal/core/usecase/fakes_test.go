package usecase

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/mfandino/area-assistant/internal/core/domain"
	"github.com/mfandino/area-assistant/internal/core/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, doc *domain.SourceDocument) (string, error) {
	doc.MimeType = "text/plain"
	if f.err != nil {
		return "", f.err
	}
	if f.text != "" {
		return f.text, nil
	}
	return string(doc.Data), nil
}

type fakeChunker struct {
	size int
}

func (f *fakeChunker) Split(text string) []string {
	size := f.size
	if size <= 0 {
		size = 100
	}
	var out []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

type fakeEmbedder struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeEmbedder) Initialize(context.Context) error { return nil }

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type fakeIndex struct {
	mu       sync.Mutex
	upserted []domain.Chunk
	hits     []domain.RetrievedChunk
	upsertEr error
	searchEr error
}

func (f *fakeIndex) EnsureCollections(context.Context) error { return nil }

func (f *fakeIndex) UpsertChunks(_ context.Context, chunks []domain.Chunk) error {
	if f.upsertEr != nil {
		return f.upsertEr
	}
	f.mu.Lock()
	f.upserted = append(f.upserted, chunks...)
	f.mu.Unlock()
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _, area string, _ int) ([]domain.RetrievedChunk, error) {
	if f.searchEr != nil {
		return nil, f.searchEr
	}
	var out []domain.RetrievedChunk
	for _, hit := range f.hits {
		if hit.Area == area {
			out = append(out, hit)
		}
	}
	return out, nil
}

func (f *fakeIndex) Stats(context.Context) (map[string]domain.CollectionStats, error) {
	return map[string]domain.CollectionStats{}, nil
}

type fakeRegistry struct {
	index    ports.VectorIndex
	embedder ports.Embedder
}

func (f *fakeRegistry) VectorIndex() (ports.VectorIndex, bool) {
	if f.index == nil {
		return nil, false
	}
	return f.index, true
}

func (f *fakeRegistry) Embedder() (ports.Embedder, bool) {
	if f.embedder == nil {
		return nil, false
	}
	return f.embedder, true
}

func (f *fakeRegistry) IsInitialized(string) bool {
	return f.index != nil && f.embedder != nil
}

type fakeGenerator struct {
	response string
	deltas   []string
	err      error
	captured domain.GenerationRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req domain.GenerationRequest) (string, error) {
	f.captured = req
	return f.response, f.err
}

func (f *fakeGenerator) GenerateStream(_ context.Context, req domain.GenerationRequest, emit func(string) error) (string, error) {
	f.captured = req
	if f.err != nil {
		return "", f.err
	}
	var sb strings.Builder
	for _, delta := range f.deltas {
		sb.WriteString(delta)
		if err := emit(delta); err != nil {
			return sb.String(), domain.WrapError("fake", "emit", domain.ErrClientGone)
		}
	}
	return sb.String(), nil
}

type fakeTranscripts struct {
	sessionID string
	createErr error
	appendErr error

	mu        sync.Mutex
	exchanges [][3]string
}

func (f *fakeTranscripts) CreateSession(_ context.Context, _ string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.sessionID == "" {
		return "generated-session", nil
	}
	return f.sessionID, nil
}

func (f *fakeTranscripts) AppendExchange(_ context.Context, sessionID, _, prompt, response string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	f.exchanges = append(f.exchanges, [3]string{sessionID, prompt, response})
	f.mu.Unlock()
	return nil
}

func (f *fakeTranscripts) ListMessages(context.Context, string, string, int) ([]domain.TranscriptMessage, error) {
	return nil, nil
}
