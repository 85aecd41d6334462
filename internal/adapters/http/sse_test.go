package httpadapter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfandino/area-assistant/internal/core/domain"
)

// brokenWriter simulates a client that disconnects after a fixed number
// of successful writes.
type brokenWriter struct {
	*httptest.ResponseRecorder
	failAfter int
	writes    int
}

func (w *brokenWriter) Write(b []byte) (int, error) {
	w.writes++
	if w.writes > w.failAfter {
		return 0, errors.New("broken pipe")
	}
	return w.ResponseRecorder.Write(b)
}

func (w *brokenWriter) Flush() {}

func TestSSEWriterFrames(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := newSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, sse.Send(domain.StreamEvent{Type: domain.EventChunk, Content: "hi"}))
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "data: {\"type\":\"chunk\",\"content\":\"hi\"}\n\n", rec.Body.String())
}

func TestSSEWriterClientGone(t *testing.T) {
	w := &brokenWriter{ResponseRecorder: httptest.NewRecorder(), failAfter: 2}
	sse, err := newSSEWriter(w)
	require.NoError(t, err)

	require.NoError(t, sse.Send(domain.StreamEvent{Type: domain.EventChunk, Content: "one"}))
	require.NoError(t, sse.Send(domain.StreamEvent{Type: domain.EventChunk, Content: "two"}))

	err = sse.Send(domain.StreamEvent{Type: domain.EventChunk, Content: "three"})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrClientGone))
}

func TestSSEWriterRequiresFlusher(t *testing.T) {
	_, err := newSSEWriter(nopResponseWriter{})
	require.Error(t, err)
}

type nopResponseWriter struct{}

func (nopResponseWriter) Header() http.Header       { return http.Header{} }
func (nopResponseWriter) Write([]byte) (int, error) { return 0, nil }
func (nopResponseWriter) WriteHeader(int)           {}
