package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mfandino/area-assistant/internal/core/domain"
)

// sseWriter frames stream events as server-sent events. Every write is
// flushed immediately so the client sees fragments as they arrive.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &sseWriter{w: w, flusher: flusher}, nil
}

func (s *sseWriter) Send(event domain.StreamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return domain.WrapError("sse", "write event", domain.ErrClientGone)
	}
	s.flusher.Flush()
	return nil
}
