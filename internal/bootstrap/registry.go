package bootstrap

import (
	"sync"

	"github.com/mfandino/area-assistant/internal/core/ports"
)

// Registry holds the optional capabilities that finish initializing after
// the server is already accepting traffic. Consumers feature-detect
// through the accessors instead of assuming availability.
type Registry struct {
	mu          sync.RWMutex
	vectorIndex ports.VectorIndex
	embedder    ports.Embedder
	status      map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		status: map[string]string{
			"vector_index": "pending",
			"embedder":     "pending",
		},
	}
}

func (r *Registry) SetVectorIndex(index ports.VectorIndex) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vectorIndex = index
	r.status["vector_index"] = "ready"
}

func (r *Registry) SetEmbedder(embedder ports.Embedder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embedder = embedder
	r.status["embedder"] = "ready"
}

func (r *Registry) MarkFailed(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[name] = "failed: " + err.Error()
}

func (r *Registry) VectorIndex() (ports.VectorIndex, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.vectorIndex == nil {
		return nil, false
	}
	return r.vectorIndex, true
}

func (r *Registry) Embedder() (ports.Embedder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.embedder == nil {
		return nil, false
	}
	return r.embedder, true
}

func (r *Registry) IsInitialized(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status[name] == "ready"
}

func (r *Registry) Status() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.status))
	for name, state := range r.status {
		out[name] = state
	}
	return out
}
