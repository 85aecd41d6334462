package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mfandino/area-assistant/internal/core/domain"
	"github.com/mfandino/area-assistant/internal/core/ports"
	"github.com/mfandino/area-assistant/internal/observability/metrics"
)

const areaHeader = "X-Area"

// AreaResolver authorizes the tenant named in a request and yields its
// agent configuration.
type AreaResolver interface {
	Get(area string) (domain.AgentConfig, bool)
}

type Router struct {
	ingestor    ports.DocumentIngestor
	chat        ports.ChatService
	transcripts ports.TranscriptStore
	registry    ports.ServiceRegistry
	areas       AreaResolver

	metrics *metrics.HTTPServerMetrics
	logger  *slog.Logger
	limiter *rateLimiter

	maxUploadBytes int64
}

type RouterOptions struct {
	MaxUploadBytes     int64
	RateLimitPerMinute int
}

func NewRouter(
	ingestor ports.DocumentIngestor,
	chat ports.ChatService,
	transcripts ports.TranscriptStore,
	registry ports.ServiceRegistry,
	areas AreaResolver,
	m *metrics.HTTPServerMetrics,
	logger *slog.Logger,
	opts RouterOptions,
) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 * 1024 * 1024
	}
	return &Router{
		ingestor:       ingestor,
		chat:           chat,
		transcripts:    transcripts,
		registry:       registry,
		areas:          areas,
		metrics:        m,
		logger:         logger,
		limiter:        newRateLimiter(opts.RateLimitPerMinute),
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/v1/chat", rt.postChat)
	mux.HandleFunc("/v1/chat/stream", rt.postChatStream)
	mux.HandleFunc("/v1/documents", rt.postDocuments)
	mux.HandleFunc("/v1/sessions/", rt.getSession)

	var handler http.Handler = mux
	handler = rt.limiter.middleware(handler)
	handler = rt.metrics.Middleware("api", handler)
	handler = accessLogMiddleware(rt.logger, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	services := map[string]bool{
		"vector_index": rt.registry.IsInitialized("vector_index"),
		"embedder":     rt.registry.IsInitialized("embedder"),
	}

	body := map[string]any{
		"status":   "ok",
		"services": services,
	}
	if index, ok := rt.registry.VectorIndex(); ok {
		if stats, err := index.Stats(r.Context()); err == nil {
			body["collections"] = stats
		}
	}
	writeJSON(w, http.StatusOK, body)
}

type chatPayload struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"session_id"`
}

func (rt *Router) postChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	area, agent, ok := rt.resolveArea(w, r)
	if !ok {
		return
	}

	var payload chatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	start := time.Now()
	result, err := rt.chat.Chat(r.Context(), domain.ChatRequest{
		Area:      area,
		Prompt:    payload.Prompt,
		SessionID: payload.SessionID,
		Agent:     agent,
	})
	if err != nil {
		rt.writeChatError(w, err)
		return
	}

	rt.metrics.RecordRAGObservation("api", "/v1/chat", area, result.ContextChunks, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) postChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	area, agent, ok := rt.resolveArea(w, r)
	if !ok {
		return
	}

	var payload chatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(payload.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	start := time.Now()
	streamErr := rt.chat.StreamChat(r.Context(), domain.ChatRequest{
		Area:      area,
		Prompt:    payload.Prompt,
		SessionID: payload.SessionID,
		Agent:     agent,
	}, sse.Send)
	if streamErr != nil {
		if domain.IsKind(streamErr, domain.ErrBreakerOpen) {
			rt.metrics.RecordBreakerRejection("api")
		}
		// Headers are already out; the error travels as a final event.
		_ = sse.Send(domain.StreamEvent{
			Type:    domain.EventError,
			Message: errorMessage(streamErr),
		})
		return
	}
	rt.metrics.RecordRAGObservation("api", "/v1/chat/stream", area, 0, time.Since(start))
}

func (rt *Router) postDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	area, _, ok := rt.resolveArea(w, r)
	if !ok {
		return
	}

	// Batch cap: individual file sizes are enforced downstream.
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes*10)
	if err := r.ParseMultipartForm(rt.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	headers := r.MultipartForm.File["documents"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "multipart field 'documents' is required")
		return
	}

	files := make([]domain.SourceDocument, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file "+header.Filename)
			return
		}
		data, err := readAll(file, rt.maxUploadBytes)
		_ = file.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		files = append(files, domain.SourceDocument{
			Filename:   header.Filename,
			MimeType:   header.Header.Get("Content-Type"),
			SizeBytes:  int64(len(data)),
			UploadedAt: time.Now().UTC(),
			Area:       area,
			Data:       data,
		})
	}

	results := rt.ingestor.ProcessBatch(r.Context(), files)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	area, _, ok := rt.resolveArea(w, r)
	if !ok {
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	messages, err := rt.transcripts.ListMessages(r.Context(), sessionID, area, limit)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), errorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   messages,
	})
}

func (rt *Router) resolveArea(w http.ResponseWriter, r *http.Request) (string, domain.AgentConfig, bool) {
	area := strings.TrimSpace(r.Header.Get(areaHeader))
	if area == "" {
		writeError(w, http.StatusUnauthorized, "area header is required")
		return "", domain.AgentConfig{}, false
	}
	agent, ok := rt.areas.Get(area)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unknown area")
		return "", domain.AgentConfig{}, false
	}
	return area, agent, true
}

func (rt *Router) writeChatError(w http.ResponseWriter, err error) {
	if domain.IsKind(err, domain.ErrBreakerOpen) {
		rt.metrics.RecordBreakerRejection("api")
	}
	writeError(w, mapErrorToHTTPStatus(err), errorMessage(err))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
