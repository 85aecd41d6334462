package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mfandino/area-assistant/internal/core/domain"
	"github.com/mfandino/area-assistant/internal/core/ports"
)

const (
	retrievalTopK     = 3
	contextSnippetMax = 800
)

const contextPreamble = `Use the following sources from the knowledge base to answer. ` +
	`Prefer information from the sources over general knowledge and say so when the sources do not cover the question.`

// ChatService orchestrates one chat turn: resolve the session, retrieve
// area-scoped context, generate, persist. Retrieval and persistence are
// best-effort; only generation failures surface to the caller.
type ChatService struct {
	generator   ports.TextGenerator
	transcripts ports.TranscriptStore
	registry    ports.ServiceRegistry
	logger      *slog.Logger
}

func NewChatService(
	generator ports.TextGenerator,
	transcripts ports.TranscriptStore,
	registry ports.ServiceRegistry,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		generator:   generator,
		transcripts: transcripts,
		registry:    registry,
		logger:      logger,
	}
}

func (s *ChatService) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error) {
	if err := validateChatRequest(req); err != nil {
		return nil, err
	}

	sessionID := s.resolveSession(ctx, req)
	chunks := s.retrieveContext(ctx, req)

	response, err := s.generator.Generate(ctx, s.buildGeneration(req, chunks))
	if err != nil {
		return nil, err
	}

	s.persistExchange(ctx, sessionID, req, response)
	return &domain.ChatResult{
		SessionID:     sessionID,
		Response:      response,
		ContextChunks: len(chunks),
	}, nil
}

// StreamChat emits a session event, one chunk event per model fragment
// and a final done event carrying the accumulated text. A disconnected
// client stops the stream silently; whatever was generated so far is
// still persisted.
func (s *ChatService) StreamChat(ctx context.Context, req domain.ChatRequest, emit func(domain.StreamEvent) error) error {
	if err := validateChatRequest(req); err != nil {
		return err
	}

	sessionID := s.resolveSession(ctx, req)
	if err := emit(domain.StreamEvent{Type: domain.EventSession, SessionID: sessionID}); err != nil {
		return nil
	}

	chunks := s.retrieveContext(ctx, req)

	full, err := s.generator.GenerateStream(ctx, s.buildGeneration(req, chunks), func(delta string) error {
		return emit(domain.StreamEvent{Type: domain.EventChunk, Content: delta})
	})
	if err != nil {
		if domain.IsKind(err, domain.ErrClientGone) {
			s.logger.Info("stream client disconnected",
				"session_id", sessionID,
				"area", req.Area,
				"generated_chars", len(full),
			)
			if full != "" {
				s.persistExchange(ctx, sessionID, req, full)
			}
			return nil
		}
		return err
	}

	s.persistExchange(ctx, sessionID, req, full)
	if err := emit(domain.StreamEvent{Type: domain.EventDone, SessionID: sessionID, Content: full}); err != nil {
		return nil
	}
	return nil
}

func validateChatRequest(req domain.ChatRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return domain.WrapError("chat", "validate prompt", domain.ErrValidation)
	}
	if req.Area == "" || req.Agent.Model == "" {
		return domain.WrapError("chat", "validate area", domain.ErrValidation)
	}
	return nil
}

// resolveSession never fails a chat turn. If the transcript store cannot
// mint a session the turn proceeds under a local id and only history is
// lost.
func (s *ChatService) resolveSession(ctx context.Context, req domain.ChatRequest) string {
	if req.SessionID != "" {
		return req.SessionID
	}
	id, err := s.transcripts.CreateSession(ctx, req.Area)
	if err != nil {
		s.logger.Warn("session creation failed, continuing without history",
			"area", req.Area,
			"error", err,
		)
		return uuid.NewString()
	}
	return id
}

func (s *ChatService) retrieveContext(ctx context.Context, req domain.ChatRequest) []domain.RetrievedChunk {
	index, ok := s.registry.VectorIndex()
	if !ok {
		s.logger.Warn("vector index unavailable, answering without context", "area", req.Area)
		return nil
	}

	chunks, err := index.Search(ctx, req.Prompt, req.Area, retrievalTopK)
	if err != nil {
		s.logger.Warn("context retrieval failed, answering without context",
			"area", req.Area,
			"error", err,
		)
		return nil
	}
	return chunks
}

func (s *ChatService) buildGeneration(req domain.ChatRequest, chunks []domain.RetrievedChunk) domain.GenerationRequest {
	return domain.GenerationRequest{
		Model:       req.Agent.Model,
		Prompt:      buildPrompt(req.Prompt, chunks),
		System:      req.Agent.SystemPrompt,
		Temperature: req.Agent.Temperature,
		MaxTokens:   req.Agent.MaxTokens,
	}
}

func buildPrompt(question string, chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return question
	}

	var sb strings.Builder
	sb.WriteString(contextPreamble)
	sb.WriteString("\n\n")
	for idx, chunk := range chunks {
		sb.WriteString(fmt.Sprintf("[Source %d: %s, relevance %.0f%%]\n", idx+1, chunk.Filename, chunk.Score*100))
		sb.WriteString(truncateSnippet(chunk.Content, contextSnippetMax))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}

func truncateSnippet(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

func (s *ChatService) persistExchange(ctx context.Context, sessionID string, req domain.ChatRequest, response string) {
	// The request context may already be canceled when the client hung up
	// mid-stream; the exchange is still worth keeping.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.transcripts.AppendExchange(persistCtx, sessionID, req.Area, req.Prompt, response); err != nil {
		s.logger.Warn("transcript persistence failed",
			"session_id", sessionID,
			"area", req.Area,
			"error", err,
		)
	}
}
