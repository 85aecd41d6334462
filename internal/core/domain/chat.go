package domain

import "time"

// AgentConfig is the per-area model configuration loaded at startup.
type AgentConfig struct {
	Model        string  `yaml:"model" json:"model"`
	SystemPrompt string  `yaml:"system_prompt" json:"system_prompt"`
	Temperature  float64 `yaml:"temperature" json:"temperature"`
	MaxTokens    int     `yaml:"max_tokens" json:"max_tokens"`
}

// ChatRequest is one user turn addressed to an area's agent.
type ChatRequest struct {
	Area      string
	Prompt    string
	SessionID string
	Agent     AgentConfig
}

// ChatResult is the buffered-mode outcome.
type ChatResult struct {
	SessionID     string `json:"session_id,omitempty"`
	Response      string `json:"response"`
	ContextChunks int    `json:"context_chunks"`
}

// GenerationRequest is what the LLM generate call needs.
type GenerationRequest struct {
	Model       string
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
}

type StreamEventType string

const (
	EventSession StreamEventType = "session"
	EventChunk   StreamEventType = "chunk"
	EventDone    StreamEventType = "done"
	EventError   StreamEventType = "error"
)

// StreamEvent is one frame of the chat streaming protocol: a session
// announcement, an incremental fragment, the final accumulated text, or a
// terminal error.
type StreamEvent struct {
	Type      StreamEventType `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// TranscriptMessage is one persisted line of a chat session.
type TranscriptMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
