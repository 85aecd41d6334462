package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mfandino/area-assistant/internal/core/domain"
	"github.com/mfandino/area-assistant/internal/infrastructure/resilience"
)

// Client generates completions against a local Ollama instance. Every
// call, buffered or streamed, goes through the shared circuit breaker so
// a struggling model fails fast instead of queueing requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker[string]
	logger     *slog.Logger
}

func New(baseURL string, breakerCfg resilience.Config, logger *slog.Logger) *Client {
	breakerCfg.Name = "ollama"
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		breaker:    resilience.NewBreaker[string](breakerCfg, logger),
		logger:     logger,
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	return c.breaker.Execute(ctx, func(callCtx context.Context) (string, error) {
		var response generateResponse
		err := c.postJSON(callCtx, "/api/generate", buildRequest(req, false), &response, "generate")
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(response.Response), nil
	})
}

// GenerateStream emits deltas as the model produces them and returns the
// accumulated text. An emit failure means the client hung up; the stream
// stops and the accumulated prefix is still returned with the error.
func (c *Client) GenerateStream(ctx context.Context, req domain.GenerationRequest, emit func(delta string) error) (string, error) {
	var accumulated strings.Builder

	result, err := c.breaker.Execute(ctx, func(callCtx context.Context) (string, error) {
		resp, err := c.post(callCtx, "/api/generate", buildRequest(req, true), "generate stream")
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			var frame generateResponse
			if err := json.Unmarshal([]byte(line), &frame); err != nil {
				return accumulated.String(), fmt.Errorf("decode stream frame: %w", err)
			}
			if frame.Response != "" {
				accumulated.WriteString(frame.Response)
				if err := emit(frame.Response); err != nil {
					return accumulated.String(), domain.WrapError("ollama", "emit delta", domain.ErrClientGone)
				}
			}
			if frame.Done {
				return accumulated.String(), nil
			}
		}
		if err := scanner.Err(); err != nil {
			if callCtx.Err() != nil {
				return accumulated.String(), callCtx.Err()
			}
			return accumulated.String(), fmt.Errorf("read stream: %w", err)
		}
		return accumulated.String(), nil
	})
	if err != nil {
		return accumulated.String(), err
	}
	return result, nil
}

func buildRequest(req domain.GenerationRequest, stream bool) generateRequest {
	return generateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: stream,
		Options: generateOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
}
