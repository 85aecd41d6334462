package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/mfandino/area-assistant/internal/core/domain"
)

// Client talks to the external OCR sidecar over HTTP multipart upload.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type recognizeResponse struct {
	Success       bool   `json:"success"`
	ExtractedText string `json:"extractedText"`
	Error         string `json:"error,omitempty"`
}

func (c *Client) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", domain.WrapError("ocr", "build form", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", domain.WrapError("ocr", "build form", err)
	}
	if err := writer.Close(); err != nil {
		return "", domain.WrapError("ocr", "build form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recognize", &body)
	if err != nil {
		return "", domain.WrapError("ocr", "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", domain.WrapError("ocr", "call service", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.WrapError("ocr", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", domain.WrapError("ocr", "call service",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(raw, 200)))
	}

	var parsed recognizeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", domain.WrapError("ocr", "decode response", err)
	}
	if !parsed.Success {
		return "", domain.WrapError("ocr", "recognize",
			fmt.Errorf("service reported failure: %s", parsed.Error))
	}
	return parsed.ExtractedText, nil
}

func truncate(raw []byte, limit int) string {
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit])
}
