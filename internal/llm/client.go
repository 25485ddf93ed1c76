// Package llm talks to OpenAI-compatible multimodal chat-completions
// endpoints and turns page images into raw structured text.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/insightpdf/insightpdf/internal/domain"
)

const (
	maxTokens   = 4000
	temperature = 0.1
)

// Client sends page images to the configured provider endpoint.
// The active ModelConfig is injected per call, never read from global state.
type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger

	// retryBackoff overrides the policy's initial backoff in tests.
	retryBackoff time.Duration
}

// NewClient creates a model client. The per-attempt deadline comes from the
// ModelConfig at call time, so the underlying http.Client carries no timeout.
func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{},
		logger:     logger.With().Str("component", "llm").Logger(),
	}
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string for system, []ContentPart for user
}

// ContentPart represents a part of message content (text or image).
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents an image URL in the message.
type ImageURL struct {
	URL string `json:"url"`
}

// Request represents the chat-completions request body.
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ResponseFormat forces JSON output on providers that support it.
type ResponseFormat struct {
	Type string `json:"type"`
}

// Response represents the chat-completions response body.
type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice represents a single completion choice.
type Choice struct {
	Message      ChoiceMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// ChoiceMessage holds the assistant text of one choice.
type ChoiceMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Analyze sends one page image plus the prompt to the configured endpoint and
// returns the raw response text. Transient failures are retried with bounded
// exponential backoff; credential rejections fail immediately.
func (c *Client) Analyze(ctx context.Context, page *domain.Page, cfg domain.ModelConfig, prompt string) (string, error) {
	if cfg.APIKey == "" {
		return "", domain.ModelAuthError(
			fmt.Sprintf("no API key configured for provider %q", cfg.Provider), nil)
	}

	body, err := json.Marshal(c.buildRequest(page, cfg, prompt))
	if err != nil {
		return "", domain.ModelUnavailableError("failed to marshal request", err)
	}

	policy := NewRetryPolicy(cfg.MaxAttempts, c.logger)
	if c.retryBackoff > 0 {
		policy.InitialBackoff = c.retryBackoff
	}
	return policy.Do(ctx, func(ctx context.Context) (string, error) {
		return c.attempt(ctx, cfg, body)
	})
}

// attempt performs a single request against the provider endpoint.
func (c *Client) attempt(ctx context.Context, cfg domain.ModelConfig, body []byte) (string, error) {
	attemptCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	url := strings.TrimSuffix(cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", domain.ModelUnavailableError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Caller cancellation is not retryable; a per-attempt deadline is.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", TransientTimeout(err)
		}
		return "", Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		statusErr := fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return "", domain.ModelAuthError("provider rejected credentials", statusErr)
		case retryableStatus(resp.StatusCode):
			return "", Transient(statusErr)
		default:
			return "", domain.ModelUnavailableError("provider rejected request", statusErr)
		}
	}

	var parsed Response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", domain.MalformedResponseError("failed to decode completion envelope", err)
	}
	if len(parsed.Choices) == 0 {
		return "", domain.MalformedResponseError("completion contained no choices", nil)
	}

	return parsed.Choices[0].Message.Content, nil
}

// buildRequest constructs the chat-completions body with the page image
// embedded as a base64 data URI.
func (c *Client) buildRequest(page *domain.Page, cfg domain.ModelConfig, prompt string) *Request {
	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(page.Image)

	messages := make([]Message, 0, 2)
	req := &Request{
		Model:       cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	// DashScope compatible-mode supports forced JSON and benefits from a
	// system message pinning the output language.
	if cfg.Provider == "qwen" {
		messages = append(messages, Message{Role: "system", Content: qwenSystemPrompt})
		req.ResponseFormat = &ResponseFormat{Type: "json_object"}
		req.Temperature = 0
	}

	messages = append(messages, Message{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
		},
	})

	req.Messages = messages
	return req
}
