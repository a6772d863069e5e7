// Package openaicompat provides a completion client for any server
// exposing an OpenAI-style chat completions endpoint, hosted or local
// (llama.cpp, vLLM, LM Studio and friends).
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
	"github.com/custodia-labs/shelva-cli/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.CompletionClient = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8000"
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond caps the call rate so "always" mode does
	// not hammer a local inference server.
	DefaultRequestsPerSecond = 2
)

// Config holds configuration for the chat completions client.
type Config struct {
	// BaseURL is the endpoint base; the client posts to
	// BaseURL + "/chat/completions" (default: http://localhost:8000).
	BaseURL string

	// Model is the model name. Optional: single-model servers ignore it.
	Model string

	// APIKey is sent as a bearer token when set. Local servers usually
	// need none.
	APIKey string

	// Timeout bounds one completion call (default: 30s).
	Timeout time.Duration

	// MaxOutputTokens bounds the completion length when positive.
	MaxOutputTokens int

	// RequestsPerSecond caps the call rate (default: 2).
	RequestsPerSecond float64
}

// Client asks an OpenAI-compatible chat endpoint for completions.
type Client struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
	tokens  int
	limiter *rate.Limiter
}

// chatRequest is the /chat/completions request format. Temperature and
// stream are always serialized: classification wants deterministic
// output and a single response body.
type chatRequest struct {
	Model               string        `json:"model,omitempty"`
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
	Temperature         float64       `json:"temperature"`
	Stream              bool          `json:"stream"`
}

// chatMessage is the chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the /chat/completions response format. Text and
// OutputText cover legacy completion servers and newer response
// shapes that put the text elsewhere.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	OutputText string `json:"output_text"`
}

// NewClient creates a chat completions client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		tokens:  cfg.MaxOutputTokens,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Complete sends one prompt and returns the raw completion text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit wait: %v", domain.ErrCompletionTransport, err)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		MaxCompletionTokens: c.tokens,
		Temperature:         0,
		Stream:              false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", domain.ErrCompletionTransport, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", domain.ErrCompletionTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: send request: %v", domain.ErrCompletionTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrCompletionTransport, err)
	}

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("%w: chat endpoint error (status %d): %s",
			domain.ErrCompletionTransport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrCompletionTransport, err)
	}

	if len(chatResp.Choices) == 0 {
		if chatResp.OutputText != "" {
			return chatResp.OutputText, nil
		}
		return "", fmt.Errorf("%w: empty completion response", domain.ErrCompletionTransport)
	}

	choice := chatResp.Choices[0]
	if choice.Message.Content != "" {
		return choice.Message.Content, nil
	}
	if choice.Text != "" {
		return choice.Text, nil
	}
	return chatResp.OutputText, nil
}

// Provider names the backing provider for audit reasons.
func (c *Client) Provider() string {
	return domain.LLMProviderOpenAI.String()
}

// Model names the configured model, or empty for single-model servers.
func (c *Client) Model() string {
	return c.model
}
