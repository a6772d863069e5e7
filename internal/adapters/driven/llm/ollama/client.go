// Package ollama provides a completion client for a local Ollama
// instance using the generate API.
package ollama

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
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond caps the call rate so "always" mode does
	// not hammer the local server.
	DefaultRequestsPerSecond = 2
)

// Config holds configuration for the Ollama client.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout bounds one completion call (default: 30s).
	Timeout time.Duration

	// MaxOutputTokens bounds the completion length when positive.
	MaxOutputTokens int

	// RequestsPerSecond caps the call rate (default: 2).
	RequestsPerSecond float64
}

// Client asks a local Ollama server for completions.
type Client struct {
	client  *http.Client
	baseURL string
	model   string
	tokens  int
	limiter *rate.Limiter
}

// generateRequest is the /api/generate request format. Stream is
// always serialized so the server answers with a single body.
type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

// options holds generation parameters. Temperature is always
// serialized: classification wants deterministic output.
type options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// generateResponse is the /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewClient creates an Ollama completion client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
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
		tokens:  cfg.MaxOutputTokens,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Complete sends one prompt and returns the raw completion text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit wait: %v", domain.ErrCompletionTransport, err)
	}

	reqBody := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: options{
			Temperature: 0,
			NumPredict:  c.tokens,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", domain.ErrCompletionTransport, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", domain.ErrCompletionTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: send request: %v", domain.ErrCompletionTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("%w: ollama error (status %d): failed to read response",
				domain.ErrCompletionTransport, resp.StatusCode)
		}
		return "", fmt.Errorf("%w: ollama error (status %d): %s",
			domain.ErrCompletionTransport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrCompletionTransport, err)
	}

	return genResp.Response, nil
}

// Provider names the backing provider for audit reasons.
func (c *Client) Provider() string {
	return domain.LLMProviderOllama.String()
}

// Model names the configured model.
func (c *Client) Model() string {
	return c.model
}
