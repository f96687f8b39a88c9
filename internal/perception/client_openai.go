package perception

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"floodguard/internal/logging"
)

// OpenAIRequest is the chat completions request body.
type OpenAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// OpenAIResponse is the subset of the chat completions response we read.
type OpenAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAIClient calls an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	cfg        ModelConfig
	httpClient *http.Client
}

// NewOpenAIClient creates a client; the API key comes with each call.
func NewOpenAIClient(cfg ModelConfig) *OpenAIClient {
	cfg = cfg.withDefaults("gpt-4o", "https://api.openai.com/v1")
	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Provider implements Model.
func (c *OpenAIClient) Provider() Provider { return ProviderOpenAI }

// Infer implements Model.
func (c *OpenAIClient) Infer(ctx context.Context, messages []Message, creds Credentials) (string, error) {
	apiKey := creds.OpenAIKey
	if apiKey == "" {
		return "", ErrMissingCredentials
	}

	start := time.Now()
	logging.APIDebug("[OpenAI] Infer: model=%s messages=%d", c.cfg.Model, len(messages))

	jsonData, err := json.Marshal(OpenAIRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := doWithRetry(ctx, c.httpClient, c.cfg.MaxRetries, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+apiKey)
		return req, nil
	})
	if err != nil {
		logging.APIError("[OpenAI] Infer failed after %v: %v", time.Since(start), err)
		return "", err
	}

	var resp OpenAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	logging.API("[OpenAI] Infer: completed in %v response_len=%d", time.Since(start), len(text))
	return text, nil
}
