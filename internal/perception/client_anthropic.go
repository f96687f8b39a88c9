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

// AnthropicRequest is the Messages API request body.
type AnthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []AnthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

// AnthropicMessage is one conversation entry.
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnthropicResponse is the subset of the Messages API response we read.
type AnthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AnthropicClient calls the Anthropic Messages API directly.
type AnthropicClient struct {
	cfg        ModelConfig
	httpClient *http.Client
}

// NewAnthropicClient creates a client; the API key comes with each call.
func NewAnthropicClient(cfg ModelConfig) *AnthropicClient {
	cfg = cfg.withDefaults("claude-sonnet-4-20250514", "https://api.anthropic.com/v1")
	return &AnthropicClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Provider implements Model.
func (c *AnthropicClient) Provider() Provider { return ProviderAnthropic }

// Infer implements Model.
func (c *AnthropicClient) Infer(ctx context.Context, messages []Message, creds Credentials) (string, error) {
	apiKey := creds.AnthropicKey
	if apiKey == "" {
		return "", ErrMissingCredentials
	}

	start := time.Now()
	system, convo := splitSystem(messages)
	reqBody := AnthropicRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      system,
		Temperature: c.cfg.Temperature,
	}
	for _, m := range convo {
		reqBody.Messages = append(reqBody.Messages, AnthropicMessage{Role: m.Role, Content: m.Content})
	}
	logging.APIDebug("[Anthropic] Infer: model=%s messages=%d system_len=%d", c.cfg.Model, len(reqBody.Messages), len(system))

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := doWithRetry(ctx, c.httpClient, c.cfg.MaxRetries, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/messages", bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
		return req, nil
	})
	if err != nil {
		logging.APIError("[Anthropic] Infer failed after %v: %v", time.Since(start), err)
		return "", err
	}

	var resp AnthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}

	var result strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(result.String())
	if text == "" {
		return "", ErrEmptyCompletion
	}

	logging.API("[Anthropic] Infer: completed in %v response_len=%d", time.Since(start), len(text))
	return text, nil
}
