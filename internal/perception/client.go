package perception

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Errors returned by model clients.
var (
	ErrMissingCredentials = errors.New("missing API key for provider")
	ErrUnknownProvider    = errors.New("unknown LLM provider")
	ErrEmptyCompletion    = errors.New("no completion returned")
)

// Provider names a language model vendor.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
)

// Message roles understood by every client.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role/content pair of model input.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Credentials are supplied by the caller on every turn.
type Credentials struct {
	AnthropicKey string `json:"anthropic_key,omitempty"`
	OpenAIKey    string `json:"openai_key,omitempty"`
	GeminiKey    string `json:"gemini_key,omitempty"`
}

// For returns the key for provider.
func (c Credentials) For(p Provider) string {
	switch p {
	case ProviderAnthropic:
		return c.AnthropicKey
	case ProviderOpenAI:
		return c.OpenAIKey
	case ProviderGemini:
		return c.GeminiKey
	}
	return ""
}

// Model answers a conversation. Implementations never retry on behalf of the
// caller beyond transient rate limiting.
type Model interface {
	Infer(ctx context.Context, messages []Message, creds Credentials) (string, error)
	Provider() Provider
}

// ModelConfig configures any provider client.
type ModelConfig struct {
	Provider    Provider
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	MaxRetries  int
}

func (c ModelConfig) withDefaults(model, baseURL string) ModelConfig {
	if c.Model == "" {
		c.Model = model
	}
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 2048
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// splitSystem separates system messages from the conversation.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

// retryable reports whether an HTTP status is worth another attempt.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// doWithRetry sends the request built by newReq, retrying rate limits and
// server errors with exponential backoff. The body of a successful response
// is returned.
func doWithRetry(ctx context.Context, client *http.Client, maxRetries int, newReq func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, time.Duration(1<<uint(attempt-1))*time.Second); err != nil {
				return nil, err
			}
		}

		req, err := newReq()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}
		lastErr = fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncate(string(body), 300))
		if !retryable(resp.StatusCode) {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
