package perception

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"floodguard/internal/logging"
)

// GeminiClient answers through the Google GenAI SDK. A genai client is built
// per call because the key belongs to the caller, not the server.
type GeminiClient struct {
	cfg        ModelConfig
	httpClient *http.Client
}

// NewGeminiClient creates a Gemini model client.
func NewGeminiClient(cfg ModelConfig) *GeminiClient {
	cfg = cfg.withDefaults("gemini-2.5-flash", "")
	return &GeminiClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Provider implements Model.
func (c *GeminiClient) Provider() Provider { return ProviderGemini }

// toGeminiContents maps conversation roles onto Gemini's user/model roles.
func toGeminiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

// Infer implements Model.
func (c *GeminiClient) Infer(ctx context.Context, messages []Message, creds Credentials) (string, error) {
	apiKey := creds.GeminiKey
	if apiKey == "" {
		return "", ErrMissingCredentials
	}

	start := time.Now()
	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return "", fmt.Errorf("failed to create GenAI client: %w", err)
	}

	system, convo := splitSystem(messages)
	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.cfg.Temperature)),
		MaxOutputTokens: int32(c.cfg.MaxTokens),
	}
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	logging.APIDebug("[Gemini] Infer: model=%s messages=%d", c.cfg.Model, len(convo))

	resp, err := client.Models.GenerateContent(ctx, c.cfg.Model, toGeminiContents(convo), genCfg)
	if err != nil {
		logging.APIError("[Gemini] Infer failed after %v: %v", time.Since(start), err)
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	logging.API("[Gemini] Infer: completed in %v response_len=%d", time.Since(start), len(text))
	return text, nil
}
