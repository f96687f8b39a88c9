package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Validation errors
var (
	ErrMissingDataPath          = errors.New("data.projects_csv is required")
	ErrMissingAddr              = errors.New("server.addr is required")
	ErrInvalidProvider          = errors.New("llm.provider must be one of: anthropic, openai, gemini")
	ErrInvalidHistory           = errors.New("chat.max_history must be at least 2")
	ErrWindowExceedsHistory     = errors.New("chat.context_window cannot exceed chat.max_history")
	ErrInvalidMaxAttempts       = errors.New("news.max_attempts must be at least 1")
	ErrInvalidBackoffMultiplier = errors.New("news.multiplier must be >= 1.0")
	ErrInvalidMaxResults        = errors.New("news.max_results must be at least 1")
	ErrNoUserAgents             = errors.New("news.user_agents must not be empty")
	ErrInvalidVectorProvider    = errors.New("vector.provider must be one of: openai, genai, keyword")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config holds all floodguard configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	LLM     LLMConfig     `yaml:"llm"`
	Chat    ChatConfig    `yaml:"chat"`
	Session SessionConfig `yaml:"session"`
	News    NewsConfig    `yaml:"news"`
	Vector  VectorConfig  `yaml:"vector"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP/websocket listener.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	CORSOrigins  []string `yaml:"cors_origins"`
	ReadTimeout  string   `yaml:"read_timeout"`
	WriteTimeout string   `yaml:"write_timeout"`
}

// DataConfig points at the project dataset.
type DataConfig struct {
	ProjectsCSV string `yaml:"projects_csv"`
}

// LLMConfig configures the language model used for answers.
// Keys here are only used by the CLI; websocket callers bring their own.
type LLMConfig struct {
	Provider        string  `yaml:"provider"` // anthropic, openai, gemini
	Model           string  `yaml:"model"`
	BaseURL         string  `yaml:"base_url"`
	Timeout         string  `yaml:"timeout"`
	Temperature     float64 `yaml:"temperature"`
	MaxTokens       int     `yaml:"max_tokens"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string  `yaml:"openai_api_key"`
	GeminiAPIKey    string  `yaml:"gemini_api_key"`
}

// ChatConfig configures conversation turns.
type ChatConfig struct {
	MaxHistory    int `yaml:"max_history"`
	ContextWindow int `yaml:"context_window"`
	NewsResults   int `yaml:"news_results"`
	SearchLimit   int `yaml:"search_limit"`
}

// SessionConfig configures session lifecycle. A zero TTL keeps sessions for
// the life of the process.
type SessionConfig struct {
	TTL           string `yaml:"ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

// NewsConfig configures the external article search.
type NewsConfig struct {
	SearchURL          string   `yaml:"search_url"`
	MaxAttempts        int      `yaml:"max_attempts"`
	BaseDelay          string   `yaml:"base_delay"`
	Multiplier         float64  `yaml:"multiplier"`
	AttemptTimeout     string   `yaml:"attempt_timeout"`
	InsecureSkipVerify bool     `yaml:"insecure_skip_verify"`
	RatePerSecond      float64  `yaml:"rate_per_second"` // 0 disables pacing
	MaxResults         int      `yaml:"max_results"`
	UserAgents         []string `yaml:"user_agents"`
	AllowedDomains     []string `yaml:"allowed_domains"`
	Feeds              []string `yaml:"feeds"`
	FeedKeywords       []string `yaml:"feed_keywords"`
}

// VectorConfig configures the optional semantic index.
type VectorConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // openai, genai, keyword
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, console
	Categories map[string]bool `yaml:"categories"`
}

// DefaultUserAgents is the identity pool rotated across search attempts.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8000",
			CORSOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
			ReadTimeout:  "30s",
			WriteTimeout: "60s",
		},

		Data: DataConfig{
			ProjectsCSV: "data/flood_control_projects.csv",
		},

		LLM: LLMConfig{
			Provider:    "anthropic",
			Model:       "claude-sonnet-4-20250514",
			Timeout:     "120s",
			Temperature: 0.7,
			MaxTokens:   2048,
		},

		Chat: ChatConfig{
			MaxHistory:    12,
			ContextWindow: 8,
			NewsResults:   3,
			SearchLimit:   100,
		},

		Session: SessionConfig{
			TTL:           "24h",
			SweepInterval: "10m",
		},

		News: NewsConfig{
			SearchURL:          "https://html.duckduckgo.com/html/",
			MaxAttempts:        3,
			BaseDelay:          "1s",
			Multiplier:         2,
			AttemptTimeout:     "30s",
			InsecureSkipVerify: true,
			RatePerSecond:      2,
			MaxResults:         5,
			UserAgents:         append([]string(nil), DefaultUserAgents...),
			AllowedDomains: []string{
				"rappler", "inquirer", "philstar", "gma", "abs-cbn", "manila",
				"philippine", "dpwh", "gov.ph", "news", "dw.com", "asia",
			},
			Feeds: []string{
				"https://www.rappler.com/feed/",
				"https://www.philstar.com/rss/headlines",
				"https://newsinfo.inquirer.net/feed",
			},
			FeedKeywords: []string{"flood", "dpwh", "infrastructure"},
		},

		Vector: VectorConfig{
			Enabled:  true,
			Provider: "keyword",
			Model:    "text-embedding-3-small",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults;
// environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("FLOODGUARD_PROJECTS_CSV"); path != "" {
		c.Data.ProjectsCSV = path
	}
	if addr := os.Getenv("FLOODGUARD_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("FLOODGUARD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if provider := os.Getenv("FLOODGUARD_LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}
	if origins := os.Getenv("FLOODGUARD_CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.AnthropicAPIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.OpenAIAPIKey = key
		if c.Vector.APIKey == "" && c.Vector.Provider == "openai" {
			c.Vector.APIKey = key
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.GeminiAPIKey = key
		if c.Vector.APIKey == "" && c.Vector.Provider == "genai" {
			c.Vector.APIKey = key
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 120*time.Second)
}

// GetReadTimeout returns the HTTP read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 60*time.Second)
}

// GetSessionTTL returns the session TTL. Zero disables eviction.
func (c *Config) GetSessionTTL() time.Duration {
	return parseDuration(c.Session.TTL, 0)
}

// GetSweepInterval returns how often expired sessions are evicted.
func (c *Config) GetSweepInterval() time.Duration {
	return parseDuration(c.Session.SweepInterval, 10*time.Minute)
}

// GetBaseDelay returns the first retry delay of the news search.
func (c *Config) GetBaseDelay() time.Duration {
	return parseDuration(c.News.BaseDelay, time.Second)
}

// GetAttemptTimeout returns the per-attempt news search timeout.
func (c *Config) GetAttemptTimeout() time.Duration {
	return parseDuration(c.News.AttemptTimeout, 30*time.Second)
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"anthropic", "openai", "gemini"}

// ValidVectorProviders lists the supported embedding backends.
var ValidVectorProviders = []string{"openai", "genai", "keyword"}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Data.ProjectsCSV == "" {
		return ErrMissingDataPath
	}
	if c.Server.Addr == "" {
		return ErrMissingAddr
	}
	if !contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("%w: got %q", ErrInvalidProvider, c.LLM.Provider)
	}

	if c.Chat.MaxHistory < 2 {
		return ErrInvalidHistory
	}
	if c.Chat.ContextWindow > c.Chat.MaxHistory {
		return ErrWindowExceedsHistory
	}

	if c.News.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.News.Multiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}
	if c.News.MaxResults < 1 {
		return ErrInvalidMaxResults
	}
	if len(c.News.UserAgents) == 0 {
		return ErrNoUserAgents
	}

	if c.Vector.Enabled && !contains(ValidVectorProviders, c.Vector.Provider) {
		return fmt.Errorf("%w: got %q", ErrInvalidVectorProvider, c.Vector.Provider)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return ErrInvalidLogLevel
	}

	return nil
}

// APIKeyFor returns the configured key for an LLM provider.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case "anthropic":
		return c.LLM.AnthropicAPIKey
	case "openai":
		return c.LLM.OpenAIAPIKey
	case "gemini":
		return c.LLM.GeminiAPIKey
	}
	return ""
}
