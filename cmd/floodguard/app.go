package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"floodguard/internal/chat"
	"floodguard/internal/config"
	"floodguard/internal/embedding"
	"floodguard/internal/logging"
	"floodguard/internal/metrics"
	"floodguard/internal/perception"
	"floodguard/internal/projects"
	"floodguard/internal/retrieval"
	"floodguard/internal/session"
	"floodguard/internal/store"
	"floodguard/internal/tools"
	"floodguard/internal/tools/dataset"
	"floodguard/internal/tools/research"
)

// modelRetries bounds provider-side retries of rate limits and 5xx responses.
const modelRetries = 2

// app holds the services shared by every command.
type app struct {
	cfg        *config.Config
	metrics    *metrics.Metrics
	engine     *projects.Engine
	classifier *perception.Classifier
	news       *retrieval.Orchestrator
	index      *store.VectorIndex // nil when vector.enabled is false
	registry   *tools.Registry

	// indexed flips once the project collection has been loaded.
	indexed atomic.Bool
}

// newApp loads the dataset and wires the services that do not need a model.
func newApp(c *config.Config) (*app, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "newApp")
	defer timer.Stop()

	records, err := projects.LoadCSV(c.Data.ProjectsCSV)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	logging.Boot("Loaded %d projects from %s", len(records), c.Data.ProjectsCSV)

	a := &app{
		cfg:        c,
		metrics:    metrics.New(),
		engine:     projects.NewEngine(records),
		classifier: perception.NewClassifier(),
	}
	a.news = newOrchestrator(c, a.metrics)

	if c.Vector.Enabled {
		engine, err := embedding.NewEngine(embedding.Config{
			Provider: c.Vector.Provider,
			Model:    c.Vector.Model,
			APIKey:   c.Vector.APIKey,
			BaseURL:  c.Vector.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding engine: %w", err)
		}
		a.index, err = store.NewVectorIndex(engine)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector index: %w", err)
		}
	}

	a.registry = tools.NewRegistry()
	if err := dataset.RegisterAll(a.registry, a.engine); err != nil {
		a.Close()
		return nil, err
	}
	var index research.Index
	if a.index != nil {
		index = a.index
	}
	if err := research.RegisterAll(a.registry, a.news, index); err != nil {
		a.Close()
		return nil, err
	}
	logging.Boot("Registered %d tools", a.registry.Count())
	return a, nil
}

// Close releases the vector index.
func (a *app) Close() {
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			logging.BootWarn("closing vector index: %v", err)
		}
	}
}

// indexProjects loads every record into the projects collection. Failures are
// logged; the server keeps answering from the dataset.
func (a *app) indexProjects(ctx context.Context) {
	if a.index == nil {
		return
	}
	n, err := a.index.IndexProjects(ctx, a.engine.Records(), store.DefaultBatchSize)
	if err != nil {
		if ctx.Err() == nil {
			logging.StoreWarn("project indexing stopped after %d documents: %v", n, err)
		}
		return
	}
	a.indexed.Store(true)
}

// vectorReady reports whether semantic search over projects is available.
func (a *app) vectorReady() bool {
	return a.index != nil && a.indexed.Load()
}

// pipeline builds a conversation pipeline with a fresh session store.
func (a *app) pipeline() (*chat.Pipeline, *session.Store, error) {
	model, err := perception.NewModel(modelConfig(a.cfg))
	if err != nil {
		return nil, nil, err
	}
	sessions := session.NewStore(session.Config{
		MaxHistory: a.cfg.Chat.MaxHistory,
		TTL:        a.cfg.GetSessionTTL(),
	})

	opts := []chat.Option{
		chat.WithNews(a.news),
		chat.WithMetrics(a.metrics),
	}
	if a.index != nil {
		opts = append(opts, chat.WithArticleIndex(a.index))
	}
	p := chat.New(a.engine, a.classifier, sessions, model, chat.Config{
		ContextWindow: a.cfg.Chat.ContextWindow,
		NewsResults:   a.cfg.Chat.NewsResults,
		SearchLimit:   a.cfg.Chat.SearchLimit,
	}, opts...)
	return p, sessions, nil
}

func modelConfig(c *config.Config) perception.ModelConfig {
	return perception.ModelConfig{
		Provider:    perception.Provider(c.LLM.Provider),
		Model:       c.LLM.Model,
		BaseURL:     c.LLM.BaseURL,
		Timeout:     c.GetLLMTimeout(),
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		MaxRetries:  modelRetries,
	}
}

// credentials are the keys from config and environment, used by the CLI.
func credentials(c *config.Config) perception.Credentials {
	return perception.Credentials{
		AnthropicKey: c.LLM.AnthropicAPIKey,
		OpenAIKey:    c.LLM.OpenAIAPIKey,
		GeminiKey:    c.LLM.GeminiAPIKey,
	}
}

func newOrchestrator(c *config.Config, m *metrics.Metrics) *retrieval.Orchestrator {
	web := retrieval.NewDuckDuckGo(retrieval.DuckDuckGoConfig{
		SearchURL:          c.News.SearchURL,
		UserAgents:         c.News.UserAgents,
		AllowedDomains:     c.News.AllowedDomains,
		AttemptTimeout:     c.GetAttemptTimeout(),
		InsecureSkipVerify: c.News.InsecureSkipVerify,
		RatePerSecond:      c.News.RatePerSecond,
	})
	feeds := retrieval.NewHTTPFeedSource(c.GetAttemptTimeout(), c.News.UserAgents[0])
	return retrieval.New(web, feeds, retrieval.Config{
		Backoff: retrieval.Backoff{
			MaxAttempts: c.News.MaxAttempts,
			BaseDelay:   c.GetBaseDelay(),
			Multiplier:  c.News.Multiplier,
		},
		MaxResults:   c.News.MaxResults,
		Feeds:        c.News.Feeds,
		FeedKeywords: c.News.FeedKeywords,
	}, retrieval.WithMetrics(m))
}
