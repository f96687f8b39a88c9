// Package embedding provides vector embeddings for semantic search over
// projects and news. Backends: OpenAI (HTTP) and Google GenAI.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"floodguard/internal/logging"
)

// Provider names.
const (
	ProviderOpenAI  = "openai"
	ProviderGenAI   = "genai"
	ProviderKeyword = "keyword"
)

var (
	ErrMissingAPIKey       = errors.New("embedding API key is required")
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
	ErrDimensionMismatch   = errors.New("vectors must have the same length")
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed embeds a search query.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds documents for indexing.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	Name() string
}

// Config holds embedding engine configuration.
type Config struct {
	Provider string // openai, genai or keyword
	Model    string
	APIKey   string
	BaseURL  string
}

// NewEngine creates an embedding engine. The keyword provider has no engine:
// it returns (nil, nil) and callers fall back to term matching.
func NewEngine(cfg Config) (Engine, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "NewEngine")
	defer timer.Stop()

	logging.Embedding("Creating embedding engine with provider=%s model=%s", cfg.Provider, cfg.Model)

	var engine Engine
	var err error
	switch cfg.Provider {
	case ProviderKeyword, "":
		logging.Embedding("No embedding engine configured; keyword scoring will be used")
		return nil, nil
	case ProviderOpenAI:
		engine, err = NewOpenAIEngine(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderGenAI:
		engine, err = NewGenAIEngine(context.Background(), cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("%w: %s (use 'openai', 'genai' or 'keyword')", ErrUnsupportedProvider, cfg.Provider)
	}
	if err != nil {
		logging.Get(logging.CategoryEmbedding).Error("Failed to create embedding engine: %v", err)
		return nil, err
	}

	logging.Embedding("Embedding engine created: name=%s, dimensions=%d", engine.Name(), engine.Dimensions())
	return engine, nil
}

// CosineSimilarity returns a value in [-1, 1]; zero-magnitude vectors score 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}
	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}

// SimilarityResult is one ranked corpus entry.
type SimilarityResult struct {
	Index      int
	Similarity float64
}

// FindTopK returns the k corpus entries most similar to query, best first.
// Entries of the wrong dimension are skipped. Ties keep corpus order.
func FindTopK(query []float32, corpus [][]float32, k int) []SimilarityResult {
	if k <= 0 {
		k = 10
	}

	results := make([]SimilarityResult, 0, len(corpus))
	skipped := 0
	for i, vec := range corpus {
		sim, err := CosineSimilarity(query, vec)
		if err != nil {
			skipped++
			continue
		}
		results = append(results, SimilarityResult{Index: i, Similarity: sim})
	}
	if skipped > 0 {
		logging.Get(logging.CategoryEmbedding).Warn("FindTopK: skipped %d vectors due to dimension mismatch", skipped)
	}

	slices.SortStableFunc(results, func(a, b SimilarityResult) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return 0
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}
