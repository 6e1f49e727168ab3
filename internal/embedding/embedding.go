package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"content-rag/internal/config"
	"content-rag/internal/models"
	"content-rag/internal/vector"
)

// Embedder turns text into vectors of a fixed dimension. Every vector it
// returns has exactly Dimension() components, whatever the service emits.
type Embedder struct {
	client      embeddings.Embedder
	dimension   int
	concurrency int
	limiter     *rate.Limiter
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithConcurrency bounds the number of in-flight calls made by EmbedAll.
func WithConcurrency(n int) Option {
	return func(e *Embedder) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRateLimit paces outbound calls to rps requests per second. Zero disables pacing.
func WithRateLimit(rps float64) Option {
	return func(e *Embedder) {
		if rps > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// New wraps a langchaingo embedder. dimension must be positive.
func New(client embeddings.Embedder, dimension int, opts ...Option) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("embedding client is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}
	e := &Embedder{
		client:      client,
		dimension:   dimension,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewFromConfig builds the langchaingo client for the configured provider.
func NewFromConfig(llmCfg *config.LLMConfig, ragCfg *config.RAGConfig) (*Embedder, error) {
	log.Debug().Interface("config", map[string]string{
		"provider":        llmCfg.Provider,
		"base_url":        llmCfg.BaseURL,
		"embedding_model": llmCfg.Model,
	}).Msg("Creating embedder")

	var client embeddings.EmbedderClient
	switch llmCfg.Provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(llmCfg.BaseURL),
			ollama.WithModel(llmCfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama: %w", err)
		}
		client = llm
	default:
		llm, err := openai.New(
			openai.WithBaseURL(llmCfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmCfg.Key, "Bearer ")),
			openai.WithModel(llmCfg.Model),
			openai.WithEmbeddingModel(llmCfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai: %w", err)
		}
		client = llm
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return New(embedder, ragCfg.EmbeddingDimension,
		WithConcurrency(ragCfg.EmbedConcurrency),
		WithRateLimit(ragCfg.EmbedRateLimit),
	)
}

// Dimension returns the target vector length.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed returns the dimension-normalized embedding of text. On failure it
// returns the zero Vector and an error wrapping models.ErrEmbedding.
func (e *Embedder) Embed(ctx context.Context, text string) (vector.Vector, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return vector.Vector{}, fmt.Errorf("%w: %w", models.ErrEmbedding, err)
		}
	}

	raw, err := e.client.EmbedQuery(ctx, text)
	if err != nil {
		return vector.Vector{}, fmt.Errorf("%w: %w: %w", models.ErrEmbedding, models.ErrExternalService, err)
	}
	if len(raw) == 0 {
		return vector.Vector{}, fmt.Errorf("%w: service returned an empty vector", models.ErrEmbedding)
	}
	if len(raw) != e.dimension {
		log.Debug().Int("native", len(raw)).Int("target", e.dimension).Msg("Fitting embedding to target dimension")
	}

	return vector.Fit(raw, e.dimension), nil
}

// EmbedAll embeds texts with at most the configured number of concurrent
// calls. Result i always belongs to texts[i]. The first failure cancels the
// remaining calls and is returned with its position.
func (e *Embedder) EmbedAll(ctx context.Context, texts []string) ([]vector.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([]vector.Vector, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, text := range texts {
		g.Go(func() error {
			v, err := e.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			out[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
