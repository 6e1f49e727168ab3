package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"content-rag/internal/config"
	"content-rag/internal/models"
)

// Client is the text-generation collaborator.
type Client struct {
	llm         llms.Model
	temperature float64
}

// NewClient builds a client for the configured provider.
func NewClient(llmConfig *config.LLMConfig) (*Client, error) {
	log.Debug().Str("provider", llmConfig.Provider).Str("model", llmConfig.Model).Msg("Creating llm client")

	var (
		llm llms.Model
		err error
	)
	switch llmConfig.Provider {
	case "ollama":
		llm, err = ollama.New(
			ollama.WithServerURL(llmConfig.BaseURL),
			ollama.WithModel(llmConfig.Model),
		)
	default:
		llm, err = openai.New(
			openai.WithBaseURL(llmConfig.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}

	return NewWithModel(llm, llmConfig.Temperature), nil
}

// NewWithModel wraps an existing langchaingo model.
func NewWithModel(llm llms.Model, temperature float64) *Client {
	return &Client{llm: llm, temperature: temperature}
}

// Generate sends an optional system prompt and a user prompt and returns the
// first choice's text. Transport failures wrap models.ErrExternalService; an
// empty reply wraps models.ErrMalformedResponse.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userPrompt))

	var opts []llms.CallOption
	if c.temperature > 0 {
		opts = append(opts, llms.WithTemperature(c.temperature))
	}

	res, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrExternalService, err)
	}
	if res == nil || len(res.Choices) == 0 || res.Choices[0] == nil {
		return "", fmt.Errorf("%w: %w", models.ErrMalformedResponse, errors.New("no choices returned"))
	}

	return res.Choices[0].Content, nil
}
