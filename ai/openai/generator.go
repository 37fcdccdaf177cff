package openai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/finrag/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrNoChoices is returned when the model response carries no completion.
var ErrNoChoices = errors.New("model returned no choices")

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client      llms.Model
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// newGenerator is an internal constructor that returns the concrete type.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	token := config.GeneratorToken
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken(token),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return newGeneratorWithModel(client, config), nil
}

// newGeneratorWithModel wraps an existing llms.Model.
func newGeneratorWithModel(client llms.Model, config *ai.Config) *Generator {
	return &Generator{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "openai-generator"),
	}
}

// NewGenerator creates a new answer generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	g, err := newGenerator(config)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Generate sends the prompt as a system and human message pair.
func (g *Generator) Generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	return GenerateWith(ctx, g.client, g.logger, prompt, g.temperature, g.maxTokens)
}

// GenerateWith runs a single-turn prompt against any langchaingo model.
// Shared with backends that only differ in client construction.
func GenerateWith(ctx context.Context, client llms.Model, logger *slog.Logger, prompt ai.Prompt, temperature float64, maxTokens int) (string, error) {
	content := make([]llms.MessageContent, 0, 2)
	if prompt.System != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(prompt.System)},
		})
	}
	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(prompt.User)},
	})

	opts := []llms.CallOption{
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	}
	if prompt.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	logger.Debug("generating completion", "prompt_length", len(prompt.User), "json", prompt.JSON)
	response, err := client.GenerateContent(ctx, content, opts...)
	if err != nil {
		logger.Error("failed to generate completion", "err", err)
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", ErrNoChoices
	}

	return response.Choices[0].Content, nil
}
