package anthropic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/finrag/ai"
	"github.com/poiesic/finrag/ai/openai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// Generator implements ai.Generator using Anthropic chat models.
type Generator struct {
	client      llms.Model
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// NewGenerator creates a generator for config.GeneratorModel.
// config.GeneratorHost overrides the API endpoint when set.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.GeneratorProvider != ai.ProviderAnthropic {
		return nil, fmt.Errorf("ai config: GeneratorProvider is %q, not %q", config.GeneratorProvider, ai.ProviderAnthropic)
	}

	opts := []anthropic.Option{
		anthropic.WithToken(config.GeneratorToken),
		anthropic.WithModel(config.GeneratorModel),
	}
	if config.GeneratorHost != "" {
		opts = append(opts, anthropic.WithBaseURL(config.GeneratorHost))
	}

	client, err := anthropic.New(opts...)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "anthropic-generator"),
	}, nil
}

// Generate sends the prompt to the model. JSON mode is requested through
// the prompt text; the Messages API has no response format switch.
func (g *Generator) Generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	if prompt.JSON {
		prompt.System += "\nRespond with a single JSON object and nothing else."
		prompt.JSON = false
	}
	return openai.GenerateWith(ctx, g.client, g.logger, prompt, g.temperature, g.maxTokens)
}
