package ai

import (
	"errors"
	"slices"
	"strings"
)

type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// EmbeddingToken authenticates against the embedding service.
	// Local OpenAI-compatible servers accept any value.
	EmbeddingToken string

	// GeneratorProvider selects the answer model backend: "openai" or "anthropic".
	GeneratorProvider string

	// GeneratorHost is the base URL for the generation service API.
	// Empty uses the backend's default endpoint (anthropic only).
	GeneratorHost string

	// GeneratorModel is the model identifier used to answer questions.
	// Example: "qwen2.5:3b", "gpt-4o-mini", "claude-3-5-sonnet-20241022"
	GeneratorModel string

	// GeneratorToken authenticates against the generation service.
	GeneratorToken string

	// Temperature is the sampling temperature for answers.
	// Default: 0
	Temperature float64

	// MaxTokens caps the length of generated answers.
	// Default: 4096
	MaxTokens int
}

type ConfigOption func(*Config)

func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

func WithGeneratorHost(host string) ConfigOption {
	return func(c *Config) {
		c.GeneratorHost = host
	}
}

func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GeneratorHost = host
	}
}

func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

func WithGeneratorModel(model string) ConfigOption {
	return func(c *Config) {
		c.GeneratorModel = model
	}
}

func WithGeneratorProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.GeneratorProvider = strings.ToLower(provider)
	}
}

func WithEmbeddingToken(token string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingToken = token
	}
}

func WithGeneratorToken(token string) ConfigOption {
	return func(c *Config) {
		c.GeneratorToken = token
	}
}

func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

func WithMaxTokens(max int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = max
	}
}

func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:     defaultHost,
		EmbeddingModel:    "embeddinggemma",
		EmbeddingToken:    "none",
		GeneratorProvider: ProviderOpenAI,
		GeneratorHost:     defaultHost,
		GeneratorModel:    "qwen2.5:3b",
		GeneratorToken:    "none",
		Temperature:       0,
		MaxTokens:         4096,
	}
}

func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *Config) Normalize() {
	c.EmbeddingHost = withV1(c.EmbeddingHost)
	c.GeneratorProvider = strings.ToLower(strings.TrimSpace(c.GeneratorProvider))
	// Anthropic endpoints are used as given
	if c.GeneratorProvider == ProviderOpenAI {
		c.GeneratorHost = withV1(c.GeneratorHost)
	}
}

// withV1 ensures OpenAI-compatible hosts end with /v1.
func withV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	// Remove trailing slash if present before adding /v1
	return strings.TrimSuffix(host, "/") + "/v1"
}

func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if !slices.Contains(GeneratorProviders, c.GeneratorProvider) {
		return errors.New("ai config: GeneratorProvider must be one of " + strings.Join(GeneratorProviders, ", "))
	}
	if c.GeneratorProvider == ProviderOpenAI && c.GeneratorHost == "" {
		return errors.New("ai config: GeneratorHost is required")
	}
	if c.GeneratorProvider == ProviderAnthropic && c.GeneratorToken == "" {
		return errors.New("ai config: GeneratorToken is required for anthropic")
	}
	if c.GeneratorModel == "" {
		return errors.New("ai config: GeneratorModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	return nil
}
