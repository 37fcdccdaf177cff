package ai

// Generator backends understood by Config.GeneratorProvider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// GeneratorProviders lists the supported generator backends.
var GeneratorProviders = []string{
	ProviderOpenAI,
	ProviderAnthropic,
}
