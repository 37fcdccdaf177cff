// Package anthropic provides an ai.Generator backed by the Anthropic
// Messages API through langchaingo.
//
// Anthropic does not serve embeddings, so it is paired with an
// OpenAI-compatible embedder via ai.ComposeProvider:
//
//	embedder, _ := openai.NewEmbedder(cfg)
//	generator, _ := anthropic.NewGenerator(cfg)
//	provider := ai.ComposeProvider(embedder, generator)
package anthropic
