// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ai provides abstractions for the AI services used by finrag.
//
// The index builder needs an Embedder; the query engine needs the same
// Embedder plus a Generator that turns retrieved records into an answer.
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Produces a completion from a system and user prompt
//   - AIProvider: Aggregates both for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible embeddings and chat (also Ollama, vLLM)
//   - ai/anthropic: Anthropic chat models as a Generator
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Embeddings and generation may come from different vendors; ComposeProvider
// joins them into one AIProvider.
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder,
// anthropic.NewGenerator) return INTERFACE types. Mock constructors
// (mock.NewMockEmbedder, mock.NewMockGenerator) return CONCRETE types so
// tests can inject behavior and inspect call counts.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Which payments are overdue?")
//	answer, err := provider.Generator().Generate(ctx, ai.Prompt{System: "...", User: "..."})
package ai
