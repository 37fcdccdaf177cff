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

// Package finrag answers natural-language questions about financial records.
//
// An Index ties together the on-disk vector store and the AI provider:
//
//	idx, err := finrag.Open("./finrag_db")
//	if err != nil { ... }
//	defer idx.Close()
//
//	set, _ := records.LoadWorkbook("finance.xlsx")
//	manifest, err := idx.Ingest(ctx, set)
//
//	engine, _ := idx.NewEngine()
//	result, err := engine.Ask(ctx, "Which payments are overdue?")
package finrag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/finrag/ai"
	"github.com/poiesic/finrag/ai/anthropic"
	"github.com/poiesic/finrag/ai/openai"
	"github.com/poiesic/finrag/core"
	"github.com/poiesic/finrag/indexing"
	"github.com/poiesic/finrag/query"
	"github.com/poiesic/finrag/storage"
	"github.com/poiesic/finrag/storage/badger"
	"github.com/poiesic/finrag/synthesis"
)

// Index is an open vector index over synthesized financial documents.
type Index struct {
	dir      string
	backend  *badger.Backend
	repo     storage.IndexRepository
	provider ai.AIProvider
	policy   synthesis.Policy
	base     *slog.Logger // Handed to builders and engines
	logger   *slog.Logger
}

// Option configures an Index.
type Option func(*options)

type options struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	policy   synthesis.Policy
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the embedding and answer model configuration.
// Ignored when WithProvider is also given.
func WithAIConfig(config *ai.Config) Option {
	return func(o *options) {
		o.aiConfig = config
	}
}

// WithProvider uses provider instead of building one from the AI config.
// The Index takes ownership and closes it on Close.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithPolicy sets the discrepancy thresholds used for synthesis and ranking.
func WithPolicy(policy synthesis.Policy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithInMemory keeps the index in memory. The directory is only used as a
// label in error messages.
func WithInMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open opens or creates the index stored in dir.
func Open(dir string, opts ...Option) (*Index, error) {
	options := &options{
		aiConfig: ai.DefaultConfig(),
		policy:   synthesis.DefaultPolicy(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	backend, err := badger.OpenBackend(dir, options.inMemory)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewIndexRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = NewProvider(options.aiConfig)
		if err != nil {
			repo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Index{
		dir:      dir,
		backend:  backend,
		repo:     repo,
		provider: provider,
		policy:   options.policy,
		base:     options.logger,
		logger:   options.logger.With("component", "finrag"),
	}, nil
}

// Service constructors, replaced in tests.
var (
	newEmbedder           = openai.NewEmbedder
	newAnthropicGenerator = anthropic.NewGenerator
)

// NewProvider builds the AI provider named by config.GeneratorProvider.
// Embeddings always come from the OpenAI-compatible endpoint.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if config == nil {
		return nil, errors.New("ai config required")
	}
	switch config.GeneratorProvider {
	case ai.ProviderAnthropic:
		embedder, err := newEmbedder(config)
		if err != nil {
			return nil, err
		}
		var closers []io.Closer
		if c, ok := embedder.(io.Closer); ok {
			closers = append(closers, c)
		}
		generator, err := newAnthropicGenerator(config)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, err
		}
		return ai.ComposeProvider(embedder, generator, closers...), nil
	default:
		return openai.NewProvider(config)
	}
}

// Close releases the provider, the repository and the store.
func (idx *Index) Close() error {
	if err := idx.provider.Close(); err != nil {
		idx.logger.Error("error closing AI provider", "err", err)
	}

	if err := idx.repo.Close(); err != nil {
		idx.logger.Error("error closing index repository", "err", err)
		return err
	}

	if err := idx.backend.Close(); err != nil {
		idx.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Dir returns the index location.
func (idx *Index) Dir() string {
	return idx.dir
}

// Repository returns the underlying index repository.
func (idx *Index) Repository() storage.IndexRepository {
	return idx.repo
}

// Provider returns the AI provider.
func (idx *Index) Provider() ai.AIProvider {
	return idx.provider
}

// Policy returns the discrepancy thresholds in effect.
func (idx *Index) Policy() synthesis.Policy {
	return idx.policy
}

// NewBuilder creates an index builder over this index.
// Callers must Release the builder.
func (idx *Index) NewBuilder(opts ...indexing.Option) (*indexing.Builder, error) {
	opts = append([]indexing.Option{indexing.WithLogger(idx.base)}, opts...)
	return indexing.NewBuilder(idx.repo, idx.provider.Embedder(), opts...)
}

// NewEngine creates a query engine over this index.
func (idx *Index) NewEngine(opts ...query.Option) (*query.Engine, error) {
	opts = append([]query.Option{
		query.WithLocation(idx.dir),
		query.WithSignificantVariance(idx.policy.SignificantVariancePct),
		query.WithLogger(idx.base),
	}, opts...)
	return query.NewEngine(idx.repo, idx.provider, opts...)
}

// Synthesize renders every record in set as a document.
func (idx *Index) Synthesize(set *core.RecordSet) ([]*core.Document, error) {
	return synthesis.NewSynthesizer(idx.policy).Synthesize(set)
}

// Ingest synthesizes set and replaces the index with the result.
// Builder options such as progress output are passed through.
func (idx *Index) Ingest(ctx context.Context, set *core.RecordSet, opts ...indexing.Option) (*core.Manifest, error) {
	docs, err := idx.Synthesize(set)
	if err != nil {
		return nil, err
	}
	idx.logger.Debug("synthesized documents", "records", set.Len(), "documents", len(docs))

	builder, err := idx.NewBuilder(opts...)
	if err != nil {
		return nil, err
	}
	defer builder.Release()

	return builder.Build(ctx, docs)
}

// Load returns the manifest of the existing index.
// Returns *core.IndexNotBuiltError if nothing has been built yet.
func (idx *Index) Load(ctx context.Context) (*core.Manifest, error) {
	manifest, err := idx.repo.Manifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if manifest == nil || manifest.Documents == 0 {
		return nil, &core.IndexNotBuiltError{Location: idx.dir}
	}
	return manifest, nil
}

// Teardown removes every entry and the manifest.
func (idx *Index) Teardown(ctx context.Context) error {
	if err := idx.repo.Clear(ctx); err != nil {
		return err
	}
	idx.logger.Info("index cleared", "dir", idx.dir)
	return nil
}
