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

package indexing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/finrag/ai"
	"github.com/poiesic/finrag/core"
	"github.com/poiesic/finrag/storage"
)

// DefaultBatchSize is the number of documents sent per embedding request.
const DefaultBatchSize = 64

// Builder embeds documents and writes them to an index repository.
type Builder struct {
	repo      storage.IndexRepository
	embedder  ai.Embedder
	pool      *ants.Pool
	batchSize int
	model     string
	progress  io.Writer
	logger    *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithPoolSize sets how many embedding requests run concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}
		if b.pool != nil {
			b.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithBatchSize sets the number of documents per embedding request.
func WithBatchSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}
		b.batchSize = size
		return nil
	}
}

// WithEmbeddingModel records the embedding model name in build manifests.
func WithEmbeddingModel(model string) Option {
	return func(b *Builder) error {
		b.model = model
		return nil
	}
}

// WithProgress writes a progress line to w while embedding.
func WithProgress(w io.Writer) Option {
	return func(b *Builder) error {
		b.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger.With("component", "index-builder")
		return nil
	}
}

// NewBuilder creates a builder writing to repo with vectors from embedder.
func NewBuilder(repo storage.IndexRepository, embedder ai.Embedder, opts ...Option) (*Builder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		repo:      repo,
		embedder:  embedder,
		pool:      pool,
		batchSize: DefaultBatchSize,
		logger:    slog.Default().With("component", "index-builder"),
	}

	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}
	return b, nil
}

// Release releases the worker pool.
// The builder should not be used after calling Release.
func (b *Builder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

// Build embeds docs and replaces the index with them.
//
// Documents are validated and must have distinct IDs. The stored index is
// only touched once every embedding has succeeded.
func (b *Builder) Build(ctx context.Context, docs []*core.Document) (*core.Manifest, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	seen := make(map[core.ID]struct{}, len(docs))
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return nil, err
		}
		if _, dup := seen[doc.Id]; dup {
			return nil, fmt.Errorf("%w: %s %s", ErrDuplicateDocument, doc.RecordType, doc.RecordId)
		}
		seen[doc.Id] = struct{}{}
	}

	start := time.Now()
	b.logger.Info("building index", "documents", len(docs), "batch_size", b.batchSize)

	vectors, err := b.embedAll(ctx, docs)
	if err != nil {
		b.logger.Error("index build failed", "err", err)
		return nil, err
	}

	entries := make([]*core.IndexEntry, len(docs))
	for i, doc := range docs {
		entries[i] = &core.IndexEntry{Document: *doc, Vector: vectors[i]}
	}

	manifest := &core.Manifest{
		BuildId:        uuid.NewString(),
		Dimension:      len(vectors[0]),
		EmbeddingModel: b.model,
	}
	if err := b.repo.ReplaceAll(ctx, entries, manifest); err != nil {
		return nil, fmt.Errorf("failed to write index: %w", err)
	}

	b.logger.Info("index built",
		"build_id", manifest.BuildId,
		"documents", manifest.Documents,
		"dimension", manifest.Dimension,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return manifest, nil
}

// Rebuild re-embeds the documents already in the index, for example after
// switching embedding models.
func (b *Builder) Rebuild(ctx context.Context) (*core.Manifest, error) {
	docs, err := b.repo.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexed documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, &core.IndexNotBuiltError{}
	}
	return b.Build(ctx, docs)
}

// embedAll returns one normalized vector per document, in input order.
func (b *Builder) embedAll(ctx context.Context, docs []*core.Document) ([][]float32, error) {
	batches := splitBatches(docs, b.batchSize)
	results := make([][][]float32, len(batches))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	var tracker *ProgressTracker
	if b.progress != nil {
		tracker = NewProgressTracker(b.progress, len(docs), b.batchSize)
		tracker.Start()
	}

	for i, batch := range batches {
		wg.Add(1)
		submitErr := b.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			vectors, err := b.embedBatch(ctx, batch)
			if err != nil {
				fail(err)
				return
			}
			results[i] = vectors
			if tracker != nil {
				tracker.Increment(len(batch))
			}
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tracker != nil {
		tracker.Finish()
	}

	vectors := make([][]float32, 0, len(docs))
	for _, batch := range results {
		vectors = append(vectors, batch...)
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, core.NewProviderError("embed",
				fmt.Errorf("%w: %s %s has %d dimensions, expected %d", ErrDimensionMismatch, docs[i].RecordType, docs[i].RecordId, len(v), dim))
		}
	}
	return vectors, nil
}

// embedBatch makes one embedding request. Failures are not retried.
func (b *Builder) embedBatch(ctx context.Context, batch []*core.Document) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i, doc := range batch {
		texts[i] = doc.Text
	}

	embeddings, err := b.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		// Cancellation after a sibling failure is not the provider's fault
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, core.NewProviderError("embed", err)
	}
	if len(embeddings) != len(batch) {
		return nil, core.NewProviderError("embed",
			fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCount, len(batch), len(embeddings)))
	}

	vectors := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		if len(e) == 0 {
			return nil, core.NewProviderError("embed",
				fmt.Errorf("%w: %s %s", core.ErrEmptyVector, batch[i].RecordType, batch[i].RecordId))
		}
		vectors[i] = core.NormalizeVector(e)
	}
	return vectors, nil
}

// splitBatches partitions docs into consecutive slices of at most size.
func splitBatches(docs []*core.Document, size int) [][]*core.Document {
	batches := make([][]*core.Document, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		batches = append(batches, docs[start:end])
	}
	return batches
}
