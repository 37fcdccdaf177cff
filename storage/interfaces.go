package storage

import (
	"context"

	"github.com/poiesic/finrag/core"
)

// VectorSearcher provides similarity search over stored vectors.
type VectorSearcher interface {
	// FindSimilar finds index entries similar to the given vector.
	// Returns entries with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)
}

// IndexRepository persists the vector index built from synthesized documents.
// Implementations must be thread-safe and support concurrent readers.
type IndexRepository interface {
	VectorSearcher

	// ReplaceAll replaces the whole index with entries and records the manifest.
	// The old manifest and entries are removed first and the new manifest is
	// written last, so a replace that fails partway leaves the index not built
	// rather than holding a mix of old and new entries. Replacing with the same
	// entries twice yields the same state. Sets InsertedAt on entries that have none.
	ReplaceAll(ctx context.Context, entries []*core.IndexEntry, manifest *core.Manifest) error

	// GetEntry retrieves a single entry by document ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.IndexEntry, error)

	// Documents returns every stored document ordered by ID.
	Documents(ctx context.Context) ([]*core.Document, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Manifest returns the manifest of the last successful build.
	// Returns nil, nil if the index has never been built.
	Manifest(ctx context.Context) (*core.Manifest, error)

	// Clear removes all entries and the manifest.
	Clear(ctx context.Context) error

	// Close releases resources held by the repository.
	Close() error
}
