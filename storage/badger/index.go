package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/finrag/core"
	"github.com/poiesic/finrag/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB.
type IndexRepository struct {
	backend *Backend
	// mu keeps readers from observing a replace in progress
	mu sync.RWMutex
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// newIndexRepository is an internal constructor that returns the concrete type.
func newIndexRepository(backend *Backend) (*IndexRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &IndexRepository{backend: backend}, nil
}

// NewIndexRepository creates a new index repository on the backend.
//
// Returns storage.IndexRepository interface to enforce abstraction.
func NewIndexRepository(backend *Backend) (storage.IndexRepository, error) {
	repo, err := newIndexRepository(backend)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *IndexRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *IndexRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// ReplaceAll replaces the index contents with entries.
//
// The manifest is removed first and written last, so an interrupted replace
// leaves an index that reports itself as not built.
func (r *IndexRepository) ReplaceAll(ctx context.Context, entries []*core.IndexEntry, manifest *core.Manifest) error {
	if manifest == nil {
		return errors.New("manifest required")
	}

	seen := make(map[core.ID]struct{}, len(entries))
	for _, entry := range entries {
		if err := core.ValidateIndexEntry(entry); err != nil {
			return err
		}
		if _, dup := seen[entry.Document.Id]; dup {
			return fmt.Errorf("%w: document %s %s", storage.ErrDuplicateKey, entry.Document.RecordType, entry.Document.RecordId)
		}
		seen[entry.Document.Id] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.clear(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	err := r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for _, entry := range entries {
			if entry.InsertedAt.IsZero() {
				entry.InsertedAt = now
			}
			if err := wb.Set(makeEntryKey(entry.Document.Id), storage.MarshalIndexEntry(entry)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	manifest.Documents = len(entries)
	if manifest.BuiltAt.IsZero() {
		manifest.BuiltAt = now
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeManifestKey(), storage.MarshalManifest(manifest)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a single entry by document ID.
func (r *IndexRepository) GetEntry(ctx context.Context, id core.ID) (*core.IndexEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entry *core.IndexEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntryKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			entry, unmarshalErr = storage.UnmarshalIndexEntry(val)
			return unmarshalErr
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Documents returns every stored document ordered by ID.
func (r *IndexRepository) Documents(ctx context.Context) ([]*core.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var docs []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(indexEntryPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				entry, err := storage.UnmarshalIndexEntry(val)
				if err != nil {
					return err
				}
				docs = append(docs, &entry.Document)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Count returns the number of stored entries.
func (r *IndexRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(indexEntryPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Manifest returns the manifest of the last successful build.
// Returns nil, nil if no build has completed.
func (r *IndexRepository) Manifest(ctx context.Context) (*core.Manifest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var manifest *core.Manifest
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeManifestKey())
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			manifest, unmarshalErr = storage.UnmarshalManifest(val)
			return unmarshalErr
		})
	}, false)

	return manifest, err
}

// Clear removes all entries and the manifest.
func (r *IndexRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clear()
}

// clear must be called with the write lock held.
func (r *IndexRepository) clear() error {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeManifestKey()); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}
	return r.backend.DeletePrefix(indexEntryPrefix + ":")
}
