// Package indexing builds the persistent vector index from documents.
//
// A build embeds every document in fixed-size batches on a worker pool,
// normalizes the vectors, and replaces the stored index wholesale. Builds are
// idempotent: the same documents always produce the same set of entries.
// Embedding failures are not retried; the first one aborts the build and
// leaves the previous index in place.
//
// # Usage
//
//	builder, err := indexing.NewBuilder(repo, provider.Embedder(),
//	    indexing.WithBatchSize(32),
//	    indexing.WithProgress(os.Stderr),
//	)
//	if err != nil {
//	    return err
//	}
//	defer builder.Release()
//
//	manifest, err := builder.Build(ctx, docs)
package indexing
