package indexing

import "errors"

var (
	// ErrNoDocuments is returned when a build is given nothing to index.
	ErrNoDocuments = errors.New("no documents to index")

	// ErrRepositoryRequired is returned when an index repository is not provided.
	ErrRepositoryRequired = errors.New("index repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrDuplicateDocument is returned when two documents share an ID.
	ErrDuplicateDocument = errors.New("duplicate document")

	// ErrEmbeddingCount is returned when the embedder returns the wrong number of vectors.
	ErrEmbeddingCount = errors.New("embedding count mismatch")

	// ErrDimensionMismatch is returned when vectors in one build differ in length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
