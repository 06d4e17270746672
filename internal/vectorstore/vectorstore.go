// Package vectorstore defines the contract for nearest-neighbor chunk
// storage. Implementations must rank results by their own similarity metric;
// callers impose no secondary ordering.
package vectorstore

import "context"

// Chunk is one indexed slice of a source document together with its
// provenance metadata.
type Chunk struct {
	DocumentID string
	Index      int // sequence offset within the source document
	Text       string
	FileName   string
	MimeType   string
}

// SearchResult is a matching chunk with the store's similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float32
}

// Store persists chunk embeddings and supports similarity search.
type Store interface {
	// EnsureCollection creates the backing collection if it does not exist.
	EnsureCollection(ctx context.Context, dimension int) error

	// Ready reports whether the index exists and is reachable. Answering
	// opens the index read-only through this probe before any retrieval.
	Ready(ctx context.Context) error

	// Upsert writes chunks and their vectors as one logical batch.
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error

	// Search returns the topK nearest chunks to the given vector.
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)

	// DeleteByDocument removes every chunk whose document id matches.
	DeleteByDocument(ctx context.Context, documentID string) error
}
