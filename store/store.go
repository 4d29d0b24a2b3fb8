// Package store persists chunk embeddings and serves nearest-neighbor
// queries over them.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/seangpt/ragcore/chunking"
)

// RetrievalResult pairs a stored chunk with its cosine similarity to a query
// embedding. Result sets are ordered by Similarity descending.
type RetrievalResult struct {
	Chunk      chunking.Chunk
	Similarity float64
}

// ChunkStore persists chunks with their embeddings and supports similarity
// search. Chunks are append-only; the only removal paths are a full
// re-ingestion of their document (DeleteBySource) or wiping the store.
type ChunkStore interface {
	// Insert stores one chunk and returns its id.
	Insert(ctx context.Context, chunk chunking.Chunk) (uuid.UUID, error)

	// DeleteBySource removes every chunk belonging to the given source URL,
	// making room for a document's fresh chunk sequence.
	DeleteBySource(ctx context.Context, sourceURL string) error

	// QueryTopK returns up to k chunks ordered by cosine similarity to the
	// query embedding, descending. Similarity is 1 - cosine distance.
	QueryTopK(ctx context.Context, embedding []float32, k int) ([]RetrievalResult, error)

	// Clear removes all stored chunks.
	Clear(ctx context.Context) error
}
