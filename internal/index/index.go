// Package index stores chunk embeddings and answers nearest-neighbor queries.
package index

import (
	"context"

	"github.com/guardianai/guardian/internal/chunk"
)

// ScoredChunk is a search hit: a chunk and its cosine similarity to the query.
type ScoredChunk struct {
	Chunk chunk.Chunk
	Score float64
}

// Index maps chunk identities to embeddings and supports k-nearest-neighbor
// search by cosine similarity. Inserts are append-only within a build; an
// index is built fully before it is exposed to readers, and replacing a
// knowledge source builds a fresh index rather than mutating in place.
//
// Ranking contract, regardless of backend: results are ordered by descending
// similarity, ties broken by lower chunk ordinal, then by insertion order.
type Index interface {
	// Insert adds a chunk with its embedding. Re-inserting a (DocID, Ordinal)
	// pair returns ErrDuplicateChunk and leaves the index unchanged.
	Insert(ctx context.Context, c chunk.Chunk, embedding []float32) error

	// Search returns the k chunks most similar to the query embedding,
	// highest similarity first. k <= 0 returns ErrInvalidK. If the index
	// holds fewer than k chunks, all of them are returned.
	Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error)

	// Size returns the number of chunks currently indexed.
	Size(ctx context.Context) (int, error)

	// Drop releases the index's backing resources. The index must not be
	// used afterwards.
	Drop(ctx context.Context) error
}
