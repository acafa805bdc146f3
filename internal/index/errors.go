package index

import "errors"

var (
	ErrDuplicateChunk    = errors.New("duplicate chunk id")
	ErrInvalidK          = errors.New("k must be positive")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrQdrantUnreachable = errors.New("qdrant server unreachable")
)
