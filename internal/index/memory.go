package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/guardianai/guardian/internal/chunk"
)

// Memory is an exact brute-force cosine similarity index. It is the default
// backend: the corpus is small enough (tens of thousands of chunks) that a
// linear scan stays well under query latency budgets, and exact comparison
// makes the ranking contract trivially hold.
//
// Reads are concurrent-safe; inserts take the write lock.
type Memory struct {
	mu        sync.RWMutex
	entries   []memoryEntry
	byID      map[chunkKey]struct{}
	dimension int // fixed by the first insert
}

type memoryEntry struct {
	chunk     chunk.Chunk
	embedding []float32
}

type chunkKey struct {
	docID   string
	ordinal int
}

// NewMemory creates an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{byID: make(map[chunkKey]struct{})}
}

// Insert adds a chunk with its embedding, rejecting duplicate identities
// and embeddings whose dimension differs from earlier inserts.
func (m *Memory) Insert(ctx context.Context, c chunk.Chunk, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty embedding", ErrDimensionMismatch)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dimension == 0 {
		m.dimension = len(embedding)
	} else if len(embedding) != m.dimension {
		return fmt.Errorf("%w: chunk has %d dimensions, index has %d",
			ErrDimensionMismatch, len(embedding), m.dimension)
	}

	key := chunkKey{docID: c.DocID, ordinal: c.Ordinal}
	if _, exists := m.byID[key]; exists {
		return fmt.Errorf("%w: %s#%d", ErrDuplicateChunk, c.DocID, c.Ordinal)
	}

	m.byID[key] = struct{}{}
	m.entries = append(m.entries, memoryEntry{chunk: c, embedding: embedding})
	return nil
}

// Search scans all entries, scoring each by cosine similarity.
func (m *Memory) Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.dimension != 0 && len(embedding) != m.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			ErrDimensionMismatch, len(embedding), m.dimension)
	}

	results := make([]ScoredChunk, 0, len(m.entries))
	for _, e := range m.entries {
		results = append(results, ScoredChunk{
			Chunk: e.chunk,
			Score: cosineSimilarity(embedding, e.embedding),
		})
	}

	// Stable sort keeps insertion order for full ties.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Ordinal < results[j].Chunk.Ordinal
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Size returns the number of chunks indexed.
func (m *Memory) Size(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Drop releases the entries. The memory backend has no external resources.
func (m *Memory) Drop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.byID = make(map[chunkKey]struct{})
	m.dimension = 0
	return nil
}

// cosineSimilarity computes cos(θ) = (A · B) / (||A|| * ||B||), ranging over
// [-1, 1]. Zero vectors score 0 against everything.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
