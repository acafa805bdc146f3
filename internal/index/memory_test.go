package index

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardianai/guardian/internal/chunk"
)

func insert(t *testing.T, m *Memory, docID string, ordinal int, embedding []float32) {
	t.Helper()
	err := m.Insert(context.Background(), chunk.Chunk{DocID: docID, Ordinal: ordinal, Text: "text"}, embedding)
	require.NoError(t, err)
}

func TestMemory_SearchTopK(t *testing.T) {
	m := NewMemory()

	// Unit vectors at decreasing angles from the query direction (1, 0, 0).
	insert(t, m, "doc", 0, []float32{1, 0, 0})       // cosine 1.0
	insert(t, m, "doc", 1, []float32{0.9, 0.1, 0})   // near 1.0
	insert(t, m, "doc", 2, []float32{0.5, 0.5, 0})   // ~0.71
	insert(t, m, "doc", 3, []float32{0, 1, 0})       // 0.0
	insert(t, m, "doc", 4, []float32{0.1, 0.9, 0.1}) // low

	results, err := m.Search(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 0, results[0].Chunk.Ordinal)
	assert.Equal(t, 1, results[1].Chunk.Ordinal)
	assert.Equal(t, 2, results[2].Chunk.Ordinal)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score,
			"results must be in descending score order")
	}
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestMemory_SearchExactMatch(t *testing.T) {
	m := NewMemory()
	insert(t, m, "doc", 0, []float32{0.6, 0.8})
	insert(t, m, "doc", 1, []float32{0.8, 0.6})

	results, err := m.Search(context.Background(), []float32{0.6, 0.8}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Chunk.Ordinal)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestMemory_SearchKLargerThanIndex(t *testing.T) {
	m := NewMemory()
	insert(t, m, "doc", 0, []float32{1, 0})
	insert(t, m, "doc", 1, []float32{0, 1})

	results, err := m.Search(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2, "k beyond the index size returns everything")
}

func TestMemory_SearchInvalidK(t *testing.T) {
	m := NewMemory()
	insert(t, m, "doc", 0, []float32{1, 0})

	for _, k := range []int{0, -1} {
		_, err := m.Search(context.Background(), []float32{1, 0}, k)
		assert.ErrorIs(t, err, ErrInvalidK)
	}
}

func TestMemory_SearchEmptyIndex(t *testing.T) {
	m := NewMemory()
	results, err := m.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemory_DuplicateInsert(t *testing.T) {
	m := NewMemory()
	insert(t, m, "doc", 0, []float32{1, 0})

	err := m.Insert(context.Background(), chunk.Chunk{DocID: "doc", Ordinal: 0, Text: "again"}, []float32{0, 1})
	assert.ErrorIs(t, err, ErrDuplicateChunk)

	size, err := m.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, size, "rejected duplicate must not change the index")

	// Same ordinal under a different document is a distinct identity.
	err = m.Insert(context.Background(), chunk.Chunk{DocID: "other", Ordinal: 0, Text: "ok"}, []float32{0, 1})
	assert.NoError(t, err)
}

func TestMemory_DimensionMismatch(t *testing.T) {
	m := NewMemory()
	insert(t, m, "doc", 0, []float32{1, 0, 0})

	err := m.Insert(context.Background(), chunk.Chunk{DocID: "doc", Ordinal: 1}, []float32{1, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = m.Search(context.Background(), []float32{1, 0}, 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	err = m.Insert(context.Background(), chunk.Chunk{DocID: "doc", Ordinal: 2}, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemory_TieBreakByOrdinal(t *testing.T) {
	m := NewMemory()

	// Insert out of ordinal order with identical embeddings.
	insert(t, m, "doc", 2, []float32{1, 0})
	insert(t, m, "doc", 0, []float32{1, 0})
	insert(t, m, "doc", 1, []float32{1, 0})

	results, err := m.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 0, results[0].Chunk.Ordinal)
	assert.Equal(t, 1, results[1].Chunk.Ordinal)
	assert.Equal(t, 2, results[2].Chunk.Ordinal)
}

func TestMemory_Drop(t *testing.T) {
	m := NewMemory()
	insert(t, m, "doc", 0, []float32{1, 0})

	require.NoError(t, m.Drop(context.Background()))

	size, err := m.Size(context.Background())
	require.NoError(t, err)
	assert.Zero(t, size)

	// A dropped index accepts a fresh dimension.
	err = m.Insert(context.Background(), chunk.Chunk{DocID: "doc", Ordinal: 0}, []float32{1, 0, 0})
	assert.NoError(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0.0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("cosineSimilarity = %v, want %v", got, tc.want)
			}
		})
	}
}
