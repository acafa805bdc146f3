package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestLocal_Deterministic(t *testing.T) {
	l := NewLocal(0)
	ctx := context.Background()

	first, err := l.Embed(ctx, "Phishing attacks impersonate trusted entities.")
	require.NoError(t, err)
	second, err := l.Embed(ctx, "Phishing attacks impersonate trusted entities.")
	require.NoError(t, err)

	assert.Equal(t, first, second, "same text must produce the same vector")
	assert.Len(t, first, DefaultLocalDimension)
}

func TestLocal_UnitLength(t *testing.T) {
	l := NewLocal(64)
	vec, err := l.Embed(context.Background(), "some words to hash into buckets")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dot(vec, vec), 1e-6, "vectors are L2-normalized")
}

func TestLocal_SharedVocabularyScoresHigher(t *testing.T) {
	l := NewLocal(0)
	ctx := context.Background()

	query, err := l.Embed(ctx, "What is phishing?")
	require.NoError(t, err)
	related, err := l.Embed(ctx, "Phishing is a social engineering attack.")
	require.NoError(t, err)
	unrelated, err := l.Embed(ctx, "Sunny weather with a light breeze today.")
	require.NoError(t, err)

	assert.Greater(t, dot(query, related), dot(query, unrelated),
		"overlapping vocabulary must score higher than disjoint text")
	assert.Positive(t, dot(query, related))
}

func TestLocal_TokenizeCaseAndPunctuation(t *testing.T) {
	l := NewLocal(0)
	ctx := context.Background()

	a, err := l.Embed(ctx, "Phishing, Attacks!")
	require.NoError(t, err)
	b, err := l.Embed(ctx, "phishing attacks")
	require.NoError(t, err)

	assert.Equal(t, a, b, "case and punctuation must not change the vector")
}

func TestLocal_EmptyText(t *testing.T) {
	l := NewLocal(0)
	vec, err := l.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, dot(vec, vec), "empty text embeds to the zero vector")
}

func TestLocal_EmbedMany(t *testing.T) {
	l := NewLocal(0)
	ctx := context.Background()

	texts := []string{"first chunk", "second chunk", "third chunk"}
	vectors, err := l.EmbedMany(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	for i, text := range texts {
		single, err := l.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, vectors[i], "batch order must match input order")
	}
}

func TestLocal_EmbedManyEmpty(t *testing.T) {
	l := NewLocal(0)
	_, err := l.EmbedMany(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}
