package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultLocalDimension keeps local vectors small; hash collisions at this
// size stay rare for knowledge-base sized vocabularies.
const DefaultLocalDimension = 256

// Local is a deterministic bag-of-words embedder: tokens are hashed into a
// fixed number of buckets and the vector is L2-normalized. It needs no
// network or model files, which makes it the offline mode and the test
// double for the OpenAI embedder. Overlapping vocabulary produces positive
// cosine similarity, which is all the retrieval pipeline relies on.
type Local struct {
	dimension int
}

// NewLocal creates a local embedder with the given dimension (0 uses the
// default). Construction never fails: there is no model to load.
func NewLocal(dimension int) *Local {
	if dimension <= 0 {
		dimension = DefaultLocalDimension
	}
	return &Local{dimension: dimension}
}

// Dimension returns the fixed vector length.
func (l *Local) Dimension() int {
	return l.dimension
}

// Embed generates the embedding for a single text. Same text, same vector.
func (l *Local) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, l.dimension)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%l.dimension]++
	}
	l2normalize(vec)
	return vec, nil
}

// EmbedMany embeds each text in order.
func (l *Local) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := l.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// tokenize lowercases and splits on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// l2normalize scales a vector to unit length in place.
func l2normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
