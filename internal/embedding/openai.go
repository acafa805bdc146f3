// Package embedding maps text to fixed-length dense vectors.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// DefaultModel is the OpenAI model used for generating embeddings.
	DefaultModel = "text-embedding-3-small"

	// DefaultDimension is the vector dimension for text-embedding-3-small.
	DefaultDimension = 1536

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute rate
	// limits. OpenAI supports up to 2048 texts per batch, but smaller batches
	// reduce TPM pressure.
	DefaultBatchSize = 500
)

// OpenAI generates embeddings via the OpenAI embeddings API. It batches
// requests and retries with exponential backoff on rate limit errors. A
// single instance is shared by all callers: it is stateless per call and
// safe for concurrent use once constructed.
type OpenAI struct {
	client    *Client
	model     string
	dimension int
	batchSize int
}

// NewOpenAI creates an embedder and verifies the model is reachable with a
// probe request. Construction is the only point that may block on model
// availability; a probe failure surfaces ErrModelUnavailable and should stop
// startup.
func NewOpenAI(ctx context.Context, client *Client, model string, dimension int) (*OpenAI, error) {
	if model == "" {
		model = DefaultModel
	}
	if dimension <= 0 {
		dimension = dimensionForModel(model)
	}

	e := &OpenAI{
		client:    client,
		model:     model,
		dimension: dimension,
		batchSize: DefaultBatchSize,
	}

	probe, err := e.embedBatchWithRetry(ctx, []string{"guardian embedder probe"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if len(probe) != 1 || len(probe[0]) != dimension {
		return nil, fmt.Errorf("%w: model %s returned %d dimensions, expected %d",
			ErrModelUnavailable, model, len(probe[0]), dimension)
	}

	return e, nil
}

// Dimension returns the fixed vector length for this embedder instance.
// Vectors from embedders with different dimensions must never be compared.
func (e *OpenAI) Dimension() int {
	return e.dimension
}

// Embed generates the embedding for a single text.
func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedMany generates embeddings for the given texts, preserving input order
// and length. The batch either fails as a whole or returns all vectors.
func (e *OpenAI) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	var all [][]float32
	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		vectors, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, vectors...)
	}

	return all, nil
}

// embedBatchWithRetry generates embeddings for a single batch, retrying with
// exponential backoff on rate limit errors (HTTP 429). Other errors are
// treated as permanent and fail immediately.
func (e *OpenAI) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err // Will retry with backoff
			}
			return backoff.Permanent(err)
		}

		if len(resp.Data) != len(texts) {
			return backoff.Permanent(fmt.Errorf("got %d embeddings for %d inputs",
				len(resp.Data), len(texts)))
		}

		vectors = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			vectors[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return vectors, err
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// dimensionForModel maps known OpenAI embedding models to their dimensions.
func dimensionForModel(model string) int {
	if model == "text-embedding-3-large" {
		return 3072
	}
	return DefaultDimension
}

// toFloat32 converts []float64 to []float32. The API returns float64, but
// the index stores float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
