package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/guardianai/guardian/internal/chunk"
)

// Qdrant is an Index backed by a Qdrant collection. Each instance owns one
// uuid-named collection, so swapping the active knowledge source creates a
// fresh collection and the old one is deleted after the swap. Collections
// are never mutated in place, matching the memory backend.
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dimension  int

	mu   sync.Mutex
	seen map[chunkKey]struct{}
}

// NewQdrant connects to Qdrant, verifies health with retry, and creates a
// fresh collection for this index generation.
func NewQdrant(ctx context.Context, host string, port int, dimension int) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	q := &Qdrant{
		client:     client,
		collection: "guardian_" + uuid.New().String(),
		dimension:  dimension,
		seen:       make(map[chunkKey]struct{}),
	}

	if err := q.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return q, nil
}

// healthCheckWithRetry performs health checks with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (q *Qdrant) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		result, err := q.client.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		if result == nil || result.Title == "" {
			return fmt.Errorf("health check returned invalid response")
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// Insert upserts a chunk point. Duplicate (DocID, Ordinal) identities are
// tracked locally: Qdrant upserts silently overwrite, which would hide a
// programming error the contract says must surface.
func (q *Qdrant) Insert(ctx context.Context, c chunk.Chunk, embedding []float32) error {
	if len(embedding) != q.dimension {
		return fmt.Errorf("%w: chunk has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), q.dimension)
	}

	key := chunkKey{docID: c.DocID, ordinal: c.Ordinal}
	q.mu.Lock()
	if _, exists := q.seen[key]; exists {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s#%d", ErrDuplicateChunk, c.DocID, c.Ordinal)
	}
	q.seen[key] = struct{}{}
	q.mu.Unlock()

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(pointID(c)),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]any{
			"doc_id":  c.DocID,
			"ordinal": c.Ordinal,
			"text":    c.Text,
			"start":   c.Start,
		}),
	}

	if err := q.upsertWithRetry(ctx, []*qdrant.PointStruct{point}); err != nil {
		q.mu.Lock()
		delete(q.seen, key)
		q.mu.Unlock()
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

// upsertWithRetry performs the upsert with exponential backoff.
func (q *Qdrant) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// Search queries the collection and re-sorts the hits client-side so the
// ranking contract (score desc, ordinal asc) holds independent of how the
// backend orders equal scores.
func (q *Qdrant) Search(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if len(embedding) != q.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), q.dimension)
	}

	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	hits := make([]ScoredChunk, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		hits = append(hits, ScoredChunk{
			Chunk: chunk.Chunk{
				DocID:   payload["doc_id"].GetStringValue(),
				Ordinal: int(payload["ordinal"].GetIntegerValue()),
				Text:    payload["text"].GetStringValue(),
				Start:   int(payload["start"].GetIntegerValue()),
			},
			Score: float64(result.Score),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.Ordinal < hits[j].Chunk.Ordinal
	})

	return hits, nil
}

// Size returns the number of chunk points in this generation's collection.
func (q *Qdrant) Size(ctx context.Context) (int, error) {
	collection, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection: %w", err)
	}
	return int(collection.GetPointsCount()), nil
}

// Drop deletes this generation's collection and closes the client.
func (q *Qdrant) Drop(ctx context.Context) error {
	if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
		q.client.Close()
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return q.client.Close()
}

// pointID derives a stable UUID from the chunk identity.
func pointID(c chunk.Chunk) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s#%d", c.DocID, c.Ordinal))).String()
}
