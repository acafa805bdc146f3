// Package retriever orchestrates chunking and embedding at ingestion time and
// embedding plus similarity search at query time.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/guardianai/guardian/internal/chunk"
	"github.com/guardianai/guardian/internal/index"
)

// ErrIngestionFailed means a document set could not be ingested. The
// previously active index stays untouched; an empty index is never silently
// activated.
var ErrIngestionFailed = errors.New("ingestion failed")

// Source labels the active knowledge source.
type Source string

const (
	// SourceKnowledgeBase is the built-in knowledge base.
	SourceKnowledgeBase Source = "knowledge_base"
	// SourceUpload is a user-supplied document set.
	SourceUpload Source = "upload"
)

// Document is a unit of ingestion: plain text with an identity and a source
// label. Format decoding happens in the loader; the retriever only ever sees
// plain text.
type Document struct {
	ID     string
	Source Source
	Text   string
}

// Embedder maps text to fixed-length dense vectors. Implementations must be
// safe for concurrent use and self-consistent within a process.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// IndexFactory builds a fresh, empty index for a new knowledge source
// generation.
type IndexFactory func(ctx context.Context) (index.Index, error)

// generation pairs an index with the in-flight query count so a superseded
// generation is only dropped once its readers finish.
type generation struct {
	idx    index.Index
	source Source
	wg     sync.WaitGroup
}

// Retriever owns the active index for the current knowledge source. Index
// replacement builds the new index fully off to the side before swapping
// the reference, so readers never observe a partially-built index.
type Retriever struct {
	splitter *chunk.Splitter
	embedder Embedder
	newIndex IndexFactory
	logger   *slog.Logger

	mu     sync.RWMutex
	active *generation
}

// New creates a Retriever. The logger defaults to slog.Default().
func New(splitter *chunk.Splitter, embedder Embedder, newIndex IndexFactory, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		splitter: splitter,
		embedder: embedder,
		newIndex: newIndex,
		logger:   logger,
	}
}

// Ingest chunks and embeds the document set, builds a fresh index, and swaps
// it in as the active knowledge source. On any failure the previous index
// stays active and ErrIngestionFailed is returned.
func (r *Retriever) Ingest(ctx context.Context, source Source, docs []Document) error {
	var chunks []chunk.Chunk
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		chunks = append(chunks, r.splitter.Split(doc.ID, doc.Text)...)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("%w: document set is empty", ErrIngestionFailed)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := r.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed chunks: %v", ErrIngestionFailed, err)
	}

	idx, err := r.newIndex(ctx)
	if err != nil {
		return fmt.Errorf("%w: build index: %v", ErrIngestionFailed, err)
	}

	for i, c := range chunks {
		if err := idx.Insert(ctx, c, vectors[i]); err != nil {
			_ = idx.Drop(context.WithoutCancel(ctx))
			return fmt.Errorf("%w: insert chunk %s#%d: %v", ErrIngestionFailed, c.DocID, c.Ordinal, err)
		}
	}

	next := &generation{idx: idx, source: source}

	r.mu.Lock()
	prev := r.active
	r.active = next
	r.mu.Unlock()

	r.logger.Info("knowledge source activated",
		"source", source, "documents", len(docs), "chunks", len(chunks))

	if prev != nil {
		// Drop the superseded generation once its in-flight queries finish.
		go func() {
			prev.wg.Wait()
			if err := prev.idx.Drop(context.WithoutCancel(ctx)); err != nil {
				r.logger.Warn("failed to drop superseded index", "error", err)
			}
		}()
	}

	return nil
}

// Query embeds the text and searches the active index. Queries while no
// knowledge source is active return no results rather than an error, leaving
// the fallback policy to the router.
func (r *Retriever) Query(ctx context.Context, text string, k int) ([]index.ScoredChunk, error) {
	embedding, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	g := r.acquire()
	if g == nil {
		return nil, nil
	}
	defer g.wg.Done()

	return g.idx.Search(ctx, embedding, k)
}

// Size returns the chunk count of the active index, zero when none is active.
func (r *Retriever) Size(ctx context.Context) (int, error) {
	g := r.acquire()
	if g == nil {
		return 0, nil
	}
	defer g.wg.Done()

	return g.idx.Size(ctx)
}

// ActiveSource returns the label of the active knowledge source, empty when
// nothing has been ingested yet.
func (r *Retriever) ActiveSource() Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return ""
	}
	return r.active.source
}

// acquire pins the active generation for a reader. The caller must release
// it with g.wg.Done(). Returns nil when no generation is active.
func (r *Retriever) acquire() *generation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return nil
	}
	r.active.wg.Add(1)
	return r.active
}
