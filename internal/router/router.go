// Package router decides between local knowledge-base results and web-search
// fallback, and merges the two when both are used.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/guardianai/guardian/internal/index"
	"github.com/guardianai/guardian/internal/websearch"
)

// ErrEmptyResult means neither local retrieval nor web search produced any
// evidence. Callers surface this as "no answer available", never as a silent
// empty bundle.
var ErrEmptyResult = errors.New("no local or web results")

// Origin tags where a passage came from.
type Origin string

const (
	OriginLocal Origin = "local"
	OriginWeb   Origin = "web"
)

// Passage is one unit of retrieved evidence, from either source.
type Passage struct {
	Text   string
	Origin Origin
	Ref    string // chunk id for local passages, result URL for web snippets
	Score  float64
}

// Result is an ordered evidence set, highest relevance first.
type Result struct {
	Passages []Passage
	UsedWeb  bool
}

// Config holds the routing policy. Thresholds are cosine similarities in
// [0,1] and always come from configuration, never constants in the decision
// path.
type Config struct {
	// FallbackThreshold: below this top-1 local similarity the web search
	// runs.
	FallbackThreshold float64
	// DiscardThreshold: below this top-1 local similarity, local results are
	// dropped from a merged response. Must not exceed FallbackThreshold.
	DiscardThreshold float64
	// MaxWebResults caps the snippets requested from the collaborator.
	MaxWebResults int
	// Timeout bounds the web-search call. A timeout is treated identically
	// to the collaborator being unreachable.
	Timeout time.Duration
}

// Router applies the fallback policy.
type Router struct {
	search websearch.Searcher
	cfg    Config
	logger *slog.Logger
}

// New creates a Router. A nil searcher disables the web path entirely, which
// behaves like a permanently unreachable collaborator.
func New(search websearch.Searcher, cfg Config, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxWebResults <= 0 {
		cfg.MaxWebResults = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Router{search: search, cfg: cfg, logger: logger}
}

// Resolve returns the local result unchanged when its confidence clears the
// fallback threshold, otherwise augments or replaces it with web search
// results. A failing web collaborator degrades to local-only; only a query
// with no evidence from either source returns ErrEmptyResult.
func (r *Router) Resolve(ctx context.Context, query string, local []index.ScoredChunk) (Result, error) {
	passages := localPassages(local)

	confidence := 0.0
	if len(local) > 0 {
		confidence = local[0].Score
	}

	if len(local) > 0 && confidence >= r.cfg.FallbackThreshold {
		return Result{Passages: passages}, nil
	}

	snippets, err := r.webSearch(ctx, query)
	if err != nil {
		r.logger.Warn("web search degraded to local-only", "error", err)
		if len(passages) == 0 {
			return Result{}, ErrEmptyResult
		}
		return Result{Passages: passages}, nil
	}

	web := webPassages(snippets)
	if len(web) == 0 && len(passages) == 0 {
		return Result{}, ErrEmptyResult
	}

	// Local evidence below the discard threshold is noise next to the web
	// results; drop it rather than dilute the bundle.
	if confidence < r.cfg.DiscardThreshold || len(passages) == 0 {
		if len(web) == 0 {
			return Result{Passages: passages}, nil
		}
		return Result{Passages: web, UsedWeb: true}, nil
	}

	return Result{Passages: append(passages, web...), UsedWeb: true}, nil
}

// webSearch runs the collaborator call under the configured timeout.
func (r *Router) webSearch(ctx context.Context, query string) ([]websearch.Snippet, error) {
	if r.search == nil {
		return nil, fmt.Errorf("%w: no searcher configured", websearch.ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	return r.search.Search(ctx, query, r.cfg.MaxWebResults)
}

func localPassages(local []index.ScoredChunk) []Passage {
	passages := make([]Passage, 0, len(local))
	for _, hit := range local {
		passages = append(passages, Passage{
			Text:   hit.Chunk.Text,
			Origin: OriginLocal,
			Ref:    fmt.Sprintf("%s#%d", hit.Chunk.DocID, hit.Chunk.Ordinal),
			Score:  hit.Score,
		})
	}
	return passages
}

// webPassages converts snippets to passages. The engine's own relevance
// ordering is kept and normalized to rank order: rank i scores 1/(i+1).
func webPassages(snippets []websearch.Snippet) []Passage {
	passages := make([]Passage, 0, len(snippets))
	for i, s := range snippets {
		text := s.Snippet
		if s.Title != "" {
			text = s.Title + ": " + s.Snippet
		}
		passages = append(passages, Passage{
			Text:   text,
			Origin: OriginWeb,
			Ref:    s.URL,
			Score:  1.0 / float64(i+1),
		})
	}
	return passages
}
