// Package websearch provides the live web-search collaborator used when
// local retrieval confidence is low.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultBaseURL is the Serper search endpoint.
const DefaultBaseURL = "https://google.serper.dev/search"

// ErrUnavailable means the web-search collaborator could not be reached,
// timed out, or returned an error. Consumers degrade to local-only results;
// this is never fatal for a query.
var ErrUnavailable = errors.New("web search unavailable")

// Snippet is a single organic search result.
type Snippet struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"link"`
}

// Searcher returns ordered web results for a query, bounded by the caller's
// context deadline.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Snippet, error)
}

// Serper is a Searcher backed by the Serper API.
type Serper struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewSerper creates a Serper client. baseURL is overridable for tests; empty
// uses the production endpoint.
func NewSerper(apiKey, baseURL string) *Serper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Serper{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// Search posts the query and returns up to limit organic results in engine
// order. All transport failures, timeouts, and non-2xx responses surface
// wrapped in ErrUnavailable.
func (s *Serper) Search(ctx context.Context, query string, limit int) ([]Snippet, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("%w: SERPER_API_KEY not configured", ErrUnavailable)
	}

	payload, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, body)
	}

	var result struct {
		Organic []Snippet `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	snippets := result.Organic
	if limit > 0 && len(snippets) > limit {
		snippets = snippets[:limit]
	}
	return snippets, nil
}
