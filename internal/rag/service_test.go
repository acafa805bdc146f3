package rag

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardianai/guardian/internal/assembler"
	"github.com/guardianai/guardian/internal/chunk"
	"github.com/guardianai/guardian/internal/embedding"
	"github.com/guardianai/guardian/internal/generation"
	"github.com/guardianai/guardian/internal/index"
	"github.com/guardianai/guardian/internal/retriever"
	"github.com/guardianai/guardian/internal/router"
	"github.com/guardianai/guardian/internal/websearch"
)

const securityNotes = `Phishing attacks impersonate trusted entities to steal credentials.
They often arrive as urgent emails asking the victim to log in.

Malware is software designed to damage or infiltrate computer systems.
Ransomware encrypts files and demands payment for the key.

Multi-factor authentication adds a second verification step beyond the password.`

type fakeSearcher struct {
	snippets []websearch.Snippet
	err      error
	calls    int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]websearch.Snippet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snippets, nil
}

type fakeGenerator struct {
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, query string, bundle assembler.Bundle, mode assembler.Mode) (string, error) {
	f.calls++
	return fmt.Sprintf("answer from %d passages", len(bundle.Passages)), nil
}

func newTestService(t *testing.T, search websearch.Searcher, gen *fakeGenerator) (*Service, *retriever.Retriever) {
	t.Helper()

	splitter, err := chunk.NewSplitter(120, 20)
	require.NoError(t, err)
	factory := func(ctx context.Context) (index.Index, error) {
		return index.NewMemory(), nil
	}
	ret := retriever.New(splitter, embedding.NewLocal(0), factory, nil)

	require.NoError(t, ret.Ingest(context.Background(), retriever.SourceKnowledgeBase, []retriever.Document{
		{ID: "security.txt", Source: retriever.SourceKnowledgeBase, Text: securityNotes},
	}))

	rtr := router.New(search, router.Config{
		FallbackThreshold: 0.40,
		DiscardThreshold:  0.20,
		MaxWebResults:     3,
	}, nil)

	asm := assembler.New(assembler.Budgets{Concise: 2000, Detailed: 6000})

	var generator generation.Generator
	if gen != nil {
		generator = gen
	}

	svc := New(ret, rtr, asm, generator, 3, nil)
	return svc, ret
}

func TestService_SearchLocalHit(t *testing.T) {
	search := &fakeSearcher{snippets: []websearch.Snippet{
		{Title: "web", Snippet: "should not appear", URL: "https://example.com"},
	}}
	svc, _ := newTestService(t, search, &fakeGenerator{})

	bundle, usedWeb, err := svc.Search(context.Background(),
		"How do phishing attacks steal credentials from a victim?", assembler.ModeConcise)
	require.NoError(t, err)

	assert.False(t, usedWeb)
	assert.Zero(t, search.calls, "a confident local answer must not reach the web")
	require.NotEmpty(t, bundle.Passages)
	assert.Contains(t, bundle.Passages[0].Text, "impersonate trusted entities")
	assert.Equal(t, router.OriginLocal, bundle.Passages[0].Origin)
}

func TestService_SearchWebFallback(t *testing.T) {
	search := &fakeSearcher{snippets: []websearch.Snippet{
		{Title: "Tokyo Weather", Snippet: "Sunny with highs of 28C", URL: "https://example.com/tokyo"},
	}}
	svc, _ := newTestService(t, search, &fakeGenerator{})

	bundle, usedWeb, err := svc.Search(context.Background(),
		"today's weather in Tokyo", assembler.ModeConcise)
	require.NoError(t, err)

	assert.True(t, usedWeb)
	assert.Equal(t, 1, search.calls)
	require.NotEmpty(t, bundle.Passages)

	// An off-topic query scores near zero locally, so the bundle is web-only.
	for _, p := range bundle.Passages {
		assert.Equal(t, router.OriginWeb, p.Origin)
	}
	assert.Contains(t, bundle.Passages[0].Text, "Sunny with highs of 28C")
}

func TestService_SearchWebFailure(t *testing.T) {
	search := &fakeSearcher{err: websearch.ErrUnavailable}
	svc, _ := newTestService(t, search, &fakeGenerator{})

	// Off-topic query plus a dead web collaborator still returns the best
	// local evidence rather than an error.
	bundle, usedWeb, err := svc.Search(context.Background(),
		"today's weather in Tokyo", assembler.ModeConcise)
	require.NoError(t, err)
	assert.False(t, usedWeb)
	assert.NotEmpty(t, bundle.Passages)
}

func TestService_SearchEmptyEverywhere(t *testing.T) {
	splitter, err := chunk.NewSplitter(120, 20)
	require.NoError(t, err)
	factory := func(ctx context.Context) (index.Index, error) {
		return index.NewMemory(), nil
	}
	ret := retriever.New(splitter, embedding.NewLocal(0), factory, nil)

	rtr := router.New(&fakeSearcher{err: websearch.ErrUnavailable}, router.Config{
		FallbackThreshold: 0.40,
		DiscardThreshold:  0.20,
	}, nil)
	svc := New(ret, rtr, assembler.New(assembler.Budgets{Concise: 2000, Detailed: 6000}), nil, 3, nil)

	// Nothing ingested and no web: the query has no answer.
	_, _, err = svc.Search(context.Background(), "anything at all", assembler.ModeConcise)
	assert.ErrorIs(t, err, router.ErrEmptyResult)
}

func TestService_Ask(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := newTestService(t, &fakeSearcher{}, gen)

	answer, err := svc.Ask(context.Background(),
		"How do phishing attacks steal credentials from a victim?", assembler.ModeConcise)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.False(t, answer.UsedWeb)
	assert.True(t, strings.HasPrefix(answer.Text, "answer from"))
	require.NotEmpty(t, answer.Sources)
	assert.True(t, strings.HasPrefix(answer.Sources[0], "local:security.txt#"))
}

func TestService_AskWithoutGenerator(t *testing.T) {
	svc, _ := newTestService(t, &fakeSearcher{}, nil)

	_, err := svc.Ask(context.Background(), "anything", assembler.ModeConcise)
	assert.Error(t, err)
}

func TestService_UploadReplacesKnowledge(t *testing.T) {
	search := &fakeSearcher{snippets: []websearch.Snippet{
		{Title: "web", Snippet: "fallback snippet", URL: "https://example.com"},
	}}
	svc, ret := newTestService(t, search, &fakeGenerator{})

	require.NoError(t, ret.Ingest(context.Background(), retriever.SourceUpload, []retriever.Document{
		{ID: "contract.txt", Source: retriever.SourceUpload,
			Text: "The service agreement renews annually unless either party cancels in writing."},
	}))

	bundle, _, err := svc.Search(context.Background(),
		"When does the service agreement renew unless a party cancels?", assembler.ModeConcise)
	require.NoError(t, err)
	require.NotEmpty(t, bundle.Passages)
	assert.Contains(t, bundle.Passages[0].Text, "renews annually")
	assert.Equal(t, "contract.txt#0", bundle.Passages[0].Ref)
}
