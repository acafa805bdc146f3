package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/guardianai/guardian/internal/assembler"
	"github.com/guardianai/guardian/internal/rag"
	"github.com/guardianai/guardian/internal/retriever"
	"github.com/guardianai/guardian/internal/router"
)

// makeAskHandler creates the ask tool handler. Flow:
// 1. Embed the question and search the active index
// 2. Route: local-only, web fallback, or merged per the threshold policy
// 3. Assemble the bounded context bundle for the requested mode
// 4. Generate the answer strictly from the bundle
// An empty evidence set returns a message, not an error.
func makeAskHandler(service *rag.Service) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		answer, err := service.Ask(ctx, input.Question, assembler.ParseMode(input.Mode))
		if err != nil {
			if errors.Is(err, router.ErrEmptyResult) {
				return nil, AskOutput{
					Sources: []string{},
					Message: "No answer available: nothing relevant in the knowledge base and web search returned no results.",
				}, nil
			}
			return nil, AskOutput{}, fmt.Errorf("ask failed: %w", err)
		}

		return nil, AskOutput{
			Answer:  answer.Text,
			Sources: answer.Sources,
			UsedWeb: answer.UsedWeb,
		}, nil
	}
}

// makeSearchHandler creates the search_knowledge tool handler. Stops at the
// assembled bundle without invoking generation.
func makeSearchHandler(service *rag.Service) func(
	context.Context, *mcp.CallToolRequest, SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, SearchOutput, error,
	) {
		bundle, usedWeb, err := service.Search(ctx, input.Query, assembler.ParseMode(input.Mode))
		if err != nil {
			if errors.Is(err, router.ErrEmptyResult) {
				return nil, SearchOutput{
					Passages: []PassageResult{},
					Message:  "No matching passages found. Try broader search terms.",
				}, nil
			}
			return nil, SearchOutput{}, fmt.Errorf("search failed: %w", err)
		}

		passages := make([]PassageResult, 0, len(bundle.Passages))
		for _, p := range bundle.Passages {
			passages = append(passages, PassageResult{
				Text:   p.Text,
				Origin: string(p.Origin),
				Ref:    p.Ref,
				Score:  p.Score,
			})
		}

		return nil, SearchOutput{
			Passages:   passages,
			TotalChars: bundle.TotalChars,
			UsedWeb:    usedWeb,
		}, nil
	}
}

// makeIngestHandler creates the ingest_document tool handler. The upload
// replaces the active knowledge source; a failed ingest leaves the previous
// index serving.
func makeIngestHandler(ret *retriever.Retriever) func(
	context.Context, *mcp.CallToolRequest, IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestInput) (
		*mcp.CallToolResult, IngestOutput, error,
	) {
		docs := []retriever.Document{{
			ID:     input.DocumentID,
			Source: retriever.SourceUpload,
			Text:   input.Text,
		}}

		if err := ret.Ingest(ctx, retriever.SourceUpload, docs); err != nil {
			return nil, IngestOutput{}, fmt.Errorf("ingest failed: %w", err)
		}

		size, err := ret.Size(ctx)
		if err != nil {
			return nil, IngestOutput{}, fmt.Errorf("index size: %w", err)
		}

		return nil, IngestOutput{
			Chunks:       size,
			ActiveSource: string(ret.ActiveSource()),
		}, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler.
func makeStatusHandler(ret *retriever.Retriever, backend string) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		size, err := ret.Size(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("index size: %w", err)
		}

		return nil, StatusOutput{
			Chunks:       size,
			ActiveSource: string(ret.ActiveSource()),
			Backend:      backend,
		}, nil
	}
}
