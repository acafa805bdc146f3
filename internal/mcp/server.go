package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/guardianai/guardian/internal/rag"
	"github.com/guardianai/guardian/internal/retriever"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server    *mcp.Server
	service   *rag.Service
	retriever *retriever.Retriever
}

// Config holds server dependencies.
type Config struct {
	Service   *rag.Service
	Retriever *retriever.Retriever
	// Backend names the index backend for status reporting.
	Backend string
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "guardian-retrieval-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the knowledge base, falling back to live web search when local confidence is low. Returns the answer with source attributions.",
	}, makeAskHandler(cfg.Service))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Retrieve the context bundle for a query without generating an answer. Returns rank-ordered passages with local/web attribution.",
	}, makeSearchHandler(cfg.Service))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Replace the active knowledge source with an uploaded plain-text document. Subsequent queries retrieve from it.",
	}, makeIngestHandler(cfg.Retriever))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Get the current status of the vector index: chunk count, active knowledge source, and backend.",
	}, makeStatusHandler(cfg.Retriever, cfg.Backend))

	return &Server{
		server:    server,
		service:   cfg.Service,
		retriever: cfg.Retriever,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
