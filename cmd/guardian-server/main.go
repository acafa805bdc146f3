// Package main provides the Guardian retrieval MCP server entry point.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/guardianai/guardian/internal/assembler"
	"github.com/guardianai/guardian/internal/chunk"
	"github.com/guardianai/guardian/internal/config"
	"github.com/guardianai/guardian/internal/embedding"
	"github.com/guardianai/guardian/internal/generation"
	"github.com/guardianai/guardian/internal/index"
	"github.com/guardianai/guardian/internal/loader"
	mcpserver "github.com/guardianai/guardian/internal/mcp"
	"github.com/guardianai/guardian/internal/rag"
	"github.com/guardianai/guardian/internal/retriever"
	"github.com/guardianai/guardian/internal/router"
	"github.com/guardianai/guardian/internal/websearch"
)

func main() {
	cfg := config.MustLoad()

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	splitter, err := chunk.NewSplitter(cfg.ChunkMaxChars, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("invalid chunking config: %v", err)
	}

	// Embedder: OpenAI when a key is configured, deterministic local
	// embeddings otherwise.
	var embedder retriever.Embedder
	var openaiClient *embedding.Client
	if cfg.HasOpenAI() {
		openaiClient, err = embedding.NewClient(cfg.OpenAIAPIKey)
		if err != nil {
			log.Fatalf("failed to create OpenAI client: %v", err)
		}
		openaiEmbedder, err := embedding.NewOpenAI(ctx, openaiClient, cfg.EmbeddingModel, cfg.EmbeddingDimension)
		if err != nil {
			if errors.Is(err, embedding.ErrModelUnavailable) {
				log.Fatalf("embedding model unavailable at startup: %v", err)
			}
			log.Fatalf("failed to create embedder: %v", err)
		}
		embedder = openaiEmbedder
	} else {
		logger.Warn("no OpenAI API key configured, using local embeddings")
		embedder = embedding.NewLocal(0)
	}

	newIndex := indexFactory(cfg, embedder.Dimension())

	ret := retriever.New(splitter, embedder, newIndex, logger)

	// Built-in knowledge base. A server that cannot load its knowledge base
	// has nothing to answer from, so failures here are fatal.
	if cfg.KnowledgeBasePath != "" {
		docs, err := loader.NewDir(cfg.KnowledgeBasePath, retriever.SourceKnowledgeBase).Load(ctx)
		if err != nil {
			log.Fatalf("failed to load knowledge base from %s: %v", cfg.KnowledgeBasePath, err)
		}
		if err := ret.Ingest(ctx, retriever.SourceKnowledgeBase, docs); err != nil {
			log.Fatalf("failed to ingest knowledge base: %v", err)
		}
		size, _ := ret.Size(ctx)
		logger.Info("knowledge base ingested", "documents", len(docs), "chunks", size)
	}

	var searcher websearch.Searcher
	if cfg.HasSerper() {
		searcher = websearch.NewSerper(cfg.SerperAPIKey, "")
	} else {
		logger.Warn("no Serper API key configured, web-search fallback disabled")
	}

	rtr := router.New(searcher, router.Config{
		FallbackThreshold: cfg.FallbackThreshold,
		DiscardThreshold:  cfg.DiscardThreshold,
		MaxWebResults:     cfg.WebSearchResults,
		Timeout:           cfg.WebSearchTimeout,
	}, logger)

	asm := assembler.New(assembler.Budgets{
		Concise:  cfg.ConciseBudget,
		Detailed: cfg.DetailedBudget,
	})

	var generator generation.Generator
	if openaiClient != nil {
		generator = generation.NewOpenAI(openaiClient.Client(), "")
	}

	service := rag.New(ret, rtr, asm, generator, cfg.RetrievalK, logger)

	server := mcpserver.NewServer(&mcpserver.Config{
		Service:   service,
		Retriever: ret,
		Backend:   cfg.IndexBackend,
	})

	// HTTP surface: landing page, health check, and the MCP endpoint.
	mux := http.NewServeMux()
	mux.HandleFunc("/", mcpserver.NewLandingHandler())
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(ret))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	if cfg.ServerMode {
		addr := "0.0.0.0:" + cfg.Port
		logger.Info("starting HTTP server", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		// Stdio mode for local clients, with the HTTP surface in the
		// background for health checks.
		go func() {
			addr := "0.0.0.0:" + cfg.Port
			logger.Info("starting health server", "addr", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("health server error", "error", err)
			}
		}()

		logger.Info("starting Guardian retrieval server (stdio mode)")
		if err := server.Run(ctx); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

func indexFactory(cfg *config.Config, dimension int) retriever.IndexFactory {
	if cfg.IndexBackend == "qdrant" {
		return func(ctx context.Context) (index.Index, error) {
			return index.NewQdrant(ctx, cfg.QdrantHost, cfg.QdrantPort, dimension)
		}
	}
	return func(ctx context.Context) (index.Index, error) {
		return index.NewMemory(), nil
	}
}
