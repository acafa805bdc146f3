// Package main provides the sync CLI for Guardian knowledge base indexing.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/guardianai/guardian/internal/chunk"
	"github.com/guardianai/guardian/internal/config"
	"github.com/guardianai/guardian/internal/embedding"
	"github.com/guardianai/guardian/internal/index"
	"github.com/guardianai/guardian/internal/loader"
	"github.com/guardianai/guardian/internal/retriever"
)

var (
	flagDir    string
	flagGitHub string
	flagPath   string
)

var rootCmd = &cobra.Command{
	Use:   "guardian-sync",
	Short: "Guardian knowledge base indexing tool",
	Long:  "CLI tool for building and validating the Guardian knowledge base index",
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index knowledge base documents from a directory or GitHub repository",
	Long: `Loads documents, chunks them, generates embeddings, and builds the
vector index, printing indexing statistics.

This command:
1. Loads .txt and .md documents from the configured source
2. Splits each document into overlapping chunks
3. Generates embeddings for every chunk
4. Inserts the chunks into the configured index backend
5. Prints per-run statistics

Environment variables:
  GUARDIAN_INDEX_BACKEND  "memory" or "qdrant" (default: memory)
  GUARDIAN_QDRANT_HOST    Qdrant hostname (default: localhost)
  GUARDIAN_QDRANT_PORT    Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY          OpenAI API key for embeddings (optional,
                          local embeddings are used when absent)
  GITHUB_TOKEN            GitHub token for higher rate limits (optional)`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&flagDir, "dir", "", "local directory holding knowledge base documents")
	syncCmd.Flags().StringVar(&flagGitHub, "github", "", "GitHub repository in owner/repo form")
	syncCmd.Flags().StringVar(&flagPath, "path", "", "path within the GitHub repository (with --github)")
	rootCmd.AddCommand(syncCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println("Starting sync...")
	fmt.Println()

	// 1. Pick the document source
	src, name, err := documentSource(cfg)
	if err != nil {
		return err
	}

	// 2. Load documents
	fmt.Printf("Loading documents from %s...\n", name)
	docs, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	fmt.Printf("Loaded %d documents\n", len(docs))

	// 3. Initialize embedder
	var embedder retriever.Embedder
	if cfg.HasOpenAI() {
		client, err := embedding.NewClient(cfg.OpenAIAPIKey)
		if err != nil {
			return fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		embedder, err = embedding.NewOpenAI(ctx, client, cfg.EmbeddingModel, cfg.EmbeddingDimension)
		if err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}
	} else {
		fmt.Println("No OpenAI API key, using local embeddings")
		embedder = embedding.NewLocal(0)
	}

	// 4. Initialize chunker and retriever
	splitter, err := chunk.NewSplitter(cfg.ChunkMaxChars, cfg.ChunkOverlap)
	if err != nil {
		return err
	}

	newIndex := func(ctx context.Context) (index.Index, error) {
		if cfg.IndexBackend == "qdrant" {
			return index.NewQdrant(ctx, cfg.QdrantHost, cfg.QdrantPort, embedder.Dimension())
		}
		return index.NewMemory(), nil
	}

	if cfg.IndexBackend == "qdrant" {
		fmt.Printf("Using Qdrant at %s:%d\n", cfg.QdrantHost, cfg.QdrantPort)
	}

	ret := retriever.New(splitter, embedder, newIndex, slog.Default())

	// 5. Run the ingest
	fmt.Println()
	fmt.Println("Indexing documents...")
	if err := ret.Ingest(ctx, retriever.SourceKnowledgeBase, docs); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	size, err := ret.Size(ctx)
	if err != nil {
		return fmt.Errorf("failed to read index size: %w", err)
	}

	// 6. Print results
	fmt.Println()
	fmt.Println("Sync complete!")
	fmt.Printf("  Documents: %d\n", len(docs))
	fmt.Printf("  Chunks: %d\n", size)
	fmt.Printf("  Backend: %s\n", cfg.IndexBackend)
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Millisecond))

	return nil
}

func documentSource(cfg *config.Config) (loader.Loader, string, error) {
	switch {
	case flagDir != "" && flagGitHub != "":
		return nil, "", fmt.Errorf("--dir and --github are mutually exclusive")
	case flagGitHub != "":
		owner, repo, ok := strings.Cut(flagGitHub, "/")
		if !ok || owner == "" || repo == "" {
			return nil, "", fmt.Errorf("--github must be owner/repo, got %q", flagGitHub)
		}
		src, err := loader.NewGitHub(owner, repo, flagPath, retriever.SourceKnowledgeBase)
		if err != nil {
			return nil, "", err
		}
		return src, flagGitHub, nil
	case flagDir != "":
		return loader.NewDir(flagDir, retriever.SourceKnowledgeBase), flagDir, nil
	case cfg.KnowledgeBasePath != "":
		return loader.NewDir(cfg.KnowledgeBasePath, retriever.SourceKnowledgeBase), cfg.KnowledgeBasePath, nil
	default:
		return nil, "", fmt.Errorf("no document source: pass --dir or --github, or set GUARDIAN_KNOWLEDGE_BASE_PATH")
	}
}
