// Package config loads Guardian configuration from the environment.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all tunables for the retrieval core and its collaborators.
type Config struct {
	Port       string `envconfig:"PORT" default:"8080"`
	ServerMode bool   `envconfig:"SERVER_MODE" default:"false"`

	// Chunking
	ChunkMaxChars int `envconfig:"CHUNK_MAX_CHARS" default:"500"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"50"`

	// Retrieval
	RetrievalK int `envconfig:"RETRIEVAL_K" default:"3"`

	// Embedding
	EmbeddingModel     string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimension int    `envconfig:"EMBEDDING_DIMENSION" default:"1536"`
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY"`

	// Fallback routing. Thresholds are cosine similarities in [0,1]:
	// below FallbackThreshold the web search runs, below DiscardThreshold
	// local results are dropped from a merged response.
	FallbackThreshold float64 `envconfig:"FALLBACK_THRESHOLD" default:"0.40"`
	DiscardThreshold  float64 `envconfig:"DISCARD_THRESHOLD" default:"0.20"`

	// Web search
	SerperAPIKey     string        `envconfig:"SERPER_API_KEY"`
	WebSearchTimeout time.Duration `envconfig:"WEB_SEARCH_TIMEOUT" default:"10s"`
	WebSearchResults int           `envconfig:"WEB_SEARCH_RESULTS" default:"3"`

	// Context assembly budgets (characters) per response mode.
	ConciseBudget  int `envconfig:"CONCISE_BUDGET" default:"2000"`
	DetailedBudget int `envconfig:"DETAILED_BUDGET" default:"6000"`

	// Index backend: "memory" (default) or "qdrant".
	IndexBackend string `envconfig:"INDEX_BACKEND" default:"memory"`
	QdrantHost   string `envconfig:"QDRANT_HOST" default:"localhost"`
	QdrantPort   int    `envconfig:"QDRANT_PORT" default:"6334"`

	// KnowledgeBasePath is the directory holding the built-in knowledge base
	// documents ingested at startup. Empty disables the initial ingest.
	KnowledgeBasePath string `envconfig:"KNOWLEDGE_BASE_PATH"`
}

// Load reads configuration from the environment, loading .env first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("GUARDIAN", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad is Load for main functions.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate checks cross-field constraints that envconfig defaults cannot express.
func (c *Config) Validate() error {
	if c.ChunkMaxChars <= 0 {
		return fmt.Errorf("chunk max chars must be positive, got %d", c.ChunkMaxChars)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkMaxChars {
		return fmt.Errorf("chunk overlap must satisfy 0 <= overlap < max chars, got overlap=%d max=%d",
			c.ChunkOverlap, c.ChunkMaxChars)
	}
	if c.RetrievalK <= 0 {
		return fmt.Errorf("retrieval k must be positive, got %d", c.RetrievalK)
	}
	if c.DiscardThreshold > c.FallbackThreshold {
		return fmt.Errorf("discard threshold %.2f must not exceed fallback threshold %.2f",
			c.DiscardThreshold, c.FallbackThreshold)
	}
	if c.IndexBackend != "memory" && c.IndexBackend != "qdrant" {
		return fmt.Errorf("unknown index backend %q", c.IndexBackend)
	}
	return nil
}

// HasSerper reports whether the web-search collaborator is configured.
func (c *Config) HasSerper() bool {
	return c.SerperAPIKey != ""
}

// HasOpenAI reports whether the OpenAI-backed embedder and generator are usable.
func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
