package loader

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"

	"github.com/guardianai/guardian/internal/retriever"
)

// GitHub loads knowledge-base documents from a repository directory. It is
// the remote counterpart to Dir: teams keep their knowledge base in a docs
// repo and ingest straight from it.
type GitHub struct {
	client   *github.Client
	owner    string
	repo     string
	basePath string
	source   retriever.Source
}

// NewGitHub creates a GitHub loader. If GITHUB_TOKEN is set the client is
// authenticated for higher rate limits; rate limiting is handled with
// automatic retry either way.
func NewGitHub(owner, repo, basePath string, source retriever.Source) (*GitHub, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}

	client := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}

	return &GitHub{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
		source:   source,
	}, nil
}

// Load lists and fetches every supported file under the base path.
func (g *GitHub) Load(ctx context.Context) ([]retriever.Document, error) {
	paths, err := g.listRecursive(ctx, g.basePath, "")
	if err != nil {
		return nil, err
	}

	docs := make([]retriever.Document, 0, len(paths))
	for _, rel := range paths {
		text, err := g.fetch(ctx, rel)
		if err != nil {
			return nil, err
		}
		docs = append(docs, retriever.Document{
			ID:     rel,
			Source: g.source,
			Text:   text,
		})
	}

	return docs, nil
}

// listRecursive traverses directories collecting supported file paths.
func (g *GitHub) listRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var paths []string

	_, dirContents, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}

		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			if supported(*item.Name) {
				paths = append(paths, itemRelPath)
			}
		case "dir":
			sub, err := g.listRecursive(ctx, path.Join(fullPath, *item.Name), itemRelPath)
			if err != nil {
				return nil, err
			}
			paths = append(paths, sub...)
		}
	}

	return paths, nil
}

// fetch retrieves one file and decodes it to plain text.
func (g *GitHub) fetch(ctx context.Context, relativePath string) (string, error) {
	fullPath := path.Join(g.basePath, relativePath)

	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, fullPath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get content of %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return "", fmt.Errorf("no file content returned for %s", fullPath)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(*fileContent.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("failed to decode content of %s: %w", fullPath, err)
	}

	return Extract(relativePath, raw), nil
}
