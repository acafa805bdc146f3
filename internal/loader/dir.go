package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/guardianai/guardian/internal/retriever"
)

// Loader supplies (id, plain text) documents for ingestion.
type Loader interface {
	Load(ctx context.Context) ([]retriever.Document, error)
}

// Dir loads .txt and .md files from a directory tree. Markdown is flattened
// to plain text; everything else is passed through as-is.
type Dir struct {
	root   string
	source retriever.Source
}

// NewDir creates a directory loader labeling its documents with the given
// source.
func NewDir(root string, source retriever.Source) *Dir {
	return &Dir{root: root, source: source}
}

// Load walks the tree and reads every supported file. Unsupported extensions
// are skipped silently; read failures abort the load so a broken document
// set never half-ingests.
func (d *Dir) Load(ctx context.Context) ([]retriever.Document, error) {
	var docs []retriever.Document

	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !supported(path) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			rel = path
		}

		docs = append(docs, retriever.Document{
			ID:     rel,
			Source: d.source,
			Text:   Extract(path, raw),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load directory %s: %w", d.root, err)
	}

	return docs, nil
}

// Text wraps already-decoded text (e.g. an upload that was format-converted
// upstream) as a single-document loader.
type Text struct {
	ID     string
	Source retriever.Source
	Body   string
}

// Load returns the wrapped document.
func (t *Text) Load(ctx context.Context) ([]retriever.Document, error) {
	return []retriever.Document{{ID: t.ID, Source: t.Source, Text: t.Body}}, nil
}

// Extract decodes a file's raw bytes to plain text based on its extension.
func Extract(path string, raw []byte) string {
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return FlattenMarkdown(raw)
	}
	return string(raw)
}

func supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}
