package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardianai/guardian/internal/retriever"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDir_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "phishing.txt", "Phishing attacks impersonate trusted entities.")
	writeFile(t, dir, "guides/passwords.md", "# Passwords\n\nUse a password manager.")
	writeFile(t, dir, "ignore.pdf", "binary junk")

	docs, err := NewDir(dir, retriever.SourceKnowledgeBase).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2, "unsupported extensions are skipped")

	byID := make(map[string]retriever.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
		assert.Equal(t, retriever.SourceKnowledgeBase, d.Source)
	}

	require.Contains(t, byID, "phishing.txt")
	assert.Equal(t, "Phishing attacks impersonate trusted entities.", byID["phishing.txt"].Text)

	mdID := filepath.Join("guides", "passwords.md")
	require.Contains(t, byID, mdID)
	assert.Contains(t, byID[mdID].Text, "Use a password manager.")
	assert.NotContains(t, byID[mdID].Text, "#", "markdown must be flattened")
}

func TestDir_LoadMissingRoot(t *testing.T) {
	_, err := NewDir(filepath.Join(t.TempDir(), "nope"), retriever.SourceKnowledgeBase).Load(context.Background())
	assert.Error(t, err)
}

func TestDir_LoadEmpty(t *testing.T) {
	docs, err := NewDir(t.TempDir(), retriever.SourceKnowledgeBase).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestText_Load(t *testing.T) {
	l := &Text{ID: "upload-1", Source: retriever.SourceUpload, Body: "uploaded text"}

	docs, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "upload-1", docs[0].ID)
	assert.Equal(t, retriever.SourceUpload, docs[0].Source)
	assert.Equal(t, "uploaded text", docs[0].Text)
}

func TestExtract(t *testing.T) {
	assert.Equal(t, "plain", Extract("a.txt", []byte("plain")))
	assert.Equal(t, "Heading", Extract("a.md", []byte("# Heading")))
	assert.Equal(t, "Heading", Extract("A.MD", []byte("# Heading")))
}
