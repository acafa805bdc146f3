package generation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/guardianai/guardian/internal/assembler"
	"github.com/guardianai/guardian/internal/router"
)

func bundleOf(passages ...router.Passage) assembler.Bundle {
	return assembler.Bundle{Passages: passages}
}

func TestFormatContext_Attribution(t *testing.T) {
	g := &OpenAI{maxChars: DefaultMaxChars}

	got := g.formatContext(bundleOf(
		router.Passage{Text: "local evidence", Origin: router.OriginLocal, Ref: "doc.txt#0"},
		router.Passage{Text: "web evidence", Origin: router.OriginWeb, Ref: "https://example.com"},
	))

	assert.Contains(t, got, "[1] (knowledge base) local evidence")
	assert.Contains(t, got, "[2] (web: https://example.com) web evidence")
}

func TestFormatContext_CapOnRuneBoundary(t *testing.T) {
	g := &OpenAI{maxChars: 40}

	// Multibyte text: a byte-index cut would split a rune mid-sequence.
	got := g.formatContext(bundleOf(
		router.Passage{Text: strings.Repeat("日本語のテキスト ", 20), Origin: router.OriginLocal, Ref: "doc.txt#0"},
	))

	assert.True(t, utf8.ValidString(got), "cap must not split a rune: %q", got)
	assert.LessOrEqual(t, len([]rune(got)), 40)
}

func TestFormatContext_UnderCapUntouched(t *testing.T) {
	g := &OpenAI{maxChars: DefaultMaxChars}

	got := g.formatContext(bundleOf(
		router.Passage{Text: "short", Origin: router.OriginLocal, Ref: "doc.txt#0"},
	))
	assert.Equal(t, "[1] (knowledge base) short\n\n", got)
}
