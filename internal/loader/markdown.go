// Package loader supplies plain-text documents to the retriever. Format
// decoding lives here so the retrieval core never sees anything but text.
package loader

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

var markdown = goldmark.New(
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// FlattenMarkdown strips markdown formatting, returning the document's plain
// text. Headings, paragraphs, lists, and code blocks are kept as text and
// separated by blank lines so chunking still sees natural boundaries.
func FlattenMarkdown(source []byte) string {
	doc := markdown.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if isBlock(n) && buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.FencedCodeBlock:
			writeLines(&buf, source, v)
		case *ast.CodeBlock:
			writeLines(&buf, source, v)
		case *ast.AutoLink:
			buf.Write(v.URL(source))
		}
		return ast.WalkContinue, nil
	})

	return string(bytes.TrimSpace(bytes.ReplaceAll(buf.Bytes(), []byte("\n\n\n"), []byte("\n\n"))))
}

// Title returns the document's top-level heading, empty when there is none.
func Title(source []byte) string {
	doc := markdown.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(1),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return ""
	}
	return string(tree.Items[0].Title)
}

func isBlock(n ast.Node) bool {
	switch n.(type) {
	case *ast.Heading, *ast.Paragraph, *ast.ListItem, *ast.Blockquote,
		*ast.FencedCodeBlock, *ast.CodeBlock:
		return true
	}
	return false
}

func writeLines(buf *bytes.Buffer, source []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
}
