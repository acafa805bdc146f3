// Package chunk splits document text into overlapping fixed-size segments.
package chunk

import (
	"fmt"
	"strings"
	"unicode"
)

// Chunk is a bounded contiguous span of a document's text, the unit
// indexed and retrieved.
type Chunk struct {
	DocID   string // Parent document identifier
	Ordinal int    // Position in document (0, 1, 2...)
	Text    string // Text span, including overlap with the previous chunk
	Start   int    // Rune offset of Text in the original document
}

// Splitter produces deterministic overlapping chunks. Splitting prefers
// paragraph breaks, then sentence ends, then whitespace inside the length
// budget, falling back to a hard cut when the window holds none.
type Splitter struct {
	maxChars int
	overlap  int
}

// NewSplitter creates a Splitter. Overlap must satisfy 0 <= overlap < maxChars.
func NewSplitter(maxChars, overlap int) (*Splitter, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("max chars must be positive, got %d", maxChars)
	}
	if overlap < 0 || overlap >= maxChars {
		return nil, fmt.Errorf("overlap must satisfy 0 <= overlap < max chars, got overlap=%d max=%d",
			overlap, maxChars)
	}
	return &Splitter{maxChars: maxChars, overlap: overlap}, nil
}

// Split chunks text for the given document. The same input always yields the
// same chunk sequence and ordinals. An empty document yields no chunks; a
// document shorter than the length budget yields exactly one.
func (s *Splitter) Split(docID, text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.maxChars {
		return []Chunk{{DocID: docID, Ordinal: 0, Text: text, Start: 0}}
	}

	chunks := make([]Chunk, 0, len(runes)/s.maxChars+1)
	start := 0
	for start < len(runes) {
		end := start + s.maxChars
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutPoint(runes, start, end)
		}

		// Whitespace-only spans are kept: every chunk's Start must line up
		// with the previous chunk's end so the document is covered without
		// gaps.
		chunks = append(chunks, Chunk{
			DocID:   docID,
			Ordinal: len(chunks),
			Text:    string(runes[start:end]),
			Start:   start,
		})

		if end >= len(runes) {
			break
		}

		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// cutPoint finds the best boundary in (start, end]. Boundaries in the first
// half of the window are ignored so chunks never degenerate to fragments.
func cutPoint(runes []rune, start, end int) int {
	floor := start + (end-start)/2

	// Paragraph break: cut after the blank line.
	for i := end; i > floor; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}

	// Sentence end: a terminator followed by whitespace.
	for i := end; i > floor+1; i-- {
		if isSentenceEnd(runes[i-2]) && unicode.IsSpace(runes[i-1]) {
			return i
		}
	}

	// Any whitespace.
	for i := end; i > floor; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}

	// Hard cut.
	return end
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return false
}
