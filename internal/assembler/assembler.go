// Package assembler formats retrieved evidence into a bounded context bundle
// for the generation stage.
package assembler

import (
	"strings"
	"unicode"

	"github.com/guardianai/guardian/internal/router"
)

// Mode selects how much context the generation stage receives.
type Mode string

const (
	ModeConcise  Mode = "concise"
	ModeDetailed Mode = "detailed"
)

// ParseMode maps a user-facing string to a Mode, defaulting to concise.
func ParseMode(s string) Mode {
	if strings.EqualFold(s, string(ModeDetailed)) {
		return ModeDetailed
	}
	return ModeConcise
}

// Budgets holds the per-mode character budgets.
type Budgets struct {
	Concise  int
	Detailed int
}

// Bundle is the final, size-bounded set of passages handed to generation.
// Passages appear in rank order and keep their source attribution.
type Bundle struct {
	Passages   []router.Passage
	TotalChars int
	Truncated  bool // true when the budget cut evidence off
}

// Assembler greedily packs passages under a budget. Same result, budget, and
// mode always yield the same bundle.
type Assembler struct {
	budgets Budgets
}

// New creates an Assembler with the given budgets.
func New(budgets Budgets) *Assembler {
	return &Assembler{budgets: budgets}
}

// Budget returns the character budget for a mode.
func (a *Assembler) Budget(mode Mode) int {
	if mode == ModeDetailed {
		return a.budgets.Detailed
	}
	return a.budgets.Concise
}

// Assemble includes passages in rank order until the budget is reached. A
// passage that would overflow is truncated at a sentence boundary, then at a
// word boundary, never mid-word; when not even a word fits, assembly stops.
func (a *Assembler) Assemble(result router.Result, mode Mode) Bundle {
	budget := a.Budget(mode)

	bundle := Bundle{}
	for _, passage := range result.Passages {
		remaining := budget - bundle.TotalChars
		if remaining <= 0 {
			bundle.Truncated = true
			break
		}

		runes := []rune(passage.Text)
		if len(runes) <= remaining {
			bundle.Passages = append(bundle.Passages, passage)
			bundle.TotalChars += len(runes)
			continue
		}

		cut := truncateAt(runes, remaining)
		if cut == "" {
			bundle.Truncated = true
			break
		}

		passage.Text = cut
		bundle.Passages = append(bundle.Passages, passage)
		bundle.TotalChars += len([]rune(cut))
		bundle.Truncated = true
		break
	}

	return bundle
}

// truncateAt cuts text to at most limit runes at the last sentence end, then
// the last whitespace, inside the window. Returns "" when no boundary fits.
func truncateAt(runes []rune, limit int) string {
	window := runes[:limit]

	for i := len(window); i > 1; i-- {
		if isSentenceEnd(window[i-2]) && unicode.IsSpace(window[i-1]) {
			return strings.TrimRight(string(window[:i]), " \t\n")
		}
	}
	// A terminator at the very end of the window also counts.
	if isSentenceEnd(window[len(window)-1]) {
		return string(window)
	}

	for i := len(window); i > 0; i-- {
		if unicode.IsSpace(window[i-1]) {
			return strings.TrimRight(string(window[:i]), " \t\n")
		}
	}

	return ""
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return false
}
