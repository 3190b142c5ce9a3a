package rag

import (
	"strings"
	"unicode/utf8"
)

const (
	// estimatedCharsPerToken converts a token budget back to characters when
	// truncating the tail chunk.
	estimatedCharsPerToken = 4

	// minTailChars is the smallest truncated tail worth including. A shorter
	// fragment carries too little signal to justify the cut.
	minTailChars = 100
)

// ContextAssembler packs ranked search hits into a single string bounded by
// an approximate token budget.
type ContextAssembler struct {
	tokenizer Tokenizer
}

// NewContextAssembler creates an assembler. A nil tokenizer selects the
// len/4 Estimator.
func NewContextAssembler(tokenizer Tokenizer) *ContextAssembler {
	if tokenizer == nil {
		tokenizer = Estimator{}
	}
	return &ContextAssembler{tokenizer: tokenizer}
}

// Assemble consumes contents greedily in rank order, appending whole entries
// while the running token estimate stays within maxTokens. When an entry
// would overflow the budget, a truncated prefix is appended instead if the
// remaining budget converts to more than minTailChars characters; either way
// assembly stops at that entry. Accepted segments are joined with a blank
// line. Returns "" when nothing fits.
func (a *ContextAssembler) Assemble(contents []string, maxTokens int) string {
	var parts []string
	used := 0

	for _, content := range contents {
		tokens := a.tokenizer.CountTokens(content)
		if used+tokens <= maxTokens {
			parts = append(parts, content)
			used += tokens
			continue
		}

		remaining := (maxTokens - used) * estimatedCharsPerToken
		if remaining > minTailChars {
			parts = append(parts, truncateAtRune(content, remaining))
		}
		break
	}

	return strings.Join(parts, "\n\n")
}

// truncateAtRune cuts s to at most n bytes without splitting a rune.
func truncateAtRune(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
