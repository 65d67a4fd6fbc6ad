// Package keyword turns raw query text into normalized search tokens.
package keyword

import (
	"errors"
	"strings"
)

// ErrEmptyInput is returned when the input is empty or whitespace-only.
// This is the only validation failure the pipeline surfaces to callers.
var ErrEmptyInput = errors.New("keyword: empty input")

// minTokenLength filters out articles, prepositions and other short
// words that would match almost any item.
const minTokenLength = 4

// Extractor splits query text into lowercase search tokens.
type Extractor struct {
	minLength int
}

// NewExtractor creates an extractor with the default minimum token length.
func NewExtractor() *Extractor {
	return &Extractor{minLength: minTokenLength}
}

// Extract splits the input on whitespace, lowercases each word and
// discards words shorter than the minimum length. Duplicate tokens are
// collapsed; order follows first appearance but matching is
// order-insensitive. Returning zero tokens is not an error: the search
// falls back to a truncated-substring strategy in that case.
func (e *Extractor) Extract(input string) ([]string, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	seen := make(map[string]struct{})
	var tokens []string
	for _, word := range strings.Fields(input) {
		word = strings.ToLower(word)
		if len([]rune(word)) < e.minLength {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		tokens = append(tokens, word)
	}

	return tokens, nil
}

// Prefix returns the first n characters of the raw input, used by the
// substring fallback tier when token extraction comes up empty or the
// token tier finds nothing.
func Prefix(input string, n int) string {
	runes := []rune(input)
	if len(runes) <= n {
		return input
	}
	return string(runes[:n])
}
