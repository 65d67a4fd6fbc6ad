// Package search implements the tiered candidate lookup over the
// corpus. Tiers run strictly in order, each one conditioned on the
// previous tier finding nothing, so relevance degrades before
// availability does.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/rmontanez/chequeo/internal/keyword"
	"github.com/rmontanez/chequeo/internal/model"
	"github.com/rmontanez/chequeo/internal/store"
)

// prefixLength is how much of the raw input the substring tier uses.
const prefixLength = 20

// Tier identifies which stage of the fallback chain produced a match.
type Tier int

const (
	// TierToken matched on at least one extracted keyword.
	TierToken Tier = iota + 1
	// TierPrefix matched on the leading fragment of the raw input.
	TierPrefix
	// TierMostRecent fell back to the newest item in the corpus.
	TierMostRecent
)

func (t Tier) String() string {
	switch t {
	case TierToken:
		return "token"
	case TierPrefix:
		return "prefix"
	case TierMostRecent:
		return "most_recent"
	default:
		return "none"
	}
}

// Searcher runs the tier chain against an injected corpus store.
type Searcher struct {
	corpus store.CorpusStore
}

// NewSearcher creates a searcher over the given corpus.
func NewSearcher(corpus store.CorpusStore) *Searcher {
	return &Searcher{corpus: corpus}
}

// Find returns the best candidate for the given tokens and raw input.
// A nil item with a nil error means the corpus is empty; the caller
// substitutes the static safe default. Any storage error is returned
// as-is for the pipeline to classify.
func (s *Searcher) Find(ctx context.Context, tokens []string, rawInput string) (*model.ContentItem, Tier, error) {
	// Tier 1: token match. Skipped when extraction yielded nothing.
	if len(tokens) > 0 {
		item, err := s.corpus.FindByTokens(ctx, tokens)
		if err == nil {
			return item, TierToken, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, 0, fmt.Errorf("token tier: %w", err)
		}
	}

	// Tier 2: leading-fragment substring match.
	item, err := s.corpus.FindBySubstring(ctx, keyword.Prefix(rawInput, prefixLength))
	if err == nil {
		return item, TierPrefix, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, 0, fmt.Errorf("prefix tier: %w", err)
	}

	// Tier 3: newest item regardless of relevance.
	item, err = s.corpus.MostRecent(ctx)
	if err == nil {
		return item, TierMostRecent, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, 0, fmt.Errorf("recency tier: %w", err)
	}

	// Tier 4: the corpus holds nothing at all.
	return nil, 0, nil
}
