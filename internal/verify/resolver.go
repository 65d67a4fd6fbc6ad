package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rmontanez/chequeo/internal/model"
	"github.com/rmontanez/chequeo/internal/store"
)

// Template explanations, substituted whenever a stored explanation is
// empty. The texts are returned verbatim to the calling surface.
const (
	explanationReliable       = "La noticia parece confiable."
	explanationMisinformation = "La noticia muestra patrones de desinformación."
)

// defaultConfidence is the synthesized confidence for items that have
// no classification rows yet. The product leans doubtful-negative on
// unverified claims.
const defaultConfidence = 0.99

// Resolver selects the verdict for a matched item.
type Resolver struct {
	classifications store.ClassificationStore
}

// NewResolver creates a resolver over the given classification history.
func NewResolver(classifications store.ClassificationStore) *Resolver {
	return &Resolver{classifications: classifications}
}

// Resolve returns the item's most recent classification. An item with
// no classification rows is not an error: a cautious default verdict
// is synthesized instead. Stored explanations that are empty or
// whitespace are replaced by a template keyed on the result.
func (r *Resolver) Resolve(ctx context.Context, itemID int64) (*model.Classification, error) {
	c, err := r.classifications.LatestForItem(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return &model.Classification{
			ContentItemID: itemID,
			Result:        model.VerdictFalse,
			Confidence:    defaultConfidence,
			Explanation:   explanationMisinformation,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest classification: %w", err)
	}

	if strings.TrimSpace(c.Explanation) == "" {
		if c.Result == model.VerdictTrue {
			c.Explanation = explanationReliable
		} else {
			c.Explanation = explanationMisinformation
		}
	}
	return c, nil
}
