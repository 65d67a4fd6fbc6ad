package verify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rmontanez/chequeo/internal/cache"
	"github.com/rmontanez/chequeo/internal/model"
	"github.com/rmontanez/chequeo/internal/store"
)

// maxSources is how many supporting sources a response carries.
const maxSources = 3

// fallbackSource is shown when the source table is empty. Display
// only; it is never persisted.
var fallbackSource = model.Source{
	ID:          1,
	Name:        "Organización Mundial de la Salud",
	Description: "Autoridad sanitaria internacional",
	URL:         "https://www.who.int/es",
}

// Enrichment carries the supporting metadata attached to a resolved
// item. Topic is nil when the item has no topic reference.
type Enrichment struct {
	Sources []model.Source
	Topic   *model.Topic
}

// Enricher fetches sources and topic for a resolved item. The two
// lookups are independent and run concurrently. Results are cached
// because reference data changes far less often than it is read.
type Enricher struct {
	refs     store.ReferenceStore
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewEnricher creates an enricher. cache may be nil to disable caching.
func NewEnricher(refs store.ReferenceStore, c cache.Cache) *Enricher {
	return &Enricher{refs: refs, cache: c, cacheTTL: 5 * time.Minute}
}

// Enrich loads up to three sources and the item's topic. A missing
// topic is valid and yields nil; an empty source table yields the
// hardcoded fallback source. Storage errors are returned for the
// pipeline to classify.
func (e *Enricher) Enrich(ctx context.Context, item *model.ContentItem) (*Enrichment, error) {
	var (
		wg       sync.WaitGroup
		sources  []model.Source
		topic    *model.Topic
		srcErr   error
		topicErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		sources, srcErr = e.topSources(ctx)
	}()

	if item.TopicID != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			topic, topicErr = e.topicByID(ctx, *item.TopicID)
		}()
	}
	wg.Wait()

	if srcErr != nil {
		return nil, fmt.Errorf("sources: %w", srcErr)
	}
	if topicErr != nil {
		return nil, fmt.Errorf("topic: %w", topicErr)
	}

	if len(sources) == 0 {
		sources = []model.Source{fallbackSource}
	}
	return &Enrichment{Sources: sources, Topic: topic}, nil
}

func (e *Enricher) topSources(ctx context.Context) ([]model.Source, error) {
	const cacheID = "sources:top"

	var cached []model.Source
	if cache.GetJSON(e.cache, cacheID, &cached) {
		return cached, nil
	}

	sources, err := e.refs.TopSources(ctx, maxSources)
	if err != nil {
		return nil, err
	}

	if len(sources) > 0 {
		_ = cache.SetJSON(e.cache, cacheID, sources, e.cacheTTL)
	}
	return sources, nil
}

func (e *Enricher) topicByID(ctx context.Context, id int64) (*model.Topic, error) {
	cacheID := fmt.Sprintf("topic:%d", id)

	var cached model.Topic
	if cache.GetJSON(e.cache, cacheID, &cached) {
		return &cached, nil
	}

	topic, err := e.refs.TopicByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		// A dangling topic reference is not an error.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	_ = cache.SetJSON(e.cache, cacheID, topic, e.cacheTTL)
	return topic, nil
}
