// Package ingest loads new content into the corpus from article URLs.
// Fetched items are stored unclassified; a classifier run fills in the
// verdicts afterwards.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rmontanez/chequeo/internal/model"
	"github.com/rmontanez/chequeo/internal/store"
)

// ArticleReader fetches a page and returns its title and text.
type ArticleReader interface {
	Article(ctx context.Context, rawURL string) (title, text string, err error)
}

// Store is the write surface the ingester needs.
type Store interface {
	InsertContentItem(ctx context.Context, item model.ContentItem) (int64, error)
	InsertSource(ctx context.Context, src model.Source) (int64, error)
	SourceByName(ctx context.Context, name string) (*model.Source, error)
}

// Result reports the outcome of ingesting one URL.
type Result struct {
	URL           string
	ContentItemID int64
	Err           error
}

// Ingester fetches articles concurrently and writes them to the
// corpus. Source rows are created on first sight of a host.
type Ingester struct {
	store   Store
	reader  ArticleReader
	workers int
	log     *zap.Logger
	now     func() time.Time

	mu sync.Mutex // serializes source find-or-create
}

// New creates an ingester running at most workers fetches at once.
func New(st Store, reader ArticleReader, workers int, log *zap.Logger) *Ingester {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingester{
		store:   st,
		reader:  reader,
		workers: workers,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run ingests every URL and returns one result per input, in no
// particular order. Individual failures are reported, not fatal.
func (ing *Ingester) Run(ctx context.Context, urls []string) []Result {
	jobs := make(chan string, len(urls))
	results := make(chan Result, len(urls))

	var wg sync.WaitGroup
	for i := 0; i < ing.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rawURL := range jobs {
				select {
				case <-ctx.Done():
					results <- Result{URL: rawURL, Err: ctx.Err()}
				default:
					results <- ing.ingestOne(ctx, rawURL)
				}
			}
		}()
	}

	for _, rawURL := range urls {
		jobs <- rawURL
	}
	close(jobs)
	wg.Wait()
	close(results)

	collected := make([]Result, 0, len(urls))
	for r := range results {
		if r.Err != nil {
			ing.log.Warn("ingest failed", zap.String("url", r.URL), zap.Error(r.Err))
		} else {
			ing.log.Info("ingested", zap.String("url", r.URL), zap.Int64("content_item_id", r.ContentItemID))
		}
		collected = append(collected, r)
	}
	return collected
}

func (ing *Ingester) ingestOne(ctx context.Context, rawURL string) Result {
	title, text, err := ing.reader.Article(ctx, rawURL)
	if err != nil {
		return Result{URL: rawURL, Err: fmt.Errorf("fetch article: %w", err)}
	}
	if title == "" {
		title = firstLine(text)
	}

	sourceID, err := ing.sourceFor(ctx, rawURL)
	if err != nil {
		return Result{URL: rawURL, Err: err}
	}

	item := model.ContentItem{
		Title:      title,
		Body:       text,
		URL:        rawURL,
		AnalyzedAt: ing.now(),
		SourceID:   sourceID,
	}
	id, err := ing.store.InsertContentItem(ctx, item)
	if err != nil {
		return Result{URL: rawURL, Err: fmt.Errorf("store item: %w", err)}
	}
	return Result{URL: rawURL, ContentItemID: id}
}

// sourceFor finds or creates the source row for the URL's host.
func (ing *Ingester) sourceFor(ctx context.Context, rawURL string) (*int64, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return nil, nil
	}
	host := strings.ToLower(parsed.Hostname())

	ing.mu.Lock()
	defer ing.mu.Unlock()

	existing, err := ing.store.SourceByName(ctx, host)
	if err == nil {
		return &existing.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("look up source: %w", err)
	}

	reliability, verified := SourceReliability(rawURL)
	id, err := ing.store.InsertSource(ctx, model.Source{
		Name:        host,
		URL:         parsed.Scheme + "://" + host,
		Reliability: reliability,
		Verified:    verified,
	})
	if err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return &id, nil
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return "(sin título)"
}
