// Package verify implements the verification pipeline: keyword
// extraction, tiered candidate search, classification resolution,
// confidence normalization, enrichment, best-effort auditing and the
// layered fallback chain that guarantees a response.
package verify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rmontanez/chequeo/internal/keyword"
	"github.com/rmontanez/chequeo/internal/model"
	"github.com/rmontanez/chequeo/internal/search"
	"github.com/rmontanez/chequeo/internal/store"
)

// Input types accepted by the verify operation. The type is
// informational: it decides whether the content is fetched as an
// article first, but never changes the matching logic.
const (
	TypeText    = "texto"
	TypeURL     = "url"
	TypeTwitter = "twitter"
)

// Request is one verification query.
type Request struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	CallerID *int64 `json:"callerId,omitempty"`
}

// ArticleFetcher resolves a URL to its readable text. Implemented by
// the fetch package; nil disables URL ingestion.
type ArticleFetcher interface {
	ArticleText(ctx context.Context, rawURL string) (string, error)
}

// Pipeline wires the verification stages together. One Pipeline is
// built at process start and shared by all requests; it holds no
// per-request state.
type Pipeline struct {
	extractor *keyword.Extractor
	searcher  *search.Searcher
	resolver  *Resolver
	enricher  *Enricher
	recorder  *Recorder
	fetcher   ArticleFetcher
	pinger    store.Pinger
	log       *zap.Logger
}

// NewPipeline assembles a pipeline from its injected stages. fetcher
// and pinger may be nil.
func NewPipeline(searcher *search.Searcher, resolver *Resolver, enricher *Enricher,
	recorder *Recorder, fetcher ArticleFetcher, pinger store.Pinger, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		extractor: keyword.NewExtractor(),
		searcher:  searcher,
		resolver:  resolver,
		enricher:  enricher,
		recorder:  recorder,
		fetcher:   fetcher,
		pinger:    pinger,
		log:       log,
	}
}

// Verify runs the full pipeline for one request. It always returns an
// outcome with a response body unless the input is invalid or storage
// was unreachable before the first tier could run.
func (p *Pipeline) Verify(ctx context.Context, req Request) Outcome {
	if strings.TrimSpace(req.Content) == "" {
		return Outcome{Status: StatusInvalid, Err: keyword.ErrEmptyInput}
	}

	if p.pinger != nil {
		if err := p.pinger.Ping(ctx); err != nil {
			return Outcome{Status: StatusFatal, Err: fmt.Errorf("storage unreachable: %w", err)}
		}
	}

	matchText := p.matchText(ctx, req)

	tokens, err := p.extractor.Extract(matchText)
	if err != nil {
		return Outcome{Status: StatusInvalid, Err: err}
	}

	item, tier, err := p.searcher.Find(ctx, tokens, matchText)
	if err != nil {
		return p.degrade("candidate search", err)
	}
	if item == nil {
		p.log.Info("corpus empty, serving static safe default")
		return Outcome{Status: StatusDegraded, Response: StaticSafeDefault()}
	}
	p.log.Debug("candidate matched",
		zap.Int64("content_item_id", item.ID),
		zap.String("tier", tier.String()))

	classification, err := p.resolver.Resolve(ctx, item.ID)
	if err != nil {
		return p.degrade("classification resolver", err)
	}

	enrichment, err := p.enricher.Enrich(ctx, item)
	if err != nil {
		return p.degrade("enrichment", err)
	}

	p.recorder.Record(req.CallerID, item.ID)

	fraction := NormalizeConfidence(classification.Confidence)
	return Outcome{
		Status:   StatusResolved,
		Response: assemble(item, classification, fraction, enrichment),
	}
}

// matchText decides what text the matching runs against. URL-like
// queries are fetched best-effort; any failure falls back to matching
// on the raw input so the caller still gets an answer.
func (p *Pipeline) matchText(ctx context.Context, req Request) string {
	if p.fetcher == nil || (req.Type != TypeURL && req.Type != TypeTwitter) {
		return req.Content
	}

	text, err := p.fetcher.ArticleText(ctx, strings.TrimSpace(req.Content))
	if err != nil {
		p.log.Debug("article fetch failed, matching on raw input", zap.Error(err))
		return req.Content
	}
	if strings.TrimSpace(text) == "" {
		return req.Content
	}
	return text
}

func (p *Pipeline) degrade(stage string, err error) Outcome {
	p.log.Warn("pipeline stage degraded to safe default",
		zap.String("stage", stage), zap.Error(err))
	return Outcome{
		Status:   StatusDegraded,
		Response: StaticSafeDefault(),
		Err:      fmt.Errorf("%s: %w", stage, err),
	}
}

func assemble(item *model.ContentItem, c *model.Classification, fraction float64, enr *Enrichment) *Response {
	sources := make([]SourceRef, 0, len(enr.Sources))
	for _, src := range enr.Sources {
		ref := SourceRef{
			ID:          src.ID,
			Name:        src.Name,
			Description: src.Description,
			URL:         src.URL,
		}
		if ref.Description == "" {
			ref.Description = "Fuente de información verificada"
		}
		if ref.URL == "" {
			ref.URL = "#"
		}
		sources = append(sources, ref)
	}

	var topic *TopicRef
	if enr.Topic != nil {
		topic = &TopicRef{ID: enr.Topic.ID, Name: enr.Topic.Name}
	}

	return &Response{
		Found:                 true,
		ContentID:             item.ID,
		Result:                c.Result,
		Title:                 item.Title,
		ConfidencePercent:     ConfidencePercent(fraction),
		Explanation:           c.Explanation,
		Sources:               sources,
		Topic:                 topic,
		CorrectInformation:    foundCorrectInfo,
		AdditionalInformation: append([]string(nil), foundTips...),
	}
}
