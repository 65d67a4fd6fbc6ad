package verify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rmontanez/chequeo/internal/model"
	"github.com/rmontanez/chequeo/internal/search"
	"github.com/rmontanez/chequeo/internal/store"
)

type fakeCorpus struct {
	items  []model.ContentItem
	err    error
	recent *model.ContentItem
}

func (f *fakeCorpus) FindByTokens(_ context.Context, tokens []string) (*model.ContentItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	// Newest-first scan over seeded items: any token substring match
	// on title or body wins.
	var best *model.ContentItem
	for i := range f.items {
		item := &f.items[i]
		for _, tok := range tokens {
			if containsFold(item.Title, tok) || containsFold(item.Body, tok) {
				if best == nil || item.AnalyzedAt.After(best.AnalyzedAt) {
					best = item
				}
				break
			}
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	return best, nil
}

func (f *fakeCorpus) FindBySubstring(_ context.Context, fragment string) (*model.ContentItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.items {
		if containsFold(f.items[i].Title, fragment) || containsFold(f.items[i].Body, fragment) {
			return &f.items[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeCorpus) MostRecent(context.Context) (*model.ContentItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.recent != nil {
		return f.recent, nil
	}
	if len(f.items) == 0 {
		return nil, store.ErrNotFound
	}
	return &f.items[0], nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

type fakeClassifications struct {
	latest map[int64]*model.Classification
	err    error
}

func (f *fakeClassifications) LatestForItem(_ context.Context, itemID int64) (*model.Classification, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.latest[itemID]; ok {
		out := *c
		return &out, nil
	}
	return nil, store.ErrNotFound
}

type fakeRefs struct {
	topics  map[int64]model.Topic
	sources []model.Source
	err     error
}

func (f *fakeRefs) TopicByID(_ context.Context, id int64) (*model.Topic, error) {
	if f.err != nil {
		return nil, f.err
	}
	if t, ok := f.topics[id]; ok {
		return &t, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeRefs) TopSources(_ context.Context, limit int) ([]model.Source, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.sources) > limit {
		return f.sources[:limit], nil
	}
	return f.sources, nil
}

type fakeAudit struct {
	err    error
	called chan model.QueryAuditRecord
}

func (f *fakeAudit) RecordQuery(_ context.Context, rec model.QueryAuditRecord) error {
	if f.called != nil {
		f.called <- rec
	}
	return f.err
}

func (f *fakeAudit) HistoryForUser(context.Context, int64, int, int) ([]store.HistoryEntry, int, error) {
	return nil, 0, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

func newTestPipeline(corpus *fakeCorpus, class *fakeClassifications, refs *fakeRefs, audit *fakeAudit) *Pipeline {
	if class == nil {
		class = &fakeClassifications{}
	}
	if refs == nil {
		refs = &fakeRefs{}
	}
	if audit == nil {
		audit = &fakeAudit{}
	}
	return NewPipeline(
		search.NewSearcher(corpus),
		NewResolver(class),
		NewEnricher(refs, nil),
		NewRecorder(audit, nil),
		nil, nil, nil)
}

func TestVerify_TokenMatchSelectsRelevantItem(t *testing.T) {
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	corpus := &fakeCorpus{items: []model.ContentItem{
		{ID: 10, Title: "Nada que ver con el tema", Body: "otro asunto", AnalyzedAt: recent},
		{ID: 11, Title: "Estudio sobre vacunas desmentido", Body: "texto", AnalyzedAt: old},
	}}
	class := &fakeClassifications{latest: map[int64]*model.Classification{
		11: {ContentItemID: 11, Result: model.VerdictFalse, Confidence: 0.92, Explanation: "Desmentido por expertos."},
	}}

	p := newTestPipeline(corpus, class, nil, nil)
	out := p.Verify(context.Background(), Request{Content: "Las vacunas causan autismo", Type: TypeText})

	if out.Status != StatusResolved {
		t.Fatalf("Expected resolved outcome, got %v (err %v)", out.Status, out.Err)
	}
	if out.Response.ContentID != 11 {
		t.Errorf("Expected token-matched item 11, got %d", out.Response.ContentID)
	}
	if !out.Response.Found {
		t.Error("Expected found=true")
	}
	if out.Response.ConfidencePercent != 92 {
		t.Errorf("Expected 92%%, got %d", out.Response.ConfidencePercent)
	}
}

func TestVerify_ResponseInvariants(t *testing.T) {
	corpus := &fakeCorpus{items: []model.ContentItem{
		{ID: 1, Title: "Noticia cualquiera", Body: "texto", AnalyzedAt: time.Now().UTC()},
	}}
	class := &fakeClassifications{latest: map[int64]*model.Classification{
		1: {ContentItemID: 1, Result: model.VerdictDoubtful, Confidence: 150},
	}}

	p := newTestPipeline(corpus, class, nil, nil)
	out := p.Verify(context.Background(), Request{Content: "noticia cualquiera"})

	if out.Status != StatusResolved {
		t.Fatalf("Expected resolved, got %v", out.Status)
	}
	resp := out.Response
	if resp.ConfidencePercent < 0 || resp.ConfidencePercent > 100 {
		t.Errorf("Confidence out of range: %d", resp.ConfidencePercent)
	}
	if resp.ConfidencePercent != 100 {
		t.Errorf("Legacy 150 should present as 100, got %d", resp.ConfidencePercent)
	}
	if !resp.Result.Valid() {
		t.Errorf("Unexpected result %q", resp.Result)
	}
	// Empty stored explanation gets the template for non-true results.
	if resp.Explanation != explanationMisinformation {
		t.Errorf("Expected templated explanation, got %q", resp.Explanation)
	}
}

func TestVerify_UnclassifiedItemGetsDefaultVerdict(t *testing.T) {
	corpus := &fakeCorpus{items: []model.ContentItem{
		{ID: 5, Title: "Sin clasificar todavía", Body: "texto", AnalyzedAt: time.Now().UTC()},
	}}

	p := newTestPipeline(corpus, nil, nil, nil)
	out := p.Verify(context.Background(), Request{Content: "sin clasificar"})

	if out.Status != StatusResolved {
		t.Fatalf("Expected resolved, got %v (err %v)", out.Status, out.Err)
	}
	resp := out.Response
	if !resp.Found {
		t.Error("Expected found=true for unclassified item")
	}
	if resp.Result != model.VerdictFalse {
		t.Errorf("Expected default verdict falsa, got %s", resp.Result)
	}
	if resp.ConfidencePercent != 99 {
		t.Errorf("Expected default confidence 99, got %d", resp.ConfidencePercent)
	}
	if resp.Explanation != explanationMisinformation {
		t.Errorf("Expected generic explanation, got %q", resp.Explanation)
	}
}

func TestVerify_EmptyCorpusServesStaticDefault(t *testing.T) {
	p := newTestPipeline(&fakeCorpus{}, nil, nil, nil)
	out := p.Verify(context.Background(), Request{Content: "cualquier consulta"})

	if out.Status != StatusDegraded {
		t.Fatalf("Expected degraded outcome, got %v", out.Status)
	}
	resp := out.Response
	if resp.Found {
		t.Error("Expected found=false")
	}
	if resp.ContentID != 0 {
		t.Errorf("Expected contentId 0, got %d", resp.ContentID)
	}
	if resp.Result != model.VerdictFalse || resp.ConfidencePercent != 99 {
		t.Errorf("Expected fixed exemplar verdict, got %s/%d", resp.Result, resp.ConfidencePercent)
	}
	if resp.Title != fallbackTitle {
		t.Errorf("Expected exemplar title, got %q", resp.Title)
	}
	if resp.Sources == nil || len(resp.Sources) != 0 {
		t.Errorf("Expected empty (non-nil) sources, got %v", resp.Sources)
	}
}

func TestVerify_StorageErrorDegrades(t *testing.T) {
	corpus := &fakeCorpus{err: errors.New("query timeout")}
	p := newTestPipeline(corpus, nil, nil, nil)

	out := p.Verify(context.Background(), Request{Content: "algo que buscar"})
	if out.Status != StatusDegraded {
		t.Fatalf("Expected degraded, got %v", out.Status)
	}
	if out.Response == nil || out.Response.Found {
		t.Error("Expected safe default body")
	}
	if out.Err == nil {
		t.Error("Degraded outcome should record its cause")
	}
}

func TestVerify_EnrichmentErrorDegrades(t *testing.T) {
	corpus := &fakeCorpus{items: []model.ContentItem{
		{ID: 2, Title: "Noticia válida", Body: "texto", AnalyzedAt: time.Now().UTC()},
	}}
	refs := &fakeRefs{err: errors.New("sources table locked")}

	p := newTestPipeline(corpus, nil, refs, nil)
	out := p.Verify(context.Background(), Request{Content: "noticia válida"})

	if out.Status != StatusDegraded {
		t.Fatalf("Expected degraded, got %v", out.Status)
	}
	if out.Response.Title != fallbackTitle {
		t.Errorf("Expected safe default body, got %q", out.Response.Title)
	}
}

func TestVerify_AuditFailureDoesNotAlterResponse(t *testing.T) {
	corpus := &fakeCorpus{items: []model.ContentItem{
		{ID: 3, Title: "Noticia auditada", Body: "texto", AnalyzedAt: time.Now().UTC()},
	}}
	audit := &fakeAudit{
		err:    errors.New("audit table gone"),
		called: make(chan model.QueryAuditRecord, 1),
	}
	caller := int64(42)

	p := newTestPipeline(corpus, nil, nil, audit)
	out := p.Verify(context.Background(), Request{Content: "noticia auditada", CallerID: &caller})

	if out.Status != StatusResolved {
		t.Fatalf("Audit failure must not affect the outcome, got %v", out.Status)
	}
	if !out.Response.Found || out.Response.ContentID != 3 {
		t.Errorf("Response altered by audit failure: %+v", out.Response)
	}

	select {
	case rec := <-audit.called:
		if rec.UserID == nil || *rec.UserID != caller {
			t.Errorf("Expected audit record for caller %d, got %+v", caller, rec)
		}
	case <-time.After(2 * time.Second):
		t.Error("Expected audit write to be dispatched")
	}
}

func TestVerify_AnonymousCallerNotAudited(t *testing.T) {
	corpus := &fakeCorpus{items: []model.ContentItem{
		{ID: 4, Title: "Noticia anónima", Body: "texto", AnalyzedAt: time.Now().UTC()},
	}}
	audit := &fakeAudit{called: make(chan model.QueryAuditRecord, 1)}

	p := newTestPipeline(corpus, nil, nil, audit)
	out := p.Verify(context.Background(), Request{Content: "noticia anónima"})

	if out.Status != StatusResolved {
		t.Fatalf("Expected resolved, got %v", out.Status)
	}
	select {
	case <-audit.called:
		t.Error("Anonymous caller must not produce an audit record")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestVerify_EmptyInputIsInvalid(t *testing.T) {
	p := newTestPipeline(&fakeCorpus{}, nil, nil, nil)

	for _, content := range []string{"", "   "} {
		out := p.Verify(context.Background(), Request{Content: content})
		if out.Status != StatusInvalid {
			t.Errorf("Verify(%q): expected invalid, got %v", content, out.Status)
		}
		if out.Response != nil {
			t.Errorf("Validation errors must not produce a body, got %+v", out.Response)
		}
	}
}

func TestVerify_UnreachableStorageIsFatal(t *testing.T) {
	corpus := &fakeCorpus{items: []model.ContentItem{
		{ID: 1, Title: "Inalcanzable", Body: "texto", AnalyzedAt: time.Now().UTC()},
	}}
	p := NewPipeline(
		search.NewSearcher(corpus),
		NewResolver(&fakeClassifications{}),
		NewEnricher(&fakeRefs{}, nil),
		NewRecorder(&fakeAudit{}, nil),
		nil,
		&fakePinger{err: errors.New("connection refused")},
		nil)

	out := p.Verify(context.Background(), Request{Content: "inalcanzable"})
	if out.Status != StatusFatal {
		t.Fatalf("Expected fatal outcome, got %v", out.Status)
	}
}

func TestVerify_ShortWordsStillMatchViaPrefix(t *testing.T) {
	// All query words are too short for tokens; the prefix tier must
	// still find the item whose body contains the leading fragment.
	corpus := &fakeCorpus{items: []model.ContentItem{
		{ID: 6, Title: "Gripe", Body: "la flu no es tan mala este año", AnalyzedAt: time.Now().UTC()},
	}}

	p := newTestPipeline(corpus, nil, nil, nil)
	out := p.Verify(context.Background(), Request{Content: "la flu no es"})

	if out.Status != StatusResolved {
		t.Fatalf("Expected resolved via prefix tier, got %v (err %v)", out.Status, out.Err)
	}
	if out.Response.ContentID != 6 {
		t.Errorf("Expected item 6, got %d", out.Response.ContentID)
	}
}
