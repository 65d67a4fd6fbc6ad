// Package store defines the storage interfaces the verification
// pipeline depends on, plus the SQLite implementation. Components
// receive these interfaces at construction time; nothing in the
// pipeline reaches for a global handle.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rmontanez/chequeo/internal/model"
)

// ErrNotFound is returned by lookups that matched no row. Callers in
// the pipeline treat it as a degradation signal, never as a failure.
var ErrNotFound = errors.New("store: not found")

// CorpusStore is the read API over ingested content items.
type CorpusStore interface {
	// FindByTokens returns the most recently analyzed item whose title
	// or body contains any of the given tokens (case-insensitive).
	FindByTokens(ctx context.Context, tokens []string) (*model.ContentItem, error)

	// FindBySubstring returns the most recently analyzed item whose
	// title or body contains the fragment (case-insensitive).
	FindBySubstring(ctx context.Context, fragment string) (*model.ContentItem, error)

	// MostRecent returns the single most recently analyzed item,
	// regardless of relevance.
	MostRecent(ctx context.Context) (*model.ContentItem, error)
}

// ClassificationStore is the read API over classification history.
type ClassificationStore interface {
	// LatestForItem returns the newest classification for the item, or
	// ErrNotFound when the item has no classification rows yet.
	LatestForItem(ctx context.Context, itemID int64) (*model.Classification, error)
}

// ReferenceStore is the read API over sources and topics.
type ReferenceStore interface {
	TopicByID(ctx context.Context, id int64) (*model.Topic, error)

	// TopSources returns up to limit sources ordered by reliability.
	TopSources(ctx context.Context, limit int) ([]model.Source, error)
}

// HistoryEntry is one row of a user's query history, joined with the
// matched item's title and its latest verdict (empty when the item has
// no classification yet).
type HistoryEntry struct {
	Record model.QueryAuditRecord `json:"record"`
	Title  string                 `json:"title"`
	Result model.Verdict          `json:"result,omitempty"`
}

// AuditStore records verification queries and serves them back to the
// history API. The pipeline only ever writes.
type AuditStore interface {
	RecordQuery(ctx context.Context, rec model.QueryAuditRecord) error
	HistoryForUser(ctx context.Context, userID int64, limit, offset int) ([]HistoryEntry, int, error)
}

// FAQStore is the read API behind the companion assistant lookup.
type FAQStore interface {
	// FindFAQByTokens returns the newest active entry whose question
	// contains any of the given tokens.
	FindFAQByTokens(ctx context.Context, tokens []string) (*model.FAQEntry, error)

	// FindFAQGeneric returns the newest active catch-all entry.
	FindFAQGeneric(ctx context.Context) (*model.FAQEntry, error)
}

// Pinger reports whether the backing store is reachable at all. The
// verify handler uses it to distinguish "degrade to the safe default"
// from "no tier could even run".
type Pinger interface {
	Ping(ctx context.Context) error
}

// Clock returns the current time; injectable for tests.
type Clock func() time.Time
