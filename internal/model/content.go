package model

import "time"

// ContentItem is a previously ingested, analyzable piece of content
// (news article or claim). Items are created by an external ingestion
// process and are immutable once analyzed, except for re-classification.
type ContentItem struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	URL         string     `json:"url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	AnalyzedAt  time.Time  `json:"analyzed_at"`
	TopicID     *int64     `json:"topic_id,omitempty"`
	SourceID    *int64     `json:"source_id,omitempty"`
}

// Classification is a verdict attached to a ContentItem at a point in
// time. Classifications are append-only; re-runs add new rows and the
// resolver always selects the most recent by CreatedAt.
type Classification struct {
	ID            int64     `json:"id"`
	ContentItemID int64     `json:"content_item_id"`
	Result        Verdict   `json:"result"`
	// Confidence is stored on a 0-1 scale, but legacy rows were written
	// on a 0-100 scale. Always read it through verify.NormalizeConfidence.
	Confidence  float64   `json:"confidence"`
	Explanation string    `json:"explanation,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Source is a publisher referenced, not owned, by content items.
type Source struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	URL         string  `json:"url,omitempty"`
	Reliability float64 `json:"reliability"`
	Verified    bool    `json:"verified"`
}

// Topic is a subject category referenced by content items.
type Topic struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// QueryAuditRecord links an authenticated caller to the item their
// verification query matched. Write-only from the pipeline's point of
// view; the history API reads it back.
type QueryAuditRecord struct {
	ID            int64     `json:"id"`
	UserID        *int64    `json:"user_id,omitempty"`
	ContentItemID int64     `json:"content_item_id"`
	QueriedAt     time.Time `json:"queried_at"`
}

// FAQEntry is a question/answer pair used by the companion assistant
// lookup. Matching runs the same keyword ladder as the verify pipeline.
type FAQEntry struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Category  string    `json:"category,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
