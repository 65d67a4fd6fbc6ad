package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rmontanez/chequeo/internal/model"
)

// The Insert* methods exist for the ingestion side and for tests. The
// verification pipeline itself never writes anything except audit rows.

// InsertContentItem stores one item and returns its id.
func (s *SQLite) InsertContentItem(ctx context.Context, item model.ContentItem) (int64, error) {
	var published, topicID, sourceID any
	if item.PublishedAt != nil {
		published = *item.PublishedAt
	}
	if item.TopicID != nil {
		topicID = *item.TopicID
	}
	if item.SourceID != nil {
		sourceID = *item.SourceID
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO content_items (title, body, url, published_at, analyzed_at, topic_id, source_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Title, item.Body, item.URL, published, item.AnalyzedAt, topicID, sourceID)
	if err != nil {
		return 0, fmt.Errorf("insert content item: %w", err)
	}
	return res.LastInsertId()
}

// InsertClassification appends one classification row and returns its id.
func (s *SQLite) InsertClassification(ctx context.Context, c model.Classification) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO classifications (content_item_id, result, confidence, explanation, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ContentItemID, c.Result, c.Confidence, c.Explanation, c.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert classification: %w", err)
	}
	return res.LastInsertId()
}

// SourceByName returns the source with the given name, or ErrNotFound.
func (s *SQLite) SourceByName(ctx context.Context, name string) (*model.Source, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, url, reliability, verified
		 FROM sources WHERE name = ?`, name)

	var src model.Source
	err := row.Scan(&src.ID, &src.Name, &src.Description, &src.URL, &src.Reliability, &src.Verified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("source by name: %w", err)
	}
	return &src, nil
}

// InsertSource stores one source and returns its id.
func (s *SQLite) InsertSource(ctx context.Context, src model.Source) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sources (name, description, url, reliability, verified)
		 VALUES (?, ?, ?, ?, ?)`,
		src.Name, src.Description, src.URL, src.Reliability, src.Verified)
	if err != nil {
		return 0, fmt.Errorf("insert source: %w", err)
	}
	return res.LastInsertId()
}

// InsertTopic stores one topic and returns its id.
func (s *SQLite) InsertTopic(ctx context.Context, t model.Topic) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO topics (name) VALUES (?)`, t.Name)
	if err != nil {
		return 0, fmt.Errorf("insert topic: %w", err)
	}
	return res.LastInsertId()
}

// InsertFAQEntry stores one FAQ entry and returns its id.
func (s *SQLite) InsertFAQEntry(ctx context.Context, f model.FAQEntry) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO faq_entries (question, answer, category, active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		f.Question, f.Answer, f.Category, f.Active, f.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert faq entry: %w", err)
	}
	return res.LastInsertId()
}
