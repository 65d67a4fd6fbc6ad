package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/rmontanez/chequeo/internal/model"
)

// SQLite's built-in LOWER folds ASCII only, which would make accented
// Spanish text ("VACUNACIÓN") invisible to lowercase tokens. Every
// connection gets a Unicode-aware lower registered instead.
func init() {
	sql.Register("sqlite3_chequeo", &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("u_lower", strings.ToLower, true)
		},
	})
}

// SQLite implements every store interface over a single database/sql
// handle. The handle is safe for concurrent use; one SQLite value is
// constructed at process start and shared by all requests.
type SQLite struct {
	db  *sql.DB
	now Clock
}

// Open opens (creating if necessary) the database at path and
// bootstraps the schema.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3_chequeo", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: sqlite serializes writers anyway, and a pooled
	// :memory: handle would otherwise open a fresh database per
	// connection.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS content_items (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		title        TEXT NOT NULL,
		body         TEXT NOT NULL,
		url          TEXT DEFAULT '',
		published_at DATETIME,
		analyzed_at  DATETIME NOT NULL,
		topic_id     INTEGER,
		source_id    INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_content_analyzed_at ON content_items(analyzed_at);

	CREATE TABLE IF NOT EXISTS classifications (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		content_item_id INTEGER NOT NULL,
		result          TEXT NOT NULL,
		confidence      REAL NOT NULL,
		explanation     TEXT DEFAULT '',
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_class_item ON classifications(content_item_id);
	CREATE INDEX IF NOT EXISTS idx_class_created ON classifications(created_at);

	CREATE TABLE IF NOT EXISTS sources (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		description TEXT DEFAULT '',
		url         TEXT DEFAULT '',
		reliability REAL DEFAULT 0,
		verified    INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS topics (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS query_audit (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id         INTEGER,
		content_item_id INTEGER NOT NULL,
		queried_at      DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_user ON query_audit(user_id);

	CREATE TABLE IF NOT EXISTS faq_entries (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		question   TEXT NOT NULL,
		answer     TEXT NOT NULL,
		category   TEXT DEFAULT '',
		active     INTEGER DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the underlying handle.
func (s *SQLite) Close() error { return s.db.Close() }

// Ping reports whether the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const itemColumns = `id, title, body, url, published_at, analyzed_at, topic_id, source_id`

func scanItem(row *sql.Row) (*model.ContentItem, error) {
	var (
		item      model.ContentItem
		published sql.NullTime
		topicID   sql.NullInt64
		sourceID  sql.NullInt64
	)
	err := row.Scan(&item.ID, &item.Title, &item.Body, &item.URL,
		&published, &item.AnalyzedAt, &topicID, &sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan content item: %w", err)
	}
	if published.Valid {
		item.PublishedAt = &published.Time
	}
	if topicID.Valid {
		item.TopicID = &topicID.Int64
	}
	if sourceID.Valid {
		item.SourceID = &sourceID.Int64
	}
	return &item, nil
}

// FindByTokens returns the most recently analyzed item matching any
// token. The OR conditions are built as placeholders; tokens are never
// interpolated into the query text.
func (s *SQLite) FindByTokens(ctx context.Context, tokens []string) (*model.ContentItem, error) {
	if len(tokens) == 0 {
		return nil, ErrNotFound
	}

	where, args := tokenConditions(tokens)
	query := fmt.Sprintf(
		`SELECT %s FROM content_items WHERE %s ORDER BY analyzed_at DESC LIMIT 1`,
		itemColumns, where)

	return scanItem(s.db.QueryRowContext(ctx, query, args...))
}

// FindBySubstring returns the most recently analyzed item whose title
// or body contains the fragment.
func (s *SQLite) FindBySubstring(ctx context.Context, fragment string) (*model.ContentItem, error) {
	pattern := "%" + strings.ToLower(fragment) + "%"
	query := fmt.Sprintf(
		`SELECT %s FROM content_items
		 WHERE u_lower(title) LIKE ? OR u_lower(body) LIKE ?
		 ORDER BY analyzed_at DESC LIMIT 1`, itemColumns)

	return scanItem(s.db.QueryRowContext(ctx, query, pattern, pattern))
}

// MostRecent returns the most recently analyzed item in the corpus.
func (s *SQLite) MostRecent(ctx context.Context) (*model.ContentItem, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM content_items ORDER BY analyzed_at DESC LIMIT 1`, itemColumns)

	return scanItem(s.db.QueryRowContext(ctx, query))
}

// LatestForItem returns the newest classification row for the item.
func (s *SQLite) LatestForItem(ctx context.Context, itemID int64) (*model.Classification, error) {
	var c model.Classification
	err := s.db.QueryRowContext(ctx,
		`SELECT id, content_item_id, result, confidence, explanation, created_at
		 FROM classifications WHERE content_item_id = ?
		 ORDER BY created_at DESC LIMIT 1`, itemID).
		Scan(&c.ID, &c.ContentItemID, &c.Result, &c.Confidence, &c.Explanation, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan classification: %w", err)
	}
	return &c, nil
}

// TopicByID fetches a topic by its identifier.
func (s *SQLite) TopicByID(ctx context.Context, id int64) (*model.Topic, error) {
	var t model.Topic
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM topics WHERE id = ?`, id).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan topic: %w", err)
	}
	return &t, nil
}

// TopSources returns up to limit sources, most reliable first.
func (s *SQLite) TopSources(ctx context.Context, limit int) ([]model.Source, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, url, reliability, verified
		 FROM sources ORDER BY reliability DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []model.Source
	for rows.Next() {
		var src model.Source
		if err := rows.Scan(&src.ID, &src.Name, &src.Description, &src.URL,
			&src.Reliability, &src.Verified); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// RecordQuery appends one audit row.
func (s *SQLite) RecordQuery(ctx context.Context, rec model.QueryAuditRecord) error {
	var userID any
	if rec.UserID != nil {
		userID = *rec.UserID
	}
	queriedAt := rec.QueriedAt
	if queriedAt.IsZero() {
		queriedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_audit (user_id, content_item_id, queried_at) VALUES (?, ?, ?)`,
		userID, rec.ContentItemID, queriedAt)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// HistoryForUser returns a page of the user's query history, newest
// first, plus the total row count for pagination.
func (s *SQLite) HistoryForUser(ctx context.Context, userID int64, limit, offset int) ([]HistoryEntry, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM query_audit WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.content_item_id, a.queried_at, n.title,
		        COALESCE((SELECT c.result FROM classifications c
		                  WHERE c.content_item_id = n.id
		                  ORDER BY c.created_at DESC LIMIT 1), '')
		 FROM query_audit a
		 JOIN content_items n ON n.id = a.content_item_id
		 WHERE a.user_id = ?
		 ORDER BY a.queried_at DESC
		 LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			e   HistoryEntry
			uid sql.NullInt64
		)
		if err := rows.Scan(&e.Record.ID, &uid, &e.Record.ContentItemID,
			&e.Record.QueriedAt, &e.Title, &e.Result); err != nil {
			return nil, 0, fmt.Errorf("scan history: %w", err)
		}
		if uid.Valid {
			e.Record.UserID = &uid.Int64
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// FindFAQByTokens returns the newest active FAQ entry whose question
// contains any of the tokens.
func (s *SQLite) FindFAQByTokens(ctx context.Context, tokens []string) (*model.FAQEntry, error) {
	if len(tokens) == 0 {
		return nil, ErrNotFound
	}

	conditions := ""
	args := make([]any, 0, len(tokens))
	for i, tok := range tokens {
		if i > 0 {
			conditions += " OR "
		}
		conditions += "u_lower(question) LIKE ?"
		args = append(args, "%"+strings.ToLower(tok)+"%")
	}

	query := fmt.Sprintf(
		`SELECT id, question, answer, category, active, created_at
		 FROM faq_entries WHERE active = 1 AND (%s)
		 ORDER BY created_at DESC LIMIT 1`, conditions)

	return s.scanFAQ(s.db.QueryRowContext(ctx, query, args...))
}

// FindFAQGeneric returns the newest active catch-all entry.
func (s *SQLite) FindFAQGeneric(ctx context.Context) (*model.FAQEntry, error) {
	return s.scanFAQ(s.db.QueryRowContext(ctx,
		`SELECT id, question, answer, category, active, created_at
		 FROM faq_entries WHERE active = 1 AND u_lower(question) LIKE '%general%'
		 ORDER BY created_at DESC LIMIT 1`))
}

func (s *SQLite) scanFAQ(row *sql.Row) (*model.FAQEntry, error) {
	var f model.FAQEntry
	err := row.Scan(&f.ID, &f.Question, &f.Answer, &f.Category, &f.Active, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan faq entry: %w", err)
	}
	return &f, nil
}

// tokenConditions builds the parameterized OR clause for a token
// search over title and body. Returns the WHERE fragment and its
// arguments, two per token.
func tokenConditions(tokens []string) (string, []any) {
	where := ""
	args := make([]any, 0, len(tokens)*2)
	for i, tok := range tokens {
		if i > 0 {
			where += " OR "
		}
		where += "(u_lower(title) LIKE ? OR u_lower(body) LIKE ?)"
		pattern := "%" + strings.ToLower(tok) + "%"
		args = append(args, pattern, pattern)
	}
	return where, args
}
