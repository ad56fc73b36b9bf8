package database

import (
	"context"
	"database/sql"
	"fmt"
)

// EntryRepository handles database operations for feed entries
type EntryRepository struct {
	db DBTX
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// WithTx returns a repository view bound to the given transaction.
func (r *EntryRepository) WithTx(tx *sql.Tx) *EntryRepository {
	return &EntryRepository{db: tx}
}

const entryColumns = `id, feed_id, title, link, published_at, content, summary,
	COALESCE(llm_summary, ''), is_read, created_at`

func scanEntry(row interface{ Scan(...any) error }) (*Entry, error) {
	var entry Entry
	err := row.Scan(&entry.ID, &entry.FeedID, &entry.Title, &entry.Link,
		&entry.PublishedAt, &entry.Content, &entry.Summary,
		&entry.LLMSummary, &entry.IsRead, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// EntryExists reports whether an entry with the given link already exists
// for the feed. (feed_id, link) is the deduplication key.
func (r *EntryRepository) EntryExists(ctx context.Context, feedID int64, link string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM entries WHERE feed_id = ? AND link = ? LIMIT 1`,
		feedID, link).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check entry existence: %w", err)
	}
	return true, nil
}

// CreateEntry inserts a new entry and returns its assigned ID.
func (r *EntryRepository) CreateEntry(ctx context.Context, entry *Entry) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (feed_id, title, link, published_at, content, summary)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.FeedID, entry.Title, entry.Link, entry.PublishedAt,
		entry.Content, entry.Summary)
	if err != nil {
		return 0, fmt.Errorf("failed to create entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get entry ID: %w", err)
	}

	return id, nil
}

// GetEntryByID retrieves an entry by ID, returning nil when absent.
func (r *EntryRepository) GetEntryByID(ctx context.Context, id int64) (*Entry, error) {
	entry, err := scanEntry(r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry by ID: %w", err)
	}
	return entry, nil
}

// SetLLMSummary overwrites the model-generated summary for an entry.
func (r *EntryRepository) SetLLMSummary(ctx context.Context, id int64, summary string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE entries SET llm_summary = ? WHERE id = ?`, summary, id)
	if err != nil {
		return fmt.Errorf("failed to set LLM summary: %w", err)
	}
	return nil
}

// MarkRead flags an entry as read.
func (r *EntryRepository) MarkRead(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE entries SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark entry read: %w", err)
	}
	return nil
}

// GetLatestEntries returns entries ordered by published date descending,
// narrowed by the filter.
func (r *EntryRepository) GetLatestEntries(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	query := `
		SELECT e.id, e.feed_id, e.title, e.link, e.published_at, e.content, e.summary,
		       COALESCE(e.llm_summary, ''), e.is_read, e.created_at
		FROM entries e
		JOIN feeds f ON f.id = e.feed_id
		WHERE 1 = 1`
	var args []any

	switch {
	case filter.FeedID != nil:
		query += ` AND e.feed_id = ?`
		args = append(args, *filter.FeedID)
	case filter.Category != nil:
		query += ` AND f.category = ?`
		args = append(args, *filter.Category)
	}

	if filter.UnreadOnly {
		query += ` AND e.is_read = 0`
	}

	query += ` ORDER BY e.published_at DESC LIMIT ?`
	args = append(args, filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}

	return entries, nil
}

// GetEntryCount returns the total number of entries for a feed.
func (r *EntryRepository) GetEntryCount(ctx context.Context, feedID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE feed_id = ?`, feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get entry count: %w", err)
	}
	return count, nil
}
