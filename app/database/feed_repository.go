package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FeedRepository handles database operations for feeds
type FeedRepository struct {
	db DBTX
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// WithTx returns a repository view bound to the given transaction.
func (r *FeedRepository) WithTx(tx *sql.Tx) *FeedRepository {
	return &FeedRepository{db: tx}
}

const feedColumns = `id, url, COALESCE(title, ''), COALESCE(category, ''), is_security_feed, last_fetched_at, created_at`

func scanFeed(row interface{ Scan(...any) error }) (*Feed, error) {
	var feed Feed
	err := row.Scan(&feed.ID, &feed.URL, &feed.Title, &feed.Category,
		&feed.IsSecurityFeed, &feed.LastFetchedAt, &feed.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

// CreateFeed inserts a new feed and returns it with its assigned ID.
func (r *FeedRepository) CreateFeed(ctx context.Context, url, title, category string, isSecurityFeed bool) (*Feed, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO feeds (url, title, category, is_security_feed)
		VALUES (?, NULLIF(?, ''), NULLIF(?, ''), ?)
	`, url, title, category, isSecurityFeed)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get feed ID: %w", err)
	}

	return r.GetFeedByID(ctx, id)
}

// GetFeedByURL retrieves a feed by its URL, returning nil when absent.
func (r *FeedRepository) GetFeedByURL(ctx context.Context, url string) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRowContext(ctx,
		`SELECT `+feedColumns+` FROM feeds WHERE url = ?`, url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by URL: %w", err)
	}
	return feed, nil
}

// GetFeedByID retrieves a feed by its ID, returning nil when absent.
func (r *FeedRepository) GetFeedByID(ctx context.Context, id int64) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRowContext(ctx,
		`SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by ID: %w", err)
	}
	return feed, nil
}

// UpdateFeedInfo overwrites the mutable feed attributes.
func (r *FeedRepository) UpdateFeedInfo(ctx context.Context, id int64, title, category string, isSecurityFeed bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE feeds
		SET title = NULLIF(?, ''), category = NULLIF(?, ''), is_security_feed = ?
		WHERE id = ?
	`, title, category, isSecurityFeed, id)
	if err != nil {
		return fmt.Errorf("failed to update feed info: %w", err)
	}
	return nil
}

// UpdateFeedTitle backfills the feed title from parsed feed metadata.
func (r *FeedRepository) UpdateFeedTitle(ctx context.Context, id int64, title string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE feeds SET title = NULLIF(?, '') WHERE id = ?
	`, title, id)
	if err != nil {
		return fmt.Errorf("failed to update feed title: %w", err)
	}
	return nil
}

// UpdateLastFetched stamps the feed's last successful fetch time.
func (r *FeedRepository) UpdateLastFetched(ctx context.Context, id int64, fetchedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE feeds SET last_fetched_at = ? WHERE id = ?
	`, fetchedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update last fetched time: %w", err)
	}
	return nil
}

// GetAllFeeds returns every registered feed ordered by ID.
func (r *FeedRepository) GetAllFeeds(ctx context.Context) ([]Feed, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+feedColumns+` FROM feeds ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

// GetCategories returns the distinct non-null categories, sorted alphabetically.
func (r *FeedRepository) GetCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT category FROM feeds
		WHERE category IS NOT NULL
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	return categories, nil
}

// GetFeedsByCategory returns feeds grouped into category buckets. Named
// categories come first in alphabetical order; feeds without a category
// land in the trailing "Uncategorized" bucket.
func (r *FeedRepository) GetFeedsByCategory(ctx context.Context) ([]CategoryGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+feedColumns+`
		FROM feeds
		ORDER BY category IS NULL, category, title
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds by category: %w", err)
	}
	defer rows.Close()

	var groups []CategoryGroup
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}

		bucket := feed.Category
		if bucket == "" {
			bucket = "Uncategorized"
		}

		if len(groups) == 0 || groups[len(groups)-1].Category != bucket {
			groups = append(groups, CategoryGroup{Category: bucket})
		}
		groups[len(groups)-1].Feeds = append(groups[len(groups)-1].Feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return groups, nil
}

// DeleteFeed removes a feed; entries and their artifacts cascade. It
// reports whether a row was actually deleted.
func (r *FeedRepository) DeleteFeed(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete feed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// GetFeedCount returns the total number of feeds
func (r *FeedRepository) GetFeedCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}
