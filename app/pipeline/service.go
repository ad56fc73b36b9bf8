package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/WildDogOne/RSS/app/database"
	"github.com/WildDogOne/RSS/app/feed"
	"github.com/WildDogOne/RSS/app/llm"
)

// ExtractiveSummaryLength bounds the fallback summary stored alongside
// every new entry, independent of any model call.
const ExtractiveSummaryLength = 300

// ModelClient is the slice of the model client the pipeline consumes.
// All methods degrade to inline sentinel values instead of raising.
type ModelClient interface {
	SummarizeArticle(ctx context.Context, content string) string
	AnalyzeDetailedContent(ctx context.Context, content string) string
	AnalyzeSecurityContent(ctx context.Context, content string) ([]llm.IOC, string)
}

var _ ModelClient = (*llm.Client)(nil)

// Service orchestrates feed ingestion and enrichment: fetch, normalize,
// deduplicate, persist, enrich, with per-item fault isolation.
type Service struct {
	db         *database.DB
	feeds      *database.FeedRepository
	entries    *database.EntryRepository
	analyses   *database.AnalysisRepository
	parser     *feed.Parser
	model      ModelClient
	httpClient *http.Client
	userAgent  string

	mu          sync.Mutex
	lastRefresh *time.Time
}

func NewService(db *database.DB, model ModelClient, userAgent string, fetchTimeout time.Duration) *Service {
	return &Service{
		db:         db,
		feeds:      database.NewFeedRepository(db),
		entries:    database.NewEntryRepository(db),
		analyses:   database.NewAnalysisRepository(db),
		parser:     feed.NewParser(),
		model:      model,
		httpClient: &http.Client{Timeout: fetchTimeout},
		userAgent:  userAgent,
	}
}

// RegisterFeed registers a feed by URL, idempotently. An existing feed has
// its security flag updated and its title/category overwritten only when
// non-empty values are supplied; no re-fetch happens. A new feed is
// created and synchronously fetched and populated before returning.
func (s *Service) RegisterFeed(ctx context.Context, url, title, category string, isSecurityFeed bool) (*database.Feed, error) {
	existing, err := s.feeds.GetFeedByURL(ctx, url)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		newTitle := existing.Title
		if title != "" {
			newTitle = title
		}
		newCategory := existing.Category
		if category != "" {
			newCategory = category
		}
		if err := s.feeds.UpdateFeedInfo(ctx, existing.ID, newTitle, newCategory, isSecurityFeed); err != nil {
			return nil, err
		}
		return s.feeds.GetFeedByID(ctx, existing.ID)
	}

	created, err := s.feeds.CreateFeed(ctx, url, title, category, isSecurityFeed)
	if err != nil {
		return nil, err
	}

	// First registration is synchronously effectful: entries and artifacts
	// exist before the call returns. A fetch failure keeps the feed.
	if err := s.processFeed(ctx, created); err != nil {
		slog.Error("Failed to populate new feed", "feed", created.URL, "error", err)
	}

	return s.feeds.GetFeedByID(ctx, created.ID)
}

// RefreshAllFeeds runs a fetch-and-populate pass over every stored feed.
// A failure on one feed is logged and does not abort the batch. The
// last-refresh timestamp is stamped once the batch completes.
func (s *Service) RefreshAllFeeds(ctx context.Context) error {
	feeds, err := s.feeds.GetAllFeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}

	for i := range feeds {
		if err := s.processFeed(ctx, &feeds[i]); err != nil {
			slog.Error("Failed to process feed", "feed", feeds[i].URL, "error", err)
		}
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.lastRefresh = &now
	s.mu.Unlock()

	return nil
}

// LastRefresh returns when the last full refresh batch completed, or nil
// if none has run yet.
func (s *Service) LastRefresh() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}

// processFeed is the fetch-and-populate step for one feed. Fetch or parse
// failures abort the whole step with no partial mutation; item failures
// are contained per item.
func (s *Service) processFeed(ctx context.Context, f *database.Feed) error {
	data, err := s.fetchFeed(ctx, f.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	metadata, items, err := s.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	if f.Title == "" && metadata.Title != "" {
		if err := s.feeds.UpdateFeedTitle(ctx, f.ID, metadata.Title); err != nil {
			return err
		}
		f.Title = metadata.Title
	}

	newCount := 0
	skippedCount := 0
	for _, item := range items {
		if item.Link == "" {
			slog.Warn("Skipping item without link", "feed", f.URL, "title", item.Title)
			continue
		}

		inserted, err := s.ingestItem(ctx, f, item)
		if err != nil {
			// Rolled back by ingestItem; the rest of the batch proceeds.
			slog.Error("Failed to ingest item", "feed", f.URL, "link", item.Link, "error", err)
			continue
		}
		if inserted {
			newCount++
		} else {
			skippedCount++
		}
	}

	if err := s.feeds.UpdateLastFetched(ctx, f.ID, time.Now().UTC()); err != nil {
		return err
	}

	slog.Info("Feed processed", "feed", f.URL, "total", len(items),
		"new", newCount, "existing", skippedCount)

	return nil
}

// ingestItem persists one feed item inside its own transaction scope. It
// reports whether a new entry was inserted (false means the link already
// existed).
func (s *Service) ingestItem(ctx context.Context, f *database.Feed, item feed.Item) (bool, error) {
	inserted := false

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		entries := s.entries.WithTx(tx)

		exists, err := entries.EntryExists(ctx, f.ID, item.Link)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		publishedAt := time.Now().UTC()
		if item.PublishedAt != nil {
			publishedAt = item.PublishedAt.UTC()
		}

		entryID, err := entries.CreateEntry(ctx, &database.Entry{
			FeedID:      f.ID,
			Title:       item.Title,
			Link:        item.Link,
			PublishedAt: publishedAt,
			Content:     item.Content,
			Summary:     extractiveSummary(item.Content),
		})
		if err != nil {
			return err
		}
		inserted = true

		if f.IsSecurityFeed {
			// Enrichment failure keeps the entry; only its artifacts are lost.
			if err := s.applySecurityAnalysis(ctx, s.analyses.WithTx(tx), entryID, item.Content); err != nil {
				slog.Error("Security enrichment failed", "feed", f.URL, "link", item.Link, "error", err)
			}
		}

		return nil
	})

	return inserted, err
}

// applySecurityAnalysis runs model extraction for an entry and overwrites
// its security artifacts: the JSON IOC blob, the rule text, and the
// flattened IOC rows.
func (s *Service) applySecurityAnalysis(ctx context.Context, analyses *database.AnalysisRepository, entryID int64, content string) error {
	iocs, sigmaRule := s.model.AnalyzeSecurityContent(ctx, content)

	iocsJSON, err := json.Marshal(iocs)
	if err != nil {
		return fmt.Errorf("failed to encode IOC list: %w", err)
	}

	now := time.Now().UTC()
	if err := analyses.UpsertSecurityAnalysis(ctx, entryID, string(iocsJSON), sigmaRule, now); err != nil {
		return err
	}

	rows := make([]database.IOC, 0, len(iocs))
	for _, ioc := range iocs {
		rows = append(rows, database.IOC{
			EntryID:      entryID,
			Type:         ioc.Type,
			Value:        ioc.Value,
			Context:      ioc.Context,
			Confidence:   ioc.Confidence,
			DiscoveredAt: now,
		})
	}

	return analyses.ReplaceIOCs(ctx, entryID, rows)
}

func (s *Service) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// extractiveSummary truncates content to the leading
// ExtractiveSummaryLength characters with an ellipsis marker.
func extractiveSummary(content string) string {
	runes := []rune(content)
	if len(runes) <= ExtractiveSummaryLength {
		return content
	}
	return string(runes[:ExtractiveSummaryLength]) + "..."
}
