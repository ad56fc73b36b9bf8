package database

import (
	"time"
)

// Feed represents a registered RSS/Atom source. An empty Title or Category
// stands for the absent value (backfilled from feed metadata, or
// uncategorized respectively).
type Feed struct {
	ID             int64
	URL            string
	Title          string
	Category       string
	IsSecurityFeed bool
	LastFetchedAt  *time.Time
	CreatedAt      time.Time
}

// Entry represents one article ingested from a feed, deduplicated by
// (feed_id, link). Summary holds the extractive fallback; LLMSummary is
// empty until a model summary is generated.
type Entry struct {
	ID          int64
	FeedID      int64
	Title       string
	Link        string
	PublishedAt time.Time
	Content     string
	Summary     string
	LLMSummary  string
	IsRead      bool
	CreatedAt   time.Time
}

// SecurityAnalysis holds the per-entry enrichment artifacts: the extracted
// IOC list serialized as JSON and the generated Sigma rule text.
type SecurityAnalysis struct {
	ID         int64
	EntryID    int64
	IOCs       string
	SigmaRule  string
	AnalyzedAt time.Time
}

// DetailedAnalysis holds the free-form model write-up for an entry.
type DetailedAnalysis struct {
	ID         int64
	EntryID    int64
	Content    string
	AnalyzedAt time.Time
}

// IOC is one flattened indicator row, used for cross-feed browsing
// independent of the per-entry analysis blob.
type IOC struct {
	ID           int64
	EntryID      int64
	Type         string
	Value        string
	Context      string
	Confidence   int
	DiscoveredAt time.Time
}

// IOCRecord is an IOC joined back to the title of the article it was
// discovered in.
type IOCRecord struct {
	EntryID      int64
	ArticleTitle string
	Type         string
	Value        string
	Context      string
	Confidence   int
	DiscoveredAt time.Time
}

// EntryFilter narrows GetLatestEntries. At most one of FeedID and Category
// may be set; both nil means all feeds.
type EntryFilter struct {
	FeedID     *int64
	Category   *string
	UnreadOnly bool
	Limit      int
}

// CategoryGroup is one category bucket of the grouped feed listing.
type CategoryGroup struct {
	Category string
	Feeds    []Feed
}
