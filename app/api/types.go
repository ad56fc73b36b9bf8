package api

import (
	"encoding/json"
	"time"

	"github.com/WildDogOne/RSS/app/database"
)

type registerFeedRequest struct {
	URL            string `json:"url" binding:"required"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	IsSecurityFeed bool   `json:"is_security_feed"`
}

type updateConfigRequest struct {
	OllamaURL string `json:"ollama_url"`
	Model     string `json:"ollama_model"`
}

type feedResponse struct {
	ID             int64      `json:"id"`
	URL            string     `json:"url"`
	Title          string     `json:"title"`
	Category       string     `json:"category,omitempty"`
	IsSecurityFeed bool       `json:"is_security_feed"`
	LastFetchedAt  *time.Time `json:"last_fetched_at,omitempty"`
}

type categoryGroupResponse struct {
	Category string         `json:"category"`
	Feeds    []feedResponse `json:"feeds"`
}

type entryResponse struct {
	ID          int64     `json:"id"`
	FeedID      int64     `json:"feed_id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
	Content     string    `json:"content"`
	Summary     string    `json:"summary"`
	LLMSummary  string    `json:"llm_summary,omitempty"`
	IsRead      bool      `json:"is_read"`
}

type securityAnalysisResponse struct {
	EntryID    int64           `json:"entry_id"`
	IOCs       json.RawMessage `json:"iocs"`
	SigmaRule  string          `json:"sigma_rule"`
	AnalyzedAt time.Time       `json:"analyzed_at"`
}

type detailedAnalysisResponse struct {
	EntryID    int64     `json:"entry_id"`
	Content    string    `json:"content"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

type iocResponse struct {
	EntryID      int64     `json:"entry_id"`
	ArticleTitle string    `json:"article_title"`
	Type         string    `json:"type"`
	Value        string    `json:"value"`
	Context      string    `json:"context,omitempty"`
	Confidence   int       `json:"confidence"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

func newFeedResponse(f database.Feed) feedResponse {
	return feedResponse{
		ID:             f.ID,
		URL:            f.URL,
		Title:          f.Title,
		Category:       f.Category,
		IsSecurityFeed: f.IsSecurityFeed,
		LastFetchedAt:  f.LastFetchedAt,
	}
}

func newEntryResponse(e database.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		FeedID:      e.FeedID,
		Title:       e.Title,
		Link:        e.Link,
		PublishedAt: e.PublishedAt,
		Content:     e.Content,
		Summary:     e.Summary,
		LLMSummary:  e.LLMSummary,
		IsRead:      e.IsRead,
	}
}

func newSecurityAnalysisResponse(a database.SecurityAnalysis) securityAnalysisResponse {
	iocs := json.RawMessage(a.IOCs)
	if !json.Valid(iocs) {
		iocs = json.RawMessage("[]")
	}
	return securityAnalysisResponse{
		EntryID:    a.EntryID,
		IOCs:       iocs,
		SigmaRule:  a.SigmaRule,
		AnalyzedAt: a.AnalyzedAt,
	}
}

func newIOCResponse(r database.IOCRecord) iocResponse {
	return iocResponse{
		EntryID:      r.EntryID,
		ArticleTitle: r.ArticleTitle,
		Type:         r.Type,
		Value:        r.Value,
		Context:      r.Context,
		Confidence:   r.Confidence,
		DiscoveredAt: r.DiscoveredAt,
	}
}
