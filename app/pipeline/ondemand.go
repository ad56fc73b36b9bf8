package pipeline

import (
	"context"
	"database/sql"
	"time"

	"github.com/WildDogOne/RSS/app/database"
)

// On-demand single-entry operations. A missing entry id is a no-op
// returning a nil result, not an error.

// MarkEntryRead flags an entry as read and returns the updated entry.
func (s *Service) MarkEntryRead(ctx context.Context, entryID int64) (*database.Entry, error) {
	entry, err := s.entries.GetEntryByID(ctx, entryID)
	if err != nil || entry == nil {
		return nil, err
	}

	if err := s.entries.MarkRead(ctx, entryID); err != nil {
		return nil, err
	}

	entry.IsRead = true
	return entry, nil
}

// GenerateSummary (re)generates the model summary for an entry,
// overwriting any prior value.
func (s *Service) GenerateSummary(ctx context.Context, entryID int64) (*database.Entry, error) {
	entry, err := s.entries.GetEntryByID(ctx, entryID)
	if err != nil || entry == nil {
		return nil, err
	}

	summary := s.model.SummarizeArticle(ctx, entry.Content)
	if err := s.entries.SetLLMSummary(ctx, entryID, summary); err != nil {
		return nil, err
	}

	entry.LLMSummary = summary
	return entry, nil
}

// AnalyzeSecurity (re)runs security analysis for an entry regardless of
// the owning feed's flag, creating or overwriting the analysis record.
func (s *Service) AnalyzeSecurity(ctx context.Context, entryID int64) (*database.SecurityAnalysis, error) {
	entry, err := s.entries.GetEntryByID(ctx, entryID)
	if err != nil || entry == nil {
		return nil, err
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.applySecurityAnalysis(ctx, s.analyses.WithTx(tx), entryID, entry.Content)
	})
	if err != nil {
		return nil, err
	}

	return s.analyses.GetSecurityAnalysis(ctx, entryID)
}

// AnalyzeDetailed (re)runs the detailed content analysis for an entry.
func (s *Service) AnalyzeDetailed(ctx context.Context, entryID int64) (*database.DetailedAnalysis, error) {
	entry, err := s.entries.GetEntryByID(ctx, entryID)
	if err != nil || entry == nil {
		return nil, err
	}

	content := s.model.AnalyzeDetailedContent(ctx, entry.Content)
	if err := s.analyses.UpsertDetailedAnalysis(ctx, entryID, content, time.Now().UTC()); err != nil {
		return nil, err
	}

	return s.analyses.GetDetailedAnalysis(ctx, entryID)
}

// DeleteFeed removes a feed and, by cascade, its entries and artifacts.
// It reports whether the feed existed.
func (s *Service) DeleteFeed(ctx context.Context, feedID int64) (bool, error) {
	return s.feeds.DeleteFeed(ctx, feedID)
}

// Query pass-throughs for the presentation collaborator.

func (s *Service) LatestEntries(ctx context.Context, filter database.EntryFilter) ([]database.Entry, error) {
	return s.entries.GetLatestEntries(ctx, filter)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.feeds.GetCategories(ctx)
}

func (s *Service) FeedsByCategory(ctx context.Context) ([]database.CategoryGroup, error) {
	return s.feeds.GetFeedsByCategory(ctx)
}

func (s *Service) AllIOCs(ctx context.Context) ([]database.IOCRecord, error) {
	return s.analyses.GetAllIOCs(ctx)
}

func (s *Service) FeedCount(ctx context.Context) (int, error) {
	return s.feeds.GetFeedCount(ctx)
}

func (s *Service) SecurityAnalysis(ctx context.Context, entryID int64) (*database.SecurityAnalysis, error) {
	return s.analyses.GetSecurityAnalysis(ctx, entryID)
}

func (s *Service) DetailedAnalysis(ctx context.Context, entryID int64) (*database.DetailedAnalysis, error) {
	return s.analyses.GetDetailedAnalysis(ctx, entryID)
}
