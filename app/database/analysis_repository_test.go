package database

import (
	"context"
	"testing"
	"time"
)

func TestUpsertSecurityAnalysis(t *testing.T) {
	db := OpenMemory(t)
	repo := NewAnalysisRepository(db)
	ctx := context.Background()

	feed := insertTestFeed(t, db, "https://example.com/feed.xml", "security")
	entryID := insertTestEntry(t, db, feed.ID, "https://example.com/post-1", time.Now().UTC())

	analyzedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	iocsJSON := `[{"type":"ip","value":"198.51.100.7","confidence":90}]`
	if err := repo.UpsertSecurityAnalysis(ctx, entryID, iocsJSON, "title: Rule One", analyzedAt); err != nil {
		t.Fatal(err)
	}

	analysis, err := repo.GetSecurityAnalysis(ctx, entryID)
	if err != nil {
		t.Fatal(err)
	}
	if analysis == nil {
		t.Fatal("Expected analysis, got nil")
	}
	if analysis.IOCs != iocsJSON {
		t.Errorf("Unexpected IOC blob: %q", analysis.IOCs)
	}
	if analysis.SigmaRule != "title: Rule One" {
		t.Errorf("Unexpected rule: %q", analysis.SigmaRule)
	}

	// Re-analysis replaces the stored row, not adds a second one
	laterAt := analyzedAt.Add(time.Hour)
	if err := repo.UpsertSecurityAnalysis(ctx, entryID, "[]", "title: Rule Two", laterAt); err != nil {
		t.Fatal(err)
	}

	analysis, err = repo.GetSecurityAnalysis(ctx, entryID)
	if err != nil {
		t.Fatal(err)
	}
	if analysis.SigmaRule != "title: Rule Two" {
		t.Errorf("Expected replaced rule, got %q", analysis.SigmaRule)
	}
	if analysis.IOCs != "[]" {
		t.Errorf("Expected replaced IOC blob, got %q", analysis.IOCs)
	}
}

func TestGetSecurityAnalysisMissing(t *testing.T) {
	db := OpenMemory(t)
	repo := NewAnalysisRepository(db)

	analysis, err := repo.GetSecurityAnalysis(context.Background(), 12345)
	if err != nil {
		t.Fatal(err)
	}
	if analysis != nil {
		t.Errorf("Expected nil for missing analysis, got %+v", analysis)
	}
}

func TestUpsertDetailedAnalysis(t *testing.T) {
	db := OpenMemory(t)
	repo := NewAnalysisRepository(db)
	ctx := context.Background()

	feed := insertTestFeed(t, db, "https://example.com/feed.xml", "")
	entryID := insertTestEntry(t, db, feed.ID, "https://example.com/post-1", time.Now().UTC())

	analyzedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.UpsertDetailedAnalysis(ctx, entryID, "First write-up", analyzedAt); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertDetailedAnalysis(ctx, entryID, "Second write-up", analyzedAt.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	analysis, err := repo.GetDetailedAnalysis(ctx, entryID)
	if err != nil {
		t.Fatal(err)
	}
	if analysis == nil {
		t.Fatal("Expected analysis, got nil")
	}
	if analysis.Content != "Second write-up" {
		t.Errorf("Expected latest write-up, got %q", analysis.Content)
	}
}

func TestReplaceIOCs(t *testing.T) {
	db := OpenMemory(t)
	repo := NewAnalysisRepository(db)
	ctx := context.Background()

	feed := insertTestFeed(t, db, "https://example.com/feed.xml", "security")
	entryID := insertTestEntry(t, db, feed.ID, "https://example.com/post-1", time.Now().UTC())

	now := time.Now().UTC()
	first := []IOC{
		{EntryID: entryID, Type: "ip", Value: "198.51.100.7", Context: "beacon", Confidence: 90, DiscoveredAt: now},
		{EntryID: entryID, Type: "domain", Value: "evil.example.com", Confidence: 70, DiscoveredAt: now},
	}
	if err := repo.ReplaceIOCs(ctx, entryID, first); err != nil {
		t.Fatal(err)
	}

	second := []IOC{
		{EntryID: entryID, Type: "hash", Value: "d41d8cd98f00b204e9800998ecf8427e", Confidence: 60, DiscoveredAt: now},
	}
	if err := repo.ReplaceIOCs(ctx, entryID, second); err != nil {
		t.Fatal(err)
	}

	records, err := repo.GetAllIOCs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected replacement to leave 1 IOC, got %d", len(records))
	}
	if records[0].Type != "hash" {
		t.Errorf("Expected hash IOC after replacement, got %q", records[0].Type)
	}
	if records[0].ArticleTitle == "" {
		t.Error("Expected article title joined onto the IOC record")
	}
}

func TestGetAllIOCsNewestFirst(t *testing.T) {
	db := OpenMemory(t)
	repo := NewAnalysisRepository(db)
	ctx := context.Background()

	feed := insertTestFeed(t, db, "https://example.com/feed.xml", "security")
	oldEntry := insertTestEntry(t, db, feed.ID, "https://example.com/old", time.Now().UTC())
	newEntry := insertTestEntry(t, db, feed.ID, "https://example.com/new", time.Now().UTC())

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.ReplaceIOCs(ctx, oldEntry, []IOC{
		{EntryID: oldEntry, Type: "ip", Value: "203.0.113.1", Confidence: 50, DiscoveredAt: base},
	}); err != nil {
		t.Fatal(err)
	}
	if err := repo.ReplaceIOCs(ctx, newEntry, []IOC{
		{EntryID: newEntry, Type: "ip", Value: "203.0.113.2", Confidence: 50, DiscoveredAt: base.Add(time.Hour)},
	}); err != nil {
		t.Fatal(err)
	}

	records, err := repo.GetAllIOCs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 IOCs, got %d", len(records))
	}
	if records[0].Value != "203.0.113.2" {
		t.Errorf("Expected newest IOC first, got %q", records[0].Value)
	}
}

func TestDeleteFeedCascadesAnalyses(t *testing.T) {
	db := OpenMemory(t)
	feedRepo := NewFeedRepository(db)
	repo := NewAnalysisRepository(db)
	ctx := context.Background()

	feed := insertTestFeed(t, db, "https://example.com/feed.xml", "security")
	entryID := insertTestEntry(t, db, feed.ID, "https://example.com/post-1", time.Now().UTC())

	now := time.Now().UTC()
	if err := repo.UpsertSecurityAnalysis(ctx, entryID, "[]", "title: Rule", now); err != nil {
		t.Fatal(err)
	}
	if err := repo.ReplaceIOCs(ctx, entryID, []IOC{
		{EntryID: entryID, Type: "ip", Value: "203.0.113.1", Confidence: 50, DiscoveredAt: now},
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := feedRepo.DeleteFeed(ctx, feed.ID); err != nil {
		t.Fatal(err)
	}

	records, err := repo.GetAllIOCs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("Expected IOCs removed with their feed, got %d", len(records))
	}
}
