package feed

import (
	"strings"
	"testing"
	"time"
)

func TestRunRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Threat Research</title>
    <link>https://example.com</link>
    <description>Latest threat research</description>
    <item>
      <title>New Malware Campaign</title>
      <link>https://example.com/malware-campaign</link>
      <description>A description of the campaign.</description>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second Post</title>
      <link>https://example.com/second</link>
      <description>Second description.</description>
      <pubDate>Mon, 03 Jul 2023 11:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	metadata, items, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatal(err)
	}

	if metadata.Title != "Threat Research" {
		t.Errorf("Expected title 'Threat Research', got '%s'", metadata.Title)
	}
	if metadata.Link != "https://example.com" {
		t.Errorf("Expected link 'https://example.com', got '%s'", metadata.Link)
	}
	if metadata.Description != "Latest threat research" {
		t.Errorf("Expected description 'Latest threat research', got '%s'", metadata.Description)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	item1 := items[0]
	if item1.Title != "New Malware Campaign" {
		t.Errorf("Expected first item title 'New Malware Campaign', got '%s'", item1.Title)
	}
	if item1.Link != "https://example.com/malware-campaign" {
		t.Errorf("Expected first item link 'https://example.com/malware-campaign', got '%s'", item1.Link)
	}
	if item1.Content != "A description of the campaign." {
		t.Errorf("Expected description to be used as content, got '%s'", item1.Content)
	}
	if item1.PublishedAt == nil {
		t.Fatal("Expected first item to have a published date")
	}
	expected := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !item1.PublishedAt.Equal(expected) {
		t.Errorf("Expected published date %v, got %v", expected, item1.PublishedAt)
	}
}

func TestRunAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Security Feed</title>
  <link href="https://example.com"/>
  <id>https://example.com/feed</id>
  <updated>2023-07-03T12:00:00Z</updated>
  <subtitle>Atom feed subtitle</subtitle>
  <entry>
    <title>Atom Entry</title>
    <link href="https://example.com/atom1"/>
    <id>atom-1</id>
    <updated>2023-07-03T10:00:00Z</updated>
    <summary>Atom summary text</summary>
    <content type="html">Atom full content</content>
  </entry>
</feed>`

	parser := NewParser()
	metadata, items, err := parser.Run([]byte(atomData))
	if err != nil {
		t.Fatal(err)
	}

	if metadata.Title != "Atom Security Feed" {
		t.Errorf("Expected title 'Atom Security Feed', got '%s'", metadata.Title)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.Content != "Atom full content" {
		t.Errorf("Expected content element to win over summary, got '%s'", item.Content)
	}
	// No <published>: the updated timestamp stands in
	if item.PublishedAt == nil {
		t.Fatal("Expected updated timestamp to be used as published date")
	}
	expected := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !item.PublishedAt.Equal(expected) {
		t.Errorf("Expected published date %v, got %v", expected, item.PublishedAt)
	}
}

func TestRunContentFallback(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Sparse Feed</title>
    <link>https://example.com</link>
    <description>Feed with bare items</description>
    <item>
      <title>Bare Item</title>
      <link>https://example.com/bare</link>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	_, items, err := parser.Run([]byte(rssData))
	if err != nil {
		t.Fatal(err)
	}

	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}

	item := items[0]
	if !strings.Contains(item.Content, "Bare Item") || !strings.Contains(item.Content, "https://example.com/bare") {
		t.Errorf("Expected fallback content with title and link, got '%s'", item.Content)
	}
	if item.PublishedAt != nil {
		t.Errorf("Expected nil published date for undated item, got %v", item.PublishedAt)
	}
}

func TestRunInvalidData(t *testing.T) {
	parser := NewParser()

	_, _, err := parser.Run([]byte("not a feed at all"))
	if err == nil {
		t.Error("Expected error for invalid feed data")
	}

	_, _, err = parser.Run([]byte(""))
	if err == nil {
		t.Error("Expected error for empty data")
	}
}
