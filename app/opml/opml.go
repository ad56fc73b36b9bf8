package opml

import (
	"encoding/xml"
	"fmt"
)

// Outline is one OPML outline node. Exports use nested outlines for
// category grouping: feed outlines carry an xmlUrl attribute, grouping
// outlines only a text/title label.
type Outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr"`
	XMLURL   string    `xml:"xmlUrl,attr"`
	Outlines []Outline `xml:"outline"`
}

type document struct {
	Body struct {
		Outlines []Outline `xml:"outline"`
	} `xml:"body"`
}

// Feed is one feed discovered in an OPML document, with the category
// taken from its enclosing grouping outline (empty at top level).
type Feed struct {
	URL      string
	Title    string
	Category string
}

// Parse extracts every feed from an OPML document, walking the outline
// hierarchy.
func Parse(data []byte) ([]Feed, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	var feeds []Feed
	for _, outline := range doc.Body.Outlines {
		feeds = collect(feeds, outline, "")
	}

	return feeds, nil
}

func collect(feeds []Feed, outline Outline, category string) []Feed {
	if outline.XMLURL != "" {
		feeds = append(feeds, Feed{
			URL:      outline.XMLURL,
			Title:    label(outline),
			Category: category,
		})
	} else if label(outline) != "" {
		category = label(outline)
	}

	for _, child := range outline.Outlines {
		feeds = collect(feeds, child, category)
	}

	return feeds
}

func label(outline Outline) string {
	if outline.Text != "" {
		return outline.Text
	}
	return outline.Title
}
