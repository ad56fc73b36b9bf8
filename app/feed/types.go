package feed

import (
	"time"
)

type Metadata struct {
	Title       string
	Link        string
	Description string
}

// Item is a normalized feed item. PublishedAt is nil when the source
// document carries no usable date; Content is already resolved through the
// fallback chain (content body, description, stringified item).
type Item struct {
	Title       string
	Link        string
	Content     string
	PublishedAt *time.Time
}
