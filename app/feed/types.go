package feed

import (
	"time"
)

// Feed processing types

type Metadata struct {
	Title       string
	Link        string
	Description string
	Language    string
}

// Entry is one item as it appears in a remote feed, before place extraction.
type Entry struct {
	Title       string
	Link        string
	Description string // may contain markup
	Content     string // may contain markup
	Published   string // raw value from the feed
	PublishedAt *time.Time
	ImageURL    string // best feed-native image candidate
}

// Article is an entry that mentions at least one kept place.
type Article struct {
	Title       string
	Link        string
	Source      string
	Published   string
	PublishedAt *time.Time
	Summary     string // plain text, at most SummaryLimit runes
	ImageURL    string
	Places      PlaceSet
}

// Enrichment is the best-effort result of scraping an article page.
type Enrichment struct {
	ImageURL string
	Text     string
}

// SourceError records why a source contributed no entries.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// FetchResult is the outcome of one fetch batch. It never represents a whole-batch failure.
type FetchResult struct {
	Articles   []Article
	Errors     []SourceError
	Incomplete []string // sources abandoned at the batch deadline
	Entries    int      // raw entries parsed across all completed sources
	Dropped    int      // entries without any kept place
}
