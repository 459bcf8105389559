package feed

import (
	"context"

	"github.com/lysyi3m/world-on-fire/app/fetch"
)

// Getter performs a bounded GET. Implemented by fetch.Client.
type Getter interface {
	Get(ctx context.Context, url string, r fetch.Request) ([]byte, error)
}

// PlaceExtractor finds place names in free text.
type PlaceExtractor interface {
	Extract(text string) []string
}

// PlaceFilter reports whether a place belongs to the tracked set.
type PlaceFilter interface {
	Tracked(name string) bool
}

// EnricherInterface scrapes an article page. Implementations must not fail.
type EnricherInterface interface {
	Enrich(ctx context.Context, link string) Enrichment
}

var _ Getter = (*fetch.Client)(nil)
var _ EnricherInterface = (*Enricher)(nil)
