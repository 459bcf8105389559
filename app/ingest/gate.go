package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/lysyi3m/world-on-fire/app/feed"
)

type Verdict int

const (
	Accepted Verdict = iota
	NoPlaces
	NoPublished
	Stale
	Duplicate
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case NoPlaces:
		return "no_places"
	case NoPublished:
		return "no_published"
	case Stale:
		return "stale"
	case Duplicate:
		return "duplicate"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// Gate decides whether a fetched article is fresh and new enough to store.
type Gate struct {
	store  ArticleStore
	window time.Duration
}

func NewGate(store ArticleStore, window time.Duration) *Gate {
	return &Gate{store: store, window: window}
}

// Check rejects articles without places, without a published time, published
// more than the staleness window before now, or already stored under the same
// link or title. An error means the store could not be consulted.
func (g *Gate) Check(ctx context.Context, article feed.Article, now time.Time) (Verdict, error) {
	if len(article.Places) == 0 {
		return NoPlaces, nil
	}
	if article.PublishedAt == nil {
		return NoPublished, nil
	}
	if now.Sub(*article.PublishedAt) > g.window {
		return Stale, nil
	}

	exists, err := g.store.ExistsByURL(ctx, article.Link)
	if err != nil {
		return Accepted, err
	}
	if exists {
		return Duplicate, nil
	}

	exists, err = g.store.ExistsByTitle(ctx, article.Title)
	if err != nil {
		return Accepted, err
	}
	if exists {
		return Duplicate, nil
	}

	return Accepted, nil
}
