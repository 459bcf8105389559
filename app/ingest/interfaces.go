package ingest

import (
	"context"

	"github.com/lysyi3m/world-on-fire/app/config"
	"github.com/lysyi3m/world-on-fire/app/database"
	"github.com/lysyi3m/world-on-fire/app/feed"
	"github.com/lysyi3m/world-on-fire/app/sentiment"
)

// SourceLoader returns the current feed source list.
type SourceLoader interface {
	Load() ([]config.Source, error)
}

// FeedFetcher fetches and merges articles from the given sources.
type FeedFetcher interface {
	Run(ctx context.Context, sources []config.Source) *feed.FetchResult
}

// Scorer maps text to a sentiment in [-1, 1].
type Scorer interface {
	Score(text string) (float64, error)
}

// ArticleStore is the part of the article repository ingestion writes through.
type ArticleStore interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	Insert(ctx context.Context, article database.Article) (int64, error)
}

var _ SourceLoader = (*config.Loader)(nil)
var _ FeedFetcher = (*feed.Fetcher)(nil)
var _ Scorer = (*sentiment.Scorer)(nil)
var _ ArticleStore = (*database.SQLArticleRepository)(nil)
