package database

import (
	"context"
)

// ArticleRepository stores news articles. Uniqueness is enforced by callers
// through the Exists checks, not by the schema.
type ArticleRepository interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	Insert(ctx context.Context, article Article) (int64, error)

	SelectForHeatmap(ctx context.Context) ([]HeatmapRow, error)
	Latest(ctx context.Context, limit int) ([]Article, error)
	Search(ctx context.Context, location string, limit int) ([]Article, error)
	Count(ctx context.Context) (int, error)
}

// LocationRepository is the coordinate cache. Get returns nil, nil when absent.
type LocationRepository interface {
	Get(ctx context.Context, name string) (*Location, error)
	Upsert(ctx context.Context, name string, latitude, longitude float64) error
	Count(ctx context.Context) (int, error)
}

var _ ArticleRepository = (*SQLArticleRepository)(nil)
var _ LocationRepository = (*SQLLocationRepository)(nil)
