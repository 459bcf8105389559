package api

import (
	"context"
	"time"

	"github.com/lysyi3m/world-on-fire/app/cache"
	"github.com/lysyi3m/world-on-fire/app/database"
	"github.com/lysyi3m/world-on-fire/app/feed"
	"github.com/lysyi3m/world-on-fire/app/heatmap"
	"github.com/lysyi3m/world-on-fire/app/ingest"
	"github.com/lysyi3m/world-on-fire/app/places"
	"github.com/lysyi3m/world-on-fire/app/tasks"
)

type ArticleReader interface {
	Latest(ctx context.Context, limit int) ([]database.Article, error)
	Search(ctx context.Context, location string, limit int) ([]database.Article, error)
	Count(ctx context.Context) (int, error)
}

type HeatmapBuilder interface {
	Build(ctx context.Context) (*heatmap.Heatmap, error)
}

// Ingester runs one ingestion on demand. Implemented by tasks.Scheduler, so
// manual and scheduled runs never overlap.
type Ingester interface {
	RunIngest(ctx context.Context, trigger string) (*ingest.Report, error)
}

type ResponseCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Health(ctx context.Context) map[string]any
}

type GeneratorInterface interface {
	Run(location string, articles []database.Article) (string, error)
}

type PlaceCatalog interface {
	Count() int
}

var _ ArticleReader = (*database.SQLArticleRepository)(nil)
var _ HeatmapBuilder = (*heatmap.Aggregator)(nil)
var _ Ingester = (*tasks.Scheduler)(nil)
var _ ResponseCache = (*cache.Cache)(nil)
var _ GeneratorInterface = (*feed.Generator)(nil)
var _ PlaceCatalog = (*places.Catalog)(nil)

type Handler struct {
	articles  ArticleReader
	heatmap   HeatmapBuilder
	ingester  Ingester
	cache     ResponseCache
	catalog   PlaceCatalog
	generator GeneratorInterface
	cacheTTL  time.Duration
}

// NewsItem is the public shape of a stored article.
type NewsItem struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Locations   []string   `json:"locations"`
	ImageURL    string     `json:"image_url,omitempty"`
	Description string     `json:"description,omitempty"`
	Sentiment   *float64   `json:"sentiment"`
	URL         string     `json:"url"`
	Source      string     `json:"source,omitempty"`
	PublishedAt *time.Time `json:"published_at"`
}

type NewsResponse struct {
	Location string     `json:"location,omitempty"`
	Count    int        `json:"count"`
	Items    []NewsItem `json:"items"`
}

func newNewsItem(a database.Article) NewsItem {
	locations := a.Locations
	if locations == nil {
		locations = []string{}
	}
	return NewsItem{
		ID:          a.ID,
		Title:       a.Title,
		Locations:   locations,
		ImageURL:    a.ImageURL,
		Description: a.Description,
		Sentiment:   a.Sentiment,
		URL:         a.URL,
		Source:      a.Source,
		PublishedAt: a.PublishedAt,
	}
}
