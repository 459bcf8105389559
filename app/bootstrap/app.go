package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/lysyi3m/world-on-fire/app/cache"
	"github.com/lysyi3m/world-on-fire/app/cfg"
	"github.com/lysyi3m/world-on-fire/app/config"
	"github.com/lysyi3m/world-on-fire/app/database"
	"github.com/lysyi3m/world-on-fire/app/feed"
	"github.com/lysyi3m/world-on-fire/app/fetch"
	"github.com/lysyi3m/world-on-fire/app/geo"
	"github.com/lysyi3m/world-on-fire/app/heatmap"
	"github.com/lysyi3m/world-on-fire/app/ingest"
	"github.com/lysyi3m/world-on-fire/app/places"
	"github.com/lysyi3m/world-on-fire/app/sentiment"
)

// App holds every long-lived component, wired from one configuration.
type App struct {
	Cfg       *cfg.Cfg
	DB        *database.DB
	Cache     *cache.Cache // nil when Redis is not configured
	Catalog   *places.Catalog
	Articles  *database.SQLArticleRepository
	Locations *database.SQLLocationRepository
	Pipeline  *ingest.Pipeline
	Resolver  *geo.Resolver
	Heatmap   *heatmap.Aggregator
	Generator *feed.Generator
}

// SetupLogging installs the process-wide slog handler.
func SetupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func New(ctx context.Context, c *cfg.Cfg) (*App, error) {
	app := &App{Cfg: c}

	slog.Info("Connecting to database", "driver", c.DBDriver)
	db, err := database.NewConnection(c.DBDriver, c.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	catalog, err := places.NewCatalog(c.PlacesFile)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load place catalog: %w", err)
	}
	app.Catalog = catalog
	slog.Info("Place catalog loaded", "tracked", catalog.Count(), "filter", c.PlaceFilter)

	if c.RedisAddr != "" {
		app.Cache, err = cache.NewCache(ctx, c.RedisAddr)
		if err != nil {
			slog.Warn("Redis unavailable, response caching disabled", "addr", c.RedisAddr, "error", err)
		}
	}

	client := fetch.NewClient(&http.Client{}, c.UserAgent)

	scorer := sentiment.New()

	app.Articles = database.NewArticleRepository(db)
	app.Locations = database.NewLocationRepository(db)

	fetcher := feed.NewFetcher(
		client,
		feed.NewParser(),
		catalog,
		feed.NewFilterer(catalog, c.TrackedOnly()),
		feed.NewEnricher(client, feed.NewContentExtractor(), c.PageTimeout),
		feed.FetcherOptions{
			WorkerCount: c.WorkerCount,
			Deadline:    c.FetchDeadline,
			FeedTimeout: c.FeedTimeout,
		},
	)
	app.Pipeline = ingest.NewPipeline(config.NewLoader(c.SourcesFile), fetcher, app.Articles, scorer, c.StalenessWindow)

	geocoder := geo.NewNominatim(client, geo.NominatimOptions{
		BaseURL:   c.NominatimURL,
		UserAgent: c.GeocoderUserAgent,
	})
	app.Resolver = geo.NewResolver(app.Locations, geocoder, c.GeocodeTimeout)
	app.Heatmap = heatmap.NewAggregator(app.Articles, app.Resolver)

	baseURL := c.BaseUrl
	if baseURL == "" {
		baseURL = "http://localhost:" + c.Port
	}
	app.Generator = feed.NewGenerator(baseURL, c.Version)

	return app, nil
}

func (a *App) Close() {
	if err := a.Cache.Close(); err != nil {
		slog.Warn("Failed to close Redis connection", "error", err)
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}
}
