package cfg

import (
	"cmp"
	"fmt"
	"log/slog"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

const (
	PlaceFilterTracked = "tracked"
	PlaceFilterAll     = "all"
)

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBDriver  string `long:"db-driver" env:"DB_DRIVER" default:"sqlite" choice:"sqlite" choice:"postgres" description:"Database driver"`
	DBDSN     string `long:"db-dsn" env:"DB_DSN" default:"file:worldonfire.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)" description:"Database connection string"`
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for response caching (optional)"`

	// Ingestion configuration
	SourcesFile     string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.txt" description:"Feed source list (.txt, one URL per line, or .yml)"`
	PlacesFile      string `long:"places-file" env:"PLACES_FILE" description:"Place catalog YAML (defaults to the built-in catalog)"`
	PlaceFilter     string `long:"place-filter" env:"PLACE_FILTER" default:"tracked" choice:"tracked" choice:"all" description:"Keep only tracked places or every recognised place"`
	WorkerCount     int    `long:"worker-count" env:"WORKER_COUNT" default:"15" description:"Number of feed sources fetched concurrently"`
	FetchDeadline   int    `long:"fetch-deadline" env:"FETCH_DEADLINE" default:"120" description:"Overall fetch deadline for one ingestion run in seconds"`
	FeedTimeout     int    `long:"feed-timeout" env:"FEED_TIMEOUT" default:"20" description:"Per-feed request timeout in seconds"`
	PageTimeout     int    `long:"page-timeout" env:"PAGE_TIMEOUT" default:"10" description:"Per-article page request timeout in seconds"`
	StalenessWindow int    `long:"staleness-window" env:"STALENESS_WINDOW" default:"24" description:"Maximum article age in hours"`
	IngestSchedule  string `long:"ingest-schedule" env:"INGEST_SCHEDULE" default:"@every 10m" description:"Cron schedule for ingestion runs"`
	TaskWorkers     int    `long:"task-workers" env:"TASK_WORKERS" default:"2" description:"Number of background task workers"`

	// Geocoding configuration
	NominatimURL      string `long:"nominatim-url" env:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org" description:"Nominatim base URL"`
	GeocodeTimeout    int    `long:"geocode-timeout" env:"GEOCODE_TIMEOUT" default:"10" description:"Geocoding request timeout in seconds"`
	GeocoderUserAgent string `long:"geocoder-user-agent" env:"GEOCODER_USER_AGENT" default:"worldonfire-backend" description:"User agent sent to the geocoding service"`

	// HTTP configuration
	Port            string   `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl         string   `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	APIAccessKey    string   `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	AllowedOrigins  []string `long:"allowed-origin" env:"ALLOWED_ORIGINS" env-delim:"," default:"*" description:"CORS allowed origins"`
	HeatmapCacheTTL int      `long:"heatmap-cache-ttl" env:"HEATMAP_CACHE_TTL" default:"300" description:"Heatmap response cache TTL in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"WorldOnFire/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses flags and environment. It returns nil, nil when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.WorkerCount < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", raw.WorkerCount)
	}
	if raw.TaskWorkers < 1 {
		return nil, fmt.Errorf("task workers must be positive, got %d", raw.TaskWorkers)
	}

	cfg := &Cfg{
		DBDriver:          raw.DBDriver,
		DBDSN:             raw.DBDSN,
		RedisAddr:         raw.RedisAddr,
		SourcesFile:       raw.SourcesFile,
		PlacesFile:        raw.PlacesFile,
		PlaceFilter:       raw.PlaceFilter,
		WorkerCount:       raw.WorkerCount,
		FetchDeadline:     seconds(raw.FetchDeadline),
		FeedTimeout:       seconds(raw.FeedTimeout),
		PageTimeout:       seconds(raw.PageTimeout),
		StalenessWindow:   time.Duration(raw.StalenessWindow) * time.Hour,
		IngestSchedule:    raw.IngestSchedule,
		TaskWorkers:       raw.TaskWorkers,
		NominatimURL:      raw.NominatimURL,
		GeocodeTimeout:    seconds(raw.GeocodeTimeout),
		GeocoderUserAgent: raw.GeocoderUserAgent,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		APIAccessKey:      raw.APIAccessKey,
		AllowedOrigins:    raw.AllowedOrigins,
		HeatmapCacheTTL:   seconds(raw.HeatmapCacheTTL),
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			slog.Debug("Timezone configured", "timezone", timezone)
		}
	}
	return nil
}
