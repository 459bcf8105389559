package cfg

import "time"

type Cfg struct {
	// Storage configuration
	DBDriver  string
	DBDSN     string
	RedisAddr string

	// Ingestion configuration
	SourcesFile     string
	PlacesFile      string
	PlaceFilter     string
	WorkerCount     int
	FetchDeadline   time.Duration
	FeedTimeout     time.Duration
	PageTimeout     time.Duration
	StalenessWindow time.Duration
	IngestSchedule  string
	TaskWorkers     int

	// Geocoding configuration
	NominatimURL      string
	GeocodeTimeout    time.Duration
	GeocoderUserAgent string

	// HTTP configuration
	Port            string
	BaseUrl         string
	APIAccessKey    string
	AllowedOrigins  []string
	HeatmapCacheTTL time.Duration

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// TrackedOnly reports whether extracted places are narrowed to the tracked catalog.
func (c *Cfg) TrackedOnly() bool {
	return c.PlaceFilter != PlaceFilterAll
}
