package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/world-on-fire/app/fetch"
)

// Nominatim's usage policy allows one request per second.
const defaultMinInterval = time.Second

type NominatimOptions struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
}

// Nominatim geocodes place names against an OpenStreetMap Nominatim instance.
type Nominatim struct {
	client    Getter
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func NewNominatim(client Getter, opts NominatimOptions) *Nominatim {
	interval := opts.MinInterval
	if interval <= 0 {
		interval = defaultMinInterval
	}
	return &Nominatim{
		client:    client,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Geocode returns the coordinates of the best match, or nil, nil when
// Nominatim knows no such place.
func (n *Nominatim) Geocode(ctx context.Context, query string) (*Coordinates, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("geocoder rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	data, err := n.client.Get(ctx, n.baseURL+"/search?"+params.Encode(), fetch.Request{
		Accept:    "application/json",
		UserAgent: n.userAgent,
	})
	if err != nil {
		return nil, err
	}

	var places []nominatimPlace
	if err := json.Unmarshal(data, &places); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", places[0].Lon, err)
	}

	return &Coordinates{Latitude: lat, Longitude: lon}, nil
}
