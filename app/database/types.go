package database

import (
	"time"
)

type Article struct {
	ID          int64
	Title       string
	Locations   []string
	ImageURL    string
	Description string
	Sentiment   *float64 // nil when scoring was unavailable
	URL         string
	Source      string
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// HeatmapRow is the projection the heatmap aggregation reads.
type HeatmapRow struct {
	Title     string
	Locations []string
	Sentiment *float64
}

// Location is a cached geocoding result keyed by the exact place name.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
	UpdatedAt time.Time
}
