package heatmap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/world-on-fire/app/database"
	"github.com/lysyi3m/world-on-fire/app/geo"
)

type RowSource interface {
	SelectForHeatmap(ctx context.Context) ([]database.HeatmapRow, error)
}

type CoordinateResolver interface {
	Resolve(ctx context.Context, location string) geo.Resolution
}

var _ RowSource = (*database.SQLArticleRepository)(nil)
var _ CoordinateResolver = (*geo.Resolver)(nil)

// Point is the mean sentiment of one place. Coordinates encode as [lat, lon]
// or null when the place could not be located.
type Point struct {
	Location    string           `json:"location"`
	Intensity   float64          `json:"intensity"`
	Coordinates *geo.Coordinates `json:"coordinates"`
}

type Stats struct {
	Articles          int `json:"articles"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
	Locations         int `json:"locations"`
	CacheHits         int `json:"cache_hits"`
	CacheMisses       int `json:"cache_misses"`
	Unresolved        int `json:"unresolved"`
}

type Heatmap struct {
	Points []Point `json:"points"`
	Stats  Stats   `json:"stats"`
}

type Aggregator struct {
	rows     RowSource
	resolver CoordinateResolver
}

func NewAggregator(rows RowSource, resolver CoordinateResolver) *Aggregator {
	return &Aggregator{rows: rows, resolver: resolver}
}

type tally struct {
	sum   float64
	count int
}

// Build averages sentiment per place across stored articles. Rows arrive
// newest first and only the first row of each title counts.
func (a *Aggregator) Build(ctx context.Context) (*Heatmap, error) {
	start := time.Now()

	rows, err := a.rows.SelectForHeatmap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load heatmap rows: %w", err)
	}

	var stats Stats
	seen := make(map[string]struct{}, len(rows))
	tallies := make(map[string]*tally)
	var order []string

	for _, row := range rows {
		if _, dup := seen[row.Title]; dup {
			stats.DuplicatesSkipped++
			continue
		}
		seen[row.Title] = struct{}{}

		if row.Sentiment == nil || len(row.Locations) == 0 {
			continue
		}
		stats.Articles++

		for _, location := range row.Locations {
			if location == "" || location == geo.Unknown {
				continue
			}
			t, ok := tallies[location]
			if !ok {
				t = &tally{}
				tallies[location] = t
				order = append(order, location)
			}
			t.sum += *row.Sentiment
			t.count++
		}
	}

	points := make([]Point, 0, len(order))
	for _, location := range order {
		t := tallies[location]
		res := a.resolver.Resolve(ctx, location)
		switch {
		case res.Cached:
			stats.CacheHits++
		case res.Coordinates != nil:
			stats.CacheMisses++
		default:
			stats.CacheMisses++
			stats.Unresolved++
		}

		points = append(points, Point{
			Location:    location,
			Intensity:   t.sum / float64(t.count),
			Coordinates: res.Coordinates,
		})
	}
	stats.Locations = len(points)

	slog.Info("Heatmap built",
		"rows", len(rows),
		"articles", stats.Articles,
		"duplicates_skipped", stats.DuplicatesSkipped,
		"locations", stats.Locations,
		"cache_hits", stats.CacheHits,
		"cache_misses", stats.CacheMisses,
		"unresolved", stats.Unresolved,
		"duration", time.Since(start))

	return &Heatmap{Points: points, Stats: stats}, nil
}
