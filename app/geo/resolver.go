package geo

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Unknown is the placeholder place name some sources emit; it is never geocoded.
const Unknown = "Unknown"

// Resolver resolves place names cache-first, falling back to the geocoder and
// storing successful lookups. Failed lookups are not cached.
type Resolver struct {
	cache    LocationCache
	geocoder Geocoder
	timeout  time.Duration
	group    singleflight.Group
}

func NewResolver(cache LocationCache, geocoder Geocoder, timeout time.Duration) *Resolver {
	return &Resolver{
		cache:    cache,
		geocoder: geocoder,
		timeout:  timeout,
	}
}

// Resolve never returns an error; any failure yields a Resolution without
// coordinates. Concurrent calls for the same name share one lookup, which is
// detached from the caller that started it: a cancelled caller returns early
// while the others still get the result.
func (r *Resolver) Resolve(ctx context.Context, location string) Resolution {
	if location == "" || location == Unknown {
		return Resolution{}
	}

	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(location, func() (any, error) {
		return r.resolve(shared, location), nil
	})

	select {
	case res := <-ch:
		return res.Val.(Resolution)
	case <-ctx.Done():
		slog.Debug("Location lookup abandoned", "location", location, "error", ctx.Err())
		return Resolution{}
	}
}

func (r *Resolver) resolve(ctx context.Context, location string) Resolution {
	cached, err := r.cache.Get(ctx, location)
	if err != nil {
		slog.Warn("Location cache read failed", "location", location, "error", err)
	} else if cached != nil {
		return Resolution{
			Coordinates: &Coordinates{Latitude: cached.Latitude, Longitude: cached.Longitude},
			Cached:      true,
		}
	}

	geoCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		geoCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	coords, err := r.geocoder.Geocode(geoCtx, location)
	if err != nil {
		slog.Warn("Geocoding failed", "location", location, "error", err)
		return Resolution{}
	}
	if coords == nil {
		slog.Debug("Location not found by geocoder", "location", location)
		return Resolution{}
	}

	if err := r.cache.Upsert(ctx, location, coords.Latitude, coords.Longitude); err != nil {
		slog.Warn("Failed to cache location", "location", location, "error", err)
	}

	return Resolution{Coordinates: coords}
}
