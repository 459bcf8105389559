package geo

import (
	"context"
	"encoding/json"

	"github.com/lysyi3m/world-on-fire/app/database"
	"github.com/lysyi3m/world-on-fire/app/fetch"
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// MarshalJSON encodes coordinates as a [lat, lon] pair.
func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Latitude, c.Longitude})
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	c.Latitude, c.Longitude = pair[0], pair[1]
	return nil
}

// Resolution is the outcome of resolving one place name. Coordinates is nil
// when the place could not be located.
type Resolution struct {
	Coordinates *Coordinates
	Cached      bool
}

// Getter performs a bounded GET. Implemented by fetch.Client.
type Getter interface {
	Get(ctx context.Context, url string, r fetch.Request) ([]byte, error)
}

// Geocoder looks a place name up remotely. nil, nil means not found.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Coordinates, error)
}

// LocationCache is the persistent coordinate cache.
type LocationCache interface {
	Get(ctx context.Context, name string) (*database.Location, error)
	Upsert(ctx context.Context, name string, latitude, longitude float64) error
}

var _ Getter = (*fetch.Client)(nil)
var _ Geocoder = (*Nominatim)(nil)
var _ LocationCache = (*database.SQLLocationRepository)(nil)
