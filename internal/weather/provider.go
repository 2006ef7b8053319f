package weather

import (
	"context"
)

// Coordinates is a WGS84 coordinate pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Fetcher retrieves current conditions and forecast samples for a
// coordinate pair. Implementations issue both upstream calls concurrently;
// a forecast failure is soft and yields an Observation with no samples,
// while a current-conditions failure fails the whole call.
type Fetcher interface {
	Fetch(ctx context.Context, lat, lon float64, units UnitSystem) (Observation, error)
}

// Geocoder resolves place names to coordinates and back.
type Geocoder interface {
	// ByName resolves a free-text query to a place. Zero results return
	// ErrNotFound rather than a failure.
	ByName(ctx context.Context, query string) (Place, error)

	// Reverse resolves coordinates to a display place. Best effort: any
	// transport or parse failure degrades to ErrNotFound.
	Reverse(ctx context.Context, lat, lon float64) (Place, error)
}

// Locator is the geolocation capability: it supplies the caller's
// coordinates or fails within its configured bounded wait. A nil Locator
// on the resolver means the capability is absent.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}
