// Package geo supplies the caller's own coordinates, the server-side
// analog of a device geolocation capability.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/skycast/skycast/internal/weather"
)

// Options bounds a position request.
type Options struct {
	// Timeout is the longest a single position request may take.
	Timeout time.Duration

	// MaxCachedPositionAge is how long a previously acquired position may
	// be reused before a fresh request is made.
	MaxCachedPositionAge time.Duration
}

// cachedPosition is the last successfully acquired position.
type cachedPosition struct {
	coords     weather.Coordinates
	acquiredAt time.Time
}

// IPLocator implements weather.Locator against the ip-api.com lookup
// service. Successful positions are cached and reused while younger than
// MaxCachedPositionAge.
type IPLocator struct {
	opts Options
	rest *resty.Client

	mu     sync.RWMutex
	cached *cachedPosition
}

// NewIPLocator creates a locator. A zero Timeout defaults to 5s.
func NewIPLocator(opts Options) *IPLocator {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &IPLocator{
		opts: opts,
		rest: resty.New().
			SetBaseURL("http://ip-api.com").
			SetTimeout(opts.Timeout),
	}
}

// SetBaseURL overrides the upstream host, for tests.
func (l *IPLocator) SetBaseURL(u string) {
	l.rest.SetBaseURL(u)
}

// Locate returns the caller's coordinates, from cache when fresh enough.
// A timeout is indistinguishable from any other acquisition failure.
func (l *IPLocator) Locate(ctx context.Context) (weather.Coordinates, error) {
	if coords, ok := l.fresh(); ok {
		return coords, nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	resp, err := l.rest.R().
		SetContext(ctx).
		SetQueryParam("fields", "status,message,lat,lon").
		Get("/json")
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("locate: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return weather.Coordinates{}, fmt.Errorf("locate: unexpected status %d", resp.StatusCode())
	}

	var payload struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return weather.Coordinates{}, fmt.Errorf("locate: decode response: %w", err)
	}
	if payload.Status != "success" {
		return weather.Coordinates{}, fmt.Errorf("locate: provider reported %q: %s", payload.Status, payload.Message)
	}

	coords := weather.Coordinates{Lat: payload.Lat, Lon: payload.Lon}
	l.store(coords)
	return coords, nil
}

func (l *IPLocator) fresh() (weather.Coordinates, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.cached == nil || l.opts.MaxCachedPositionAge <= 0 {
		return weather.Coordinates{}, false
	}
	if time.Since(l.cached.acquiredAt) > l.opts.MaxCachedPositionAge {
		return weather.Coordinates{}, false
	}
	return l.cached.coords, true
}

func (l *IPLocator) store(coords weather.Coordinates) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = &cachedPosition{coords: coords, acquiredAt: time.Now()}
}

// StaticLocator always reports a fixed position. Useful for deployments
// pinned to one site and for tests.
type StaticLocator struct {
	Coords weather.Coordinates
}

func (s StaticLocator) Locate(context.Context) (weather.Coordinates, error) {
	return s.Coords, nil
}
