// Package geocode resolves place names to coordinates and back using the
// OpenWeather geocoding endpoints.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/skycast/skycast/internal/weather"
)

const authRemediation = "Verify the OpenWeather API key in your configuration and restart."

// candidate is one geocoding result entry.
type candidate struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

// Client implements weather.Geocoder. The credential is injected at
// construction; there is no package-global key.
type Client struct {
	apiKey string
	rest   *resty.Client
}

// New creates a geocoding client with a bounded per-request timeout.
func New(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey: apiKey,
		rest: resty.New().
			SetBaseURL("https://api.openweathermap.org").
			SetTimeout(timeout),
	}
}

// SetBaseURL overrides the upstream host, for tests.
func (c *Client) SetBaseURL(u string) {
	c.rest.SetBaseURL(u)
}

// ByName resolves a free-text query to a place. Transport success with
// zero candidates returns weather.ErrNotFound; absence is expected and is
// not a failure.
func (c *Client) ByName(ctx context.Context, query string) (weather.Place, error) {
	return c.lookup(ctx, "/geo/1.0/direct", map[string]string{
		"q":     query,
		"limit": "1",
	})
}

// Reverse resolves coordinates to a display place. Best effort: reverse
// lookup only affects the display label, so every failure degrades to
// weather.ErrNotFound instead of propagating.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (weather.Place, error) {
	place, err := c.lookup(ctx, "/geo/1.0/reverse", map[string]string{
		"lat":   fmt.Sprintf("%f", lat),
		"lon":   fmt.Sprintf("%f", lon),
		"limit": "1",
	})
	if err != nil {
		if !errors.Is(err, weather.ErrNotFound) {
			log.Printf("reverse geocode degraded to not-found: %v", err)
		}
		return weather.Place{}, weather.ErrNotFound
	}
	return place, nil
}

func (c *Client) lookup(ctx context.Context, path string, params map[string]string) (weather.Place, error) {
	const op = "geocoding"

	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("appid", c.apiKey).
		Get(path)
	if err != nil {
		return weather.Place{}, fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode() != http.StatusOK {
		if resp.StatusCode() == http.StatusUnauthorized {
			return weather.Place{}, &weather.AuthError{Op: op, Remediation: authRemediation}
		}
		return weather.Place{}, &weather.UpstreamError{
			Op:      op,
			Status:  resp.StatusCode(),
			Message: providerMessage(resp.Body()),
		}
	}

	var candidates []candidate
	if err := json.Unmarshal(resp.Body(), &candidates); err != nil {
		return weather.Place{}, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if len(candidates) == 0 {
		return weather.Place{}, weather.ErrNotFound
	}

	first := candidates[0]
	return weather.Place{
		Name:    first.Name,
		Lat:     first.Lat,
		Lon:     first.Lon,
		Country: first.Country,
		Region:  first.State,
	}, nil
}

func providerMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Message
}
