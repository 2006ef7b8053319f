package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skycast/skycast/internal/weather"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New("test-key-12345", 2*time.Second)
	c.SetBaseURL(srv.URL)
	return c
}

func TestByNameReturnsFirstCandidate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geo/1.0/direct" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "Paris" {
			t.Errorf("unexpected query %s", r.URL.Query().Get("q"))
		}
		w.Write([]byte(`[
			{"name": "Paris", "lat": 48.85, "lon": 2.35, "country": "FR", "state": "Ile-de-France"},
			{"name": "Paris", "lat": 33.66, "lon": -95.55, "country": "US", "state": "Texas"}
		]`))
	})

	place, err := c.ByName(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.Name != "Paris" || place.Lat != 48.85 || place.Lon != 2.35 || place.Country != "FR" {
		t.Fatalf("unexpected place: %+v", place)
	}
	if place.Region != "Ile-de-France" {
		t.Fatalf("expected admin region, got %q", place.Region)
	}
}

// Transport success with zero candidates is absence, not failure.
func TestByNameZeroResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := c.ByName(context.Background(), "Xyzzy")
	if !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestByNameAuthFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod": 401, "message": "Invalid API key"}`))
	})

	_, err := c.ByName(context.Background(), "Paris")

	var authErr *weather.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestByNameUpstreamFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"cod": 429, "message": "Too many requests"}`))
	})

	_, err := c.ByName(context.Background(), "Paris")

	var upErr *weather.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.Status != http.StatusTooManyRequests || upErr.Message != "Too many requests" {
		t.Fatalf("expected provider message carried verbatim, got %+v", upErr)
	}
}

func TestReverseSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geo/1.0/reverse" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"name": "Berlin", "lat": 52.52, "lon": 13.40, "country": "DE"}]`))
	})

	place, err := c.Reverse(context.Background(), 52.52, 13.40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.Name != "Berlin" || place.Country != "DE" {
		t.Fatalf("unexpected place: %+v", place)
	}
}

// Reverse lookup is cosmetic: every failure degrades to ErrNotFound.
func TestReverseDegradesToNotFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"auth failure", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"cod": 401, "message": "Invalid API key"}`))
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}},
		{"zero results", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.handler)
			_, err := c.Reverse(context.Background(), 0, 0)
			if !errors.Is(err, weather.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}
