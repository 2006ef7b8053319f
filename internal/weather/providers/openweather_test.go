package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skycast/skycast/internal/weather"
)

const currentBody = `{
	"cod": 200,
	"dt": 1710072000,
	"timezone": 3600,
	"main": {"temp": 18, "feels_like": 17, "humidity": 60},
	"wind": {"speed": 4.2},
	"sys": {"sunrise": 1710050000, "sunset": 1710090000},
	"weather": [{"id": 800, "main": "Clear", "description": "clear sky"}]
}`

const forecastBody = `{
	"cod": "200",
	"city": {"timezone": 7200},
	"list": [
		{"dt": 1710072000, "main": {"temp": 15, "temp_min": 12, "temp_max": 18},
		 "weather": [{"id": 500, "main": "Rain", "description": "light rain"}]},
		{"dt": 1710082800, "main": {"temp": 16, "temp_min": 13, "temp_max": 19},
		 "weather": [{"id": 801, "main": "Clouds", "description": "few clouds"}]}
	]
}`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *OpenWeatherFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := NewOpenWeatherFetcher(&http.Client{Timeout: 2 * time.Second}, "test-key-12345")
	f.SetBaseURL(srv.URL)
	return f
}

func TestFetchMergesBothLegs(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/2.5/weather":
			w.Write([]byte(currentBody))
		case "/data/2.5/forecast":
			if r.URL.Query().Get("cnt") != "40" {
				t.Errorf("expected cnt=40, got %s", r.URL.Query().Get("cnt"))
			}
			w.Write([]byte(forecastBody))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	obs, err := f.Fetch(context.Background(), 48.85, 2.35, weather.UnitsMetric)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if obs.Current.Temp != 18 || obs.Current.FeelsLike != 17 || obs.Current.HumidityPct != 60 {
		t.Fatalf("unexpected current conditions: %+v", obs.Current)
	}
	if obs.Current.WeatherCode != 800 || obs.Current.WeatherMain != "Clear" {
		t.Fatalf("unexpected current condition entry: %+v", obs.Current)
	}
	if obs.Current.Sunrise != 1710050000 || obs.Current.Sunset != 1710090000 {
		t.Fatalf("unexpected sunrise/sunset: %+v", obs.Current)
	}
	if len(obs.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(obs.Samples))
	}
	if obs.Samples[0].TempMin != 12 || obs.Samples[0].TempMax != 18 || obs.Samples[0].WeatherCode != 500 {
		t.Fatalf("unexpected first sample: %+v", obs.Samples[0])
	}
	// Current payload's offset wins over the forecast payload's.
	if obs.UTCOffsetSeconds != 3600 {
		t.Fatalf("expected offset 3600, got %d", obs.UTCOffsetSeconds)
	}
}

// The forecast leg failing is soft: current conditions still succeed and
// the sample slice is empty.
func TestFetchForecastFailureIsSoft(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/2.5/weather":
			w.Write([]byte(currentBody))
		case "/data/2.5/forecast":
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	obs, err := f.Fetch(context.Background(), 48.85, 2.35, weather.UnitsMetric)
	if err != nil {
		t.Fatalf("forecast failure must be soft, got %v", err)
	}
	if len(obs.Samples) != 0 {
		t.Fatalf("expected no samples, got %d", len(obs.Samples))
	}
	if obs.Current.Temp != 18 {
		t.Fatalf("current conditions must survive, got %+v", obs.Current)
	}
	if obs.UTCOffsetSeconds != 3600 {
		t.Fatalf("expected current payload offset, got %d", obs.UTCOffsetSeconds)
	}
}

func TestFetchCurrentFailureIsFatal(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/2.5/weather":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"cod": "404", "message": "city not found"}`))
		case "/data/2.5/forecast":
			w.Write([]byte(forecastBody))
		}
	})

	_, err := f.Fetch(context.Background(), 0, 0, weather.UnitsMetric)

	var upErr *weather.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.Status != 404 || upErr.Message != "city not found" {
		t.Fatalf("expected provider message carried verbatim, got %+v", upErr)
	}
}

func TestFetchAuthFailure(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod": 401, "message": "Invalid API key"}`))
	})

	_, err := f.Fetch(context.Background(), 0, 0, weather.UnitsMetric)

	var authErr *weather.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Remediation == "" {
		t.Fatal("auth error must carry remediation guidance")
	}
}

// The timezone offset falls back to the forecast payload when the current
// payload has none, and to zero when both are absent.
func TestFetchTimezoneFallback(t *testing.T) {
	withoutTZ := `{"cod": 200, "dt": 1710072000, "main": {"temp": 10}, "weather": []}`

	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/2.5/weather":
			w.Write([]byte(withoutTZ))
		case "/data/2.5/forecast":
			w.Write([]byte(forecastBody))
		}
	})

	obs, err := f.Fetch(context.Background(), 0, 0, weather.UnitsMetric)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.UTCOffsetSeconds != 7200 {
		t.Fatalf("expected forecast offset 7200, got %d", obs.UTCOffsetSeconds)
	}

	f2 := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/2.5/weather":
			w.Write([]byte(withoutTZ))
		case "/data/2.5/forecast":
			w.Write([]byte(`{"cod": "200", "city": {}, "list": []}`))
		}
	})

	obs, err = f2.Fetch(context.Background(), 0, 0, weather.UnitsMetric)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.UTCOffsetSeconds != 0 {
		t.Fatalf("expected UTC default, got %d", obs.UTCOffsetSeconds)
	}
}

func TestFlexStatus(t *testing.T) {
	tests := []struct {
		name string
		json string
		ok   bool
	}{
		{"numeric 200", `{"cod": 200}`, true},
		{"string 200", `{"cod": "200"}`, true},
		{"absent", `{}`, true},
		{"numeric 404", `{"cod": 404}`, false},
		{"string 401", `{"cod": "401"}`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var body struct {
				Cod flexStatus `json:"cod"`
			}
			if err := json.Unmarshal([]byte(tc.json), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body.Cod.ok() != tc.ok {
				t.Fatalf("%s: ok() = %v, want %v", tc.json, body.Cod.ok(), tc.ok)
			}
		})
	}
}
