package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/skycast/skycast/internal/weather"
)

const authRemediation = "Verify the OpenWeather API key in your configuration and restart."

// forecastSampleCount is the sample-count hint sent to the forecast
// endpoint: 8 three-hour samples per day, up to 5 days.
const forecastSampleCount = 40

// OpenWeatherFetcher implements weather.Fetcher against the OpenWeather
// current-conditions and 3-hour forecast endpoints. The two calls are
// issued concurrently, so total latency is the slower of the two.
type OpenWeatherFetcher struct {
	apiKey  string
	baseURL string
	client  *http.Client

	currentCB  *gobreaker.CircuitBreaker
	forecastCB *gobreaker.CircuitBreaker
}

// NewOpenWeatherFetcher creates a fetcher with the credential injected at
// construction time. Key shape is validated at startup by config, not here.
func NewOpenWeatherFetcher(client *http.Client, apiKey string) *OpenWeatherFetcher {
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}
	}

	return &OpenWeatherFetcher{
		apiKey:     apiKey,
		baseURL:    "https://api.openweathermap.org",
		client:     client,
		currentCB:  gobreaker.NewCircuitBreaker(settings("openweather-current")),
		forecastCB: gobreaker.NewCircuitBreaker(settings("openweather-forecast")),
	}
}

// SetBaseURL overrides the upstream host, for tests.
func (f *OpenWeatherFetcher) SetBaseURL(u string) {
	f.baseURL = u
}

// Fetch retrieves current conditions and forecast samples for the given
// coordinates. A forecast failure is soft: it is logged and an empty
// sample slice is returned, since partial data beats no data. A
// current-conditions failure fails the whole call.
func (f *OpenWeatherFetcher) Fetch(ctx context.Context, lat, lon float64, units weather.UnitSystem) (weather.Observation, error) {
	var (
		wg sync.WaitGroup

		current   weather.CurrentConditions
		currentTZ *int
		curErr    error

		samples    []weather.ForecastSample
		forecastTZ *int
		fcErr      error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		current, currentTZ, curErr = f.fetchCurrent(ctx, lat, lon, units)
	}()
	go func() {
		defer wg.Done()
		samples, forecastTZ, fcErr = f.fetchForecast(ctx, lat, lon, units)
	}()
	wg.Wait()

	if curErr != nil {
		return weather.Observation{}, curErr
	}
	if fcErr != nil {
		log.Printf("forecast fetch failed, continuing with current conditions only: %v", fcErr)
		samples = nil
	}

	offset := 0
	if currentTZ != nil {
		offset = *currentTZ
	} else if forecastTZ != nil {
		offset = *forecastTZ
	}

	return weather.Observation{
		Current:          current,
		Samples:          samples,
		UTCOffsetSeconds: offset,
	}, nil
}

type conditionEntry struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

func (f *OpenWeatherFetcher) fetchCurrent(ctx context.Context, lat, lon float64, units weather.UnitSystem) (weather.CurrentConditions, *int, error) {
	const op = "current conditions"

	raw, httpStatus, err := f.get(ctx, f.currentCB, "/data/2.5/weather", lat, lon, units, 0)
	if err != nil {
		return weather.CurrentConditions{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	var payload struct {
		Cod      flexStatus `json:"cod"`
		Dt       int64      `json:"dt"`
		Timezone *int       `json:"timezone"`
		Main     struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Sys struct {
			Sunrise int64 `json:"sunrise"`
			Sunset  int64 `json:"sunset"`
		} `json:"sys"`
		Weather []conditionEntry `json:"weather"`
	}

	if err := json.Unmarshal(raw, &payload); err != nil {
		if statusErr := classifyStatus(op, httpStatus, ""); statusErr != nil {
			return weather.CurrentConditions{}, nil, statusErr
		}
		return weather.CurrentConditions{}, nil, fmt.Errorf("%s: decode response: %w", op, err)
	}

	if !payload.Cod.ok() {
		status := payload.Cod.status()
		if status == 0 {
			status = httpStatus
		}
		return weather.CurrentConditions{}, nil, failureError(op, status, decodeErrorMessage(raw))
	}

	cur := weather.CurrentConditions{
		ObservedAt:  payload.Dt,
		Sunrise:     payload.Sys.Sunrise,
		Sunset:      payload.Sys.Sunset,
		Temp:        payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		HumidityPct: payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
	}
	if len(payload.Weather) > 0 {
		cur.WeatherCode = payload.Weather[0].ID
		cur.WeatherMain = payload.Weather[0].Main
		cur.Description = payload.Weather[0].Description
	}

	return cur, payload.Timezone, nil
}

func (f *OpenWeatherFetcher) fetchForecast(ctx context.Context, lat, lon float64, units weather.UnitSystem) ([]weather.ForecastSample, *int, error) {
	const op = "forecast"

	raw, httpStatus, err := f.get(ctx, f.forecastCB, "/data/2.5/forecast", lat, lon, units, forecastSampleCount)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	var payload struct {
		Cod  flexStatus `json:"cod"`
		City struct {
			Timezone *int `json:"timezone"`
		} `json:"city"`
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp    float64 `json:"temp"`
				TempMin float64 `json:"temp_min"`
				TempMax float64 `json:"temp_max"`
			} `json:"main"`
			Weather []conditionEntry `json:"weather"`
		} `json:"list"`
	}

	if err := json.Unmarshal(raw, &payload); err != nil {
		if statusErr := classifyStatus(op, httpStatus, ""); statusErr != nil {
			return nil, nil, statusErr
		}
		return nil, nil, fmt.Errorf("%s: decode response: %w", op, err)
	}

	if !payload.Cod.ok() {
		status := payload.Cod.status()
		if status == 0 {
			status = httpStatus
		}
		return nil, nil, failureError(op, status, decodeErrorMessage(raw))
	}

	samples := make([]weather.ForecastSample, 0, len(payload.List))
	for _, item := range payload.List {
		s := weather.ForecastSample{
			Timestamp: item.Dt,
			Temp:      item.Main.Temp,
			TempMin:   item.Main.TempMin,
			TempMax:   item.Main.TempMax,
		}
		if len(item.Weather) > 0 {
			s.WeatherCode = item.Weather[0].ID
			s.WeatherMain = item.Weather[0].Main
			s.Description = item.Weather[0].Description
		}
		samples = append(samples, s)
	}

	return samples, payload.City.Timezone, nil
}

// get issues one upstream call through the circuit breaker and returns
// the raw body plus the HTTP status.
func (f *OpenWeatherFetcher) get(ctx context.Context, cb *gobreaker.CircuitBreaker, path string, lat, lon float64, units weather.UnitSystem, cnt int) ([]byte, int, error) {
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("appid", f.apiKey)
	values.Set("units", string(units))
	if cnt > 0 {
		values.Set("cnt", fmt.Sprintf("%d", cnt))
	}

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s%s?%s", f.baseURL, path, values.Encode()), nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := doRequest(ctx, f.client, cb, req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return raw, resp.StatusCode, nil
}

// classifyStatus maps an HTTP status to the structured error taxonomy.
// A 2xx status returns nil.
func classifyStatus(op string, status int, message string) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return failureError(op, status, message)
}

// failureError builds a taxonomy error for a known-failed call. Unlike
// classifyStatus it never returns nil, even for an unparseable status.
func failureError(op string, status int, message string) error {
	if status == http.StatusUnauthorized {
		return &weather.AuthError{Op: op, Remediation: authRemediation}
	}
	return &weather.UpstreamError{Op: op, Status: status, Message: message}
}
