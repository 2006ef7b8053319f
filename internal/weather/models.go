package weather

// UnitSystem selects the measurement system for upstream requests.
// Wind speed semantics differ between the two on the provider side, so a
// unit change always re-fetches instead of converting cached values.
type UnitSystem string

const (
	UnitsMetric   UnitSystem = "metric"
	UnitsImperial UnitSystem = "imperial"
)

// Valid reports whether u is one of the supported unit systems.
func (u UnitSystem) Valid() bool {
	return u == UnitsMetric || u == UnitsImperial
}

// Background is the normalized high-level condition category a consumer
// uses to pick a visual treatment.
type Background string

const (
	BackgroundSunny  Background = "sunny"
	BackgroundRain   Background = "rain"
	BackgroundSnow   Background = "snow"
	BackgroundStorm  Background = "storm"
	BackgroundCloudy Background = "cloudy"
)

// SearchMode records how the current snapshot was obtained.
type SearchMode string

const (
	ModeCity SearchMode = "city"
	ModeGeo  SearchMode = "geo"
)

// State is the orchestrator's resolution state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Place is a canonical geocoded place record. Immutable once created;
// identity is the coordinate pair, so two records naming the same
// coordinates are interchangeable for fetch purposes.
type Place struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country,omitempty"`
	Region  string  `json:"region,omitempty"`
}

// CurrentConditions holds one current-weather observation. It is replaced
// wholesale on each successful refresh, never partially mutated.
type CurrentConditions struct {
	ObservedAt  int64   `json:"observedAt"` // unix seconds
	Sunrise     int64   `json:"sunrise"`
	Sunset      int64   `json:"sunset"`
	Temp        float64 `json:"temp"`
	FeelsLike   float64 `json:"feelsLike"`
	HumidityPct float64 `json:"humidityPercent"`
	WindSpeed   float64 `json:"windSpeed"`
	WeatherCode int     `json:"weatherCode"`
	WeatherMain string  `json:"weatherMain"`
	Description string  `json:"description"`
}

// ForecastSample is one raw provider reading at a fixed future timestamp.
// Samples are consumed entirely by the daily aggregator and not retained.
type ForecastSample struct {
	Timestamp   int64   `json:"timestamp"` // unix seconds
	Temp        float64 `json:"temp"`
	TempMin     float64 `json:"tempMin"`
	TempMax     float64 `json:"tempMax"`
	WeatherCode int     `json:"weatherCode"`
	WeatherMain string  `json:"weatherMain"`
	Description string  `json:"description"`
}

// DailySummary is one calendar day's aggregated forecast. DateKey is the
// UTC calendar date of the day's samples, formatted 2006-01-02.
type DailySummary struct {
	DateKey          string  `json:"date"`
	RepresentativeTS int64   `json:"representativeTs"`
	TempMin          float64 `json:"tempMin"`
	TempMax          float64 `json:"tempMax"`
	MiddayTemp       float64 `json:"middayTemp"`
	WeatherCode      int     `json:"weatherCode"`
	WeatherMain      string  `json:"weatherMain"`
	Description      string  `json:"description"`
}

// Snapshot is the unified weather result for one resolved place. The
// orchestrator owns it and replaces it atomically on every successful
// fetch cycle; Daily is never empty after a successful resolution.
type Snapshot struct {
	PlaceLabel       string            `json:"place"`
	CountryCode      string            `json:"countryCode,omitempty"`
	Current          CurrentConditions `json:"current"`
	Daily            []DailySummary    `json:"daily"`
	UTCOffsetSeconds int               `json:"utcOffsetSeconds"`
	Lat              float64           `json:"lat"`
	Lon              float64           `json:"lon"`
}

// Observation is the fetcher's merged output: one current-conditions
// record plus the raw forecast samples and the provider timezone offset.
type Observation struct {
	Current          CurrentConditions
	Samples          []ForecastSample
	UTCOffsetSeconds int
}
