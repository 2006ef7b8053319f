package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/skycast/skycast/internal/weather"
)

// AppConfig is the full startup configuration. The OpenWeather key is
// validated here, once: a missing or malformed credential is a startup
// error, never a per-call check.
type AppConfig struct {
	OpenWeatherAPIKey string `validate:"required,min=8"`

	// DefaultCity is the terminal fallback when geolocation is unusable.
	DefaultCity string `validate:"required"`

	// Units is the initial unit system.
	Units weather.UnitSystem `validate:"oneof=metric imperial"`

	// GeoProvider selects the geolocation capability: "ip" or "off".
	GeoProvider       string `validate:"oneof=ip off"`
	GeoTimeout        time.Duration
	GeoMaxPositionAge time.Duration

	// HTTPTimeout applies to outbound provider calls.
	HTTPTimeout time.Duration

	// RefreshInterval drives the optional periodic snapshot refresh;
	// zero disables it.
	RefreshInterval time.Duration

	Port string
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		DefaultCity:       getenvDefault("DEFAULT_CITY", "London"),
		Units:             weather.UnitSystem(getenvDefault("UNITS", "metric")),
		GeoProvider:       getenvDefault("GEO_PROVIDER", "ip"),
		Port:              getenvDefault("PORT", "8080"),
	}

	var err error
	if cfg.GeoTimeout, err = getenvDuration("GEO_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.GeoMaxPositionAge, err = getenvDuration("GEO_MAX_POSITION_AGE", "5m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "0s"); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
