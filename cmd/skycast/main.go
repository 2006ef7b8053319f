package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/skycast/skycast/internal/api/http"
	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/geo"
	"github.com/skycast/skycast/internal/geocode"
	"github.com/skycast/skycast/internal/scheduler"
	"github.com/skycast/skycast/internal/weather"
	"github.com/skycast/skycast/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	fetcher := providers.NewOpenWeatherFetcher(httpClient, cfg.OpenWeatherAPIKey)
	geocoder := geocode.New(cfg.OpenWeatherAPIKey, cfg.HTTPTimeout)

	var locator weather.Locator
	if cfg.GeoProvider == "ip" {
		locator = geo.NewIPLocator(geo.Options{
			Timeout:              cfg.GeoTimeout,
			MaxCachedPositionAge: cfg.GeoMaxPositionAge,
		})
	}

	resolver := weather.NewResolver(fetcher, geocoder, locator, cfg.DefaultCity, cfg.Units)

	// Initial resolution: geolocation with default-city fallback.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resolver.Start(ctx)
	}()

	sched := scheduler.New(resolver, cfg.RefreshInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "skycast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "skycast",
		})
	})

	httpapi.RegisterRoutes(app, resolver)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
