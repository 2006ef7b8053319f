package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/skycast/skycast/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the resolver's read-only view and its intents into
// the Fiber app. This is the entire surface a presentation layer may use;
// rendering stays on the consumer's side.
func RegisterRoutes(app *fiber.App, resolver *weather.Resolver) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		return c.JSON(resolver.View())
	})

	v1.Post("/weather/search", func(c *fiber.Ctx) error {
		query := c.Query("city")

		if err := resolver.SearchCity(c.Context(), query); err != nil {
			if errors.Is(err, weather.ErrInvalidInput) {
				return fiber.NewError(fiber.StatusBadRequest, "city query parameter must not be empty")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "search failed")
		}

		return c.JSON(resolver.View())
	})

	v1.Post("/weather/refresh", func(c *fiber.Ctx) error {
		if err := resolver.RefreshGeo(c.Context()); err != nil {
			if errors.Is(err, weather.ErrUnavailable) {
				return fiber.NewError(fiber.StatusServiceUnavailable, "geolocation is not available")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "refresh failed")
		}

		return c.JSON(resolver.View())
	})

	v1.Put("/weather/units", func(c *fiber.Ctx) error {
		var req unitsQuery
		req.Units = c.Query("units")

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "units must be metric or imperial")
		}

		if err := resolver.SetUnits(c.Context(), weather.UnitSystem(req.Units)); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "unit change failed")
		}

		return c.JSON(resolver.View())
	})
}

// unitsQuery holds the unit-toggle query parameter.
type unitsQuery struct {
	Units string `validate:"required,oneof=metric imperial"`
}
