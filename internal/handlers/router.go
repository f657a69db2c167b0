package handlers

import (
	"errors"

	"stayops/internal/app"
	"stayops/internal/apperrors"
	"stayops/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	api := router.Group("/api")
	HealthHandler(api, app.Config)

	// Everything past the health check requires a credential: the admin key
	// or a live scoped token.
	api.Use(app.Middleware.RequireToken(app.Services.Token))
	NewOccupancyHandler(*app, api).Register()
	NewCleaningHandler(*app, api).Register()
	NewScheduleHandler(*app, api).Register()
	NewAdminHandler(*app, api).Register()

	return nil
}

// respondError maps domain errors onto HTTP statuses. Authorization
// failures stay uniform; everything unexpected is a 500 with a generic
// message so internals never leak.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAuthorization):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not allowed"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
	}
}
