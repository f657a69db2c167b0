package handlers

import (
	"stayops/internal/app"
	occupancyController "stayops/internal/controllers/occupancy"
	"stayops/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OccupancyHandler struct {
	Handler
	occupancyController occupancyController.OccupancyControllerInterface
}

func NewOccupancyHandler(app app.App, router fiber.Router) *OccupancyHandler {
	log := logger.New("handlers").File("occupancy_handler")
	return &OccupancyHandler{
		occupancyController: app.Controllers.Occupancy,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *OccupancyHandler) Register() {
	events := h.router.Group("/occupancy/events")
	events.Post("", h.appendEvent)
	events.Delete("/:id", h.middleware.RequireAdmin(), h.deleteEvent)

	h.router.Get("/occupancy/guests/:guestId/projection", h.projection)
}

func (h *OccupancyHandler) appendEvent(c *fiber.Ctx) error {
	var req occupancyController.AppendEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	event, err := h.occupancyController.Append(c.UserContext(), middleware.GetScope(c), &req)
	if err != nil {
		return respondError(c, err, "Failed to record occupancy event")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"event": event,
	})
}

func (h *OccupancyHandler) projection(c *fiber.Ctx) error {
	guestID, err := uuid.Parse(c.Params("guestId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid guest ID",
		})
	}

	projection, err := h.occupancyController.Project(c.UserContext(), middleware.GetScope(c), guestID)
	if err != nil {
		return respondError(c, err, "Failed to project occupancy")
	}

	return c.JSON(fiber.Map{
		"projection": projection,
	})
}

func (h *OccupancyHandler) deleteEvent(c *fiber.Ctx) error {
	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid event ID",
		})
	}

	if err := h.occupancyController.DeleteEvent(c.UserContext(), eventID); err != nil {
		return respondError(c, err, "Failed to delete occupancy event")
	}

	return c.Status(fiber.StatusNoContent).Send(nil)
}
