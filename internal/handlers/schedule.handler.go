package handlers

import (
	"stayops/internal/app"
	scheduleController "stayops/internal/controllers/schedule"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
)

type ScheduleHandler struct {
	Handler
	scheduleController scheduleController.ScheduleControllerInterface
}

func NewScheduleHandler(app app.App, router fiber.Router) *ScheduleHandler {
	log := logger.New("handlers").File("schedule_handler")
	return &ScheduleHandler{
		scheduleController: app.Controllers.Schedule,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ScheduleHandler) Register() {
	schedule := h.router.Group("/schedule", h.middleware.RequireAdmin())
	schedule.Get("/autolist", h.autolist)
	schedule.Post("/autolist", h.buildAutolist)
	schedule.Post("/assign", h.assign)
}

func (h *ScheduleHandler) autolist(c *fiber.Ctx) error {
	candidates, err := h.scheduleController.Autolist(c.UserContext(), c.Query("date"))
	if err != nil {
		return respondError(c, err, "Failed to build checkout list")
	}

	return c.JSON(fiber.Map{
		"candidates": candidates,
	})
}

func (h *ScheduleHandler) buildAutolist(c *fiber.Ctx) error {
	created, err := h.scheduleController.BuildAutolist(c.UserContext(), c.Query("date"))
	if err != nil {
		return respondError(c, err, "Failed to build cleaning schedule")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"tasks": created,
	})
}

func (h *ScheduleHandler) assign(c *fiber.Ctx) error {
	var req scheduleController.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.scheduleController.Assign(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "Failed to assign cleaning task")
	}

	return c.JSON(fiber.Map{
		"task": task,
	})
}
