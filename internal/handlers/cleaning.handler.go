package handlers

import (
	"stayops/internal/app"
	cleaningController "stayops/internal/controllers/cleaning"
	"stayops/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CleaningHandler struct {
	Handler
	cleaningController cleaningController.CleaningControllerInterface
}

func NewCleaningHandler(app app.App, router fiber.Router) *CleaningHandler {
	log := logger.New("handlers").File("cleaning_handler")
	return &CleaningHandler{
		cleaningController: app.Controllers.Cleaning,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *CleaningHandler) Register() {
	tasks := h.router.Group("/tasks")
	tasks.Post("", h.middleware.RequireAdmin(), h.upsertTask)
	tasks.Patch("/:id/status", h.updateStatus)
	tasks.Post("/:id/photos", h.attachPhoto)
	tasks.Post("/backfill", h.middleware.RequireAdmin(), h.backfillCheckout)

	h.router.Get("/workers/:workerId/tasks", h.listWorkerDay)
}

func (h *CleaningHandler) upsertTask(c *fiber.Ctx) error {
	var req cleaningController.UpsertTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.cleaningController.Upsert(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "Failed to upsert cleaning task")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"task": task,
	})
}

func (h *CleaningHandler) updateStatus(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	var req cleaningController.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	task, err := h.cleaningController.UpdateStatus(
		c.UserContext(),
		middleware.GetScope(c),
		taskID,
		&req,
	)
	if err != nil {
		return respondError(c, err, "Failed to update task status")
	}

	return c.JSON(fiber.Map{
		"task": task,
	})
}

func (h *CleaningHandler) attachPhoto(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task ID",
		})
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	photo, err := h.cleaningController.AttachPhoto(
		c.UserContext(),
		middleware.GetScope(c),
		taskID,
		req.URL,
	)
	if err != nil {
		return respondError(c, err, "Failed to attach photo")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"photo": photo,
	})
}

func (h *CleaningHandler) listWorkerDay(c *fiber.Ctx) error {
	workerID, err := uuid.Parse(c.Params("workerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid worker ID",
		})
	}

	tasks, err := h.cleaningController.ListWorkerDay(
		c.UserContext(),
		middleware.GetScope(c),
		workerID,
		c.Query("date"),
	)
	if err != nil {
		return respondError(c, err, "Failed to list tasks")
	}

	return c.JSON(fiber.Map{
		"tasks": tasks,
	})
}

func (h *CleaningHandler) backfillCheckout(c *fiber.Ctx) error {
	var req struct {
		RoomID  uuid.UUID `json:"roomId"`
		DateKey string    `json:"dateKey"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, err := h.cleaningController.BackfillCheckoutTime(c.UserContext(), req.RoomID, req.DateKey)
	if err != nil {
		return respondError(c, err, "Failed to backfill checkout time")
	}

	return c.JSON(fiber.Map{
		"updated": updated,
	})
}
