package handlers

import (
	"stayops/internal/app"
	reservationController "stayops/internal/controllers/reservation"
	settlementController "stayops/internal/controllers/settlement"
	"stayops/internal/models"
	"stayops/internal/services"
	"stayops/internal/timewindow"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AdminHandler exposes the back-office surfaces: settlement reporting,
// rate management, booking entry, token administration, and maintenance.
type AdminHandler struct {
	Handler
	settlementController  settlementController.SettlementControllerInterface
	reservationController reservationController.ReservationControllerInterface
	tokenService          *services.TokenService
	photoRetention        *services.PhotoRetentionService
}

func NewAdminHandler(app app.App, router fiber.Router) *AdminHandler {
	log := logger.New("handlers").File("admin_handler")
	return &AdminHandler{
		settlementController:  app.Controllers.Settlement,
		reservationController: app.Controllers.Reservation,
		tokenService:          app.Services.Token,
		photoRetention:        app.Services.PhotoRetention,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AdminHandler) Register() {
	requireAdmin := h.middleware.RequireAdmin()

	h.router.Get("/settlements", requireAdmin, h.settlements)

	rates := h.router.Group("/rates", requireAdmin)
	rates.Get("", h.listRates)
	rates.Put("", h.upsertRate)
	rates.Delete("/:workerId/:roomType", h.deleteRate)

	reservations := h.router.Group("/reservations", requireAdmin)
	reservations.Post("", h.createReservation)
	reservations.Get("/:id", h.getReservation)

	tokens := h.router.Group("/tokens", requireAdmin)
	tokens.Post("", h.issueToken)
	tokens.Delete("", h.revokeToken)

	h.router.Post("/maintenance/photo-purge", requireAdmin, h.purgePhotos)
}

func (h *AdminHandler) settlements(c *fiber.Ctx) error {
	period, ok := timewindow.ParsePeriod(c.Query("period", string(timewindow.PeriodMonth)))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid period",
		})
	}

	totals, err := h.settlementController.Totals(c.UserContext(), period, c.Query("date"))
	if err != nil {
		return respondError(c, err, "Failed to compute settlements")
	}

	return c.JSON(fiber.Map{
		"settlements": totals,
	})
}

func (h *AdminHandler) listRates(c *fiber.Ctx) error {
	rates, err := h.settlementController.ListRates(c.UserContext())
	if err != nil {
		return respondError(c, err, "Failed to list rates")
	}

	return c.JSON(fiber.Map{
		"rates": rates,
	})
}

func (h *AdminHandler) upsertRate(c *fiber.Ctx) error {
	var req settlementController.UpsertRateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	rate, err := h.settlementController.UpsertRate(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "Failed to save rate")
	}

	return c.JSON(fiber.Map{
		"rate": rate,
	})
}

func (h *AdminHandler) deleteRate(c *fiber.Ctx) error {
	workerID, err := uuid.Parse(c.Params("workerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid worker ID",
		})
	}

	if err := h.settlementController.DeleteRate(c.UserContext(), workerID, c.Params("roomType")); err != nil {
		return respondError(c, err, "Failed to delete rate")
	}

	return c.Status(fiber.StatusNoContent).Send(nil)
}

func (h *AdminHandler) createReservation(c *fiber.Ctx) error {
	var req reservationController.CreateReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	created, err := h.reservationController.Create(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "Failed to create reservation")
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *AdminHandler) getReservation(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid reservation ID",
		})
	}

	reservation, err := h.reservationController.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "Failed to load reservation")
	}

	return c.JSON(fiber.Map{
		"reservation": reservation,
	})
}

func (h *AdminHandler) issueToken(c *fiber.Ctx) error {
	var req struct {
		SubjectType models.TokenSubject `json:"subjectType"`
		SubjectID   uuid.UUID           `json:"subjectId"`
		DateKey     string              `json:"dateKey"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	token, err := h.tokenService.Issue(c.UserContext(), req.SubjectType, req.SubjectID, req.DateKey)
	if err != nil {
		return respondError(c, err, "Failed to issue token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
	})
}

func (h *AdminHandler) revokeToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.tokenService.Revoke(c.UserContext(), req.Token); err != nil {
		return respondError(c, err, "Failed to revoke token")
	}

	return c.Status(fiber.StatusNoContent).Send(nil)
}

func (h *AdminHandler) purgePhotos(c *fiber.Ctx) error {
	purged, err := h.photoRetention.Purge(c.UserContext())
	if err != nil {
		return respondError(c, err, "Failed to purge photos")
	}

	return c.JSON(fiber.Map{
		"purged": purged,
	})
}
