package reservationController

import (
	"context"
	"time"

	"stayops/config"
	"stayops/internal/apperrors"
	"stayops/internal/database"
	. "stayops/internal/models"
	"stayops/internal/repositories"
	"stayops/internal/services"
	"stayops/internal/timewindow"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationController struct {
	reservationRepo repositories.ReservationRepository
	roomRepo        repositories.RoomRepository
	tokenService    services.TokenIssuer
	tx              services.TxExecutor
	db              database.DB
	loc             *time.Location
}

type CreateReservationRequest struct {
	RoomID       *uuid.UUID `json:"roomId,omitempty"`
	GuestName    string     `json:"guestName"`
	Contact      string     `json:"contact"`
	PlannedStart time.Time  `json:"plannedStart"`
	PlannedEnd   time.Time  `json:"plannedEnd"`
}

// CreatedReservation carries the minted guest token exactly once, at
// booking entry. Later reads never return it.
type CreatedReservation struct {
	Reservation *Reservation `json:"reservation"`
	AccessToken string       `json:"accessToken"`
}

type ReservationControllerInterface interface {
	Create(ctx context.Context, request *CreateReservationRequest) (*CreatedReservation, error)
	Get(ctx context.Context, id uuid.UUID) (*Reservation, error)
}

func New(
	repos repositories.Repository,
	tokenService services.TokenIssuer,
	tx services.TxExecutor,
	db database.DB,
	config config.Config,
) ReservationControllerInterface {
	return &ReservationController{
		reservationRepo: repos.Reservation,
		roomRepo:        repos.Room,
		tokenService:    tokenService,
		tx:              tx,
		db:              db,
		loc:             timewindow.Location(config.CivilOffsetMinutes),
	}
}

// Create records the booking and mints the guest's access token, scoped
// to the planned end's civil day.
func (c *ReservationController) Create(
	ctx context.Context,
	request *CreateReservationRequest,
) (*CreatedReservation, error) {
	log := logger.New("reservationController").TraceFromContext(ctx).Function("Create")

	if request.GuestName == "" {
		return nil, apperrors.Validation("guestName is required")
	}
	if request.PlannedStart.IsZero() || request.PlannedEnd.IsZero() {
		return nil, apperrors.Validation("plannedStart and plannedEnd are required")
	}
	if !request.PlannedEnd.After(request.PlannedStart) {
		return nil, apperrors.Validation("plannedEnd must be after plannedStart")
	}

	if request.RoomID != nil {
		if _, err := c.roomRepo.GetByID(ctx, c.db.SQL, *request.RoomID); err != nil {
			return nil, err
		}
	}

	reservation := &Reservation{
		RoomID:       request.RoomID,
		GuestName:    request.GuestName,
		Contact:      request.Contact,
		PlannedStart: request.PlannedStart,
		PlannedEnd:   request.PlannedEnd,
	}

	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return c.reservationRepo.Create(ctx, tx, reservation)
	})
	if err != nil {
		return nil, err
	}

	dateKey := timewindow.DateKey(request.PlannedEnd, c.loc)
	token, err := c.tokenService.Issue(ctx, SubjectGuest, reservation.ID, dateKey)
	if err != nil {
		return nil, log.Err("failed to mint guest token", err, "reservationID", reservation.ID)
	}

	err = c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return c.reservationRepo.UpdateAccessToken(ctx, tx, reservation.ID, token)
	})
	if err != nil {
		return nil, err
	}

	log.Info("reservation created", "reservationID", reservation.ID, "dateKey", dateKey)
	return &CreatedReservation{Reservation: reservation, AccessToken: token}, nil
}

func (c *ReservationController) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	return c.reservationRepo.GetByID(ctx, c.db.SQL, id)
}
